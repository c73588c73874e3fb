// Package jobs contains the scheduled jobs of the mentorship hub worker.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
	"github.com/campus-connect/mentorship-hub/pkg/retry"
	"github.com/campus-connect/mentorship-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE REQUESTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpireRequestsJob flips pending peer requests older than the configured
// TTL into the terminal expired status. No edges are created.
//
// Mirrored request rows share a RequestedAt timestamp, so when one side of
// a pair goes stale the other side is stale too and shows up in the same
// scan. The job therefore only ever touches rows owned by the profile it
// is visiting; the counterpart's rows expire on the counterpart's own
// visit. That keeps every write a single-aggregate write and makes the
// job safe to re-run at any time.
//
// Official mentor requests are answered by staff on their own clock and
// never expire.
type ExpireRequestsJob struct {
	profiles  learner.Repository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	log       *logger.Logger

	config ExpireRequestsConfig

	lastRunStats atomic.Value // *ExpireRequestsStats
}

// ExpireRequestsConfig contains configuration for the expiry job.
type ExpireRequestsConfig struct {
	// RequestTTL is how long a peer request may stay pending.
	RequestTTL time.Duration

	// NotifyRequester enables sending an expiry notice to the requester.
	NotifyRequester bool

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultExpireRequestsConfig returns sensible defaults.
func DefaultExpireRequestsConfig() ExpireRequestsConfig {
	return ExpireRequestsConfig{
		RequestTTL:      14 * 24 * time.Hour,
		NotifyRequester: true,
		Timeout:         5 * time.Minute,
	}
}

// ExpireRequestsStats contains statistics from one expiry run.
type ExpireRequestsStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	ProfilesVisited  int
	OutgoingExpired  int
	IncomingExpired  int
	NoticesPublished int
	Errors           []error
}

// NewExpireRequestsJob creates the expiry job.
func NewExpireRequestsJob(
	profiles learner.Repository,
	publisher shared.EventPublisher,
	log *logger.Logger,
	config ExpireRequestsConfig,
) *ExpireRequestsJob {
	if log == nil {
		log = logger.Default()
	}
	return &ExpireRequestsJob{
		profiles:  profiles,
		publisher: publisher,
		retrier:   retry.DatabaseRetrier(),
		log:       log.With(logger.Component("expire-requests")),
		config:    config,
	}
}

// Name returns the job name.
func (j *ExpireRequestsJob) Name() string {
	return "expire_requests"
}

// Description returns a human-readable description.
func (j *ExpireRequestsJob) Description() string {
	return "Expires peer mentorship requests that stayed pending past the TTL"
}

// Run executes one expiry sweep.
func (j *ExpireRequestsJob) Run(ctx context.Context) error {
	startedAt := timeutil.Now()
	stats := &ExpireRequestsStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	cutoff := startedAt.Add(-j.config.RequestTTL)
	stale, err := j.profiles.FindWithStalePeerRequests(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire: find stale profiles: %w", err)
	}

	j.log.Info("expiry sweep started",
		logger.Int("stale_profiles", len(stale)),
		logger.Time("cutoff", cutoff))

	for _, p := range stale {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := j.expireProfileRequests(ctx, p.ID, cutoff, stats); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.log.Error("failed to expire requests for profile",
				logger.ProfileID(string(p.ID)),
				logger.Err(err))
		}
		stats.ProfilesVisited++
	}

	stats.CompletedAt = timeutil.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.log.Info("expiry sweep completed",
		logger.Duration("duration", stats.Duration),
		logger.Int("profiles_visited", stats.ProfilesVisited),
		logger.Int("outgoing_expired", stats.OutgoingExpired),
		logger.Int("incoming_expired", stats.IncomingExpired),
		logger.Int("errors", len(stats.Errors)))

	return nil
}

// expireProfileRequests expires the stale pendings of one profile with a
// reload-on-conflict loop around the revision CAS.
func (j *ExpireRequestsJob) expireProfileRequests(
	ctx context.Context,
	profileID shared.ProfileID,
	cutoff time.Time,
	stats *ExpireRequestsStats,
) error {
	var expired []shared.PeerRequestExpiredEvent

	err := j.retrier.Do(ctx, func(ctx context.Context) error {
		p, err := j.profiles.GetByID(ctx, profileID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// Deleted since the scan.
				return nil
			}
			return retry.Permanent(err)
		}

		expired = expired[:0]
		outgoing, incoming := j.expireStale(p, cutoff, &expired)
		if outgoing == 0 && incoming == 0 {
			return nil
		}

		if err := j.profiles.Update(ctx, p); err != nil {
			if errors.Is(err, shared.ErrConcurrentModification) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		stats.OutgoingExpired += outgoing
		stats.IncomingExpired += incoming
		return nil
	})
	if err != nil {
		return err
	}

	for _, event := range expired {
		if pubErr := j.publisher.Publish(event); pubErr != nil {
			j.log.Warn("failed to publish expiry event", logger.Err(pubErr))
			continue
		}
		stats.NoticesPublished++
	}

	return nil
}

// expireStale mutates the profile's request queues in place and collects
// expiry events for outgoing rows. Only the requester is notified: the
// target never acted, and a "you ignored this" notice helps nobody.
func (j *ExpireRequestsJob) expireStale(
	p *learner.Profile,
	cutoff time.Time,
	events *[]shared.PeerRequestExpiredEvent,
) (outgoing, incoming int) {
	now := timeutil.Now()

	for i := range p.Ledger.PeerOutgoing {
		r := &p.Ledger.PeerOutgoing[i]
		if !r.IsPending() || !r.RequestedAt.Before(cutoff) {
			continue
		}
		if err := r.Expire(now); err != nil {
			continue
		}
		outgoing++

		if j.config.NotifyRequester {
			*events = append(*events, shared.NewPeerRequestExpiredEvent(
				string(p.ID),
				string(r.CounterpartID),
				string(r.SubjectID),
				shared.Notice{
					RecipientAccountID: string(p.AccountID),
					Message: fmt.Sprintf(
						"Ваша заявка на менторство не получила ответа за %d дней и была закрыта. "+
							"Попробуйте обратиться к другому ментору!",
						int(j.config.RequestTTL.Hours()/24)),
					RedirectHint: "/mentors/search",
				},
			))
		}
	}

	for i := range p.Ledger.PeerIncoming {
		r := &p.Ledger.PeerIncoming[i]
		if !r.IsPending() || !r.RequestedAt.Before(cutoff) {
			continue
		}
		if err := r.Expire(now); err != nil {
			continue
		}
		incoming++
	}

	return outgoing, incoming
}

// LastRunStats returns statistics from the last sweep.
func (j *ExpireRequestsJob) LastRunStats() *ExpireRequestsStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ExpireRequestsStats)
}
