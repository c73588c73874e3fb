package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/application/mirror"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
	"github.com/campus-connect/mentorship-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE LEDGERS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileLedgersJob sweeps every learner ledger for peer edges whose
// mirror went missing, publishes an event per finding, and optionally
// repairs them. Orphans appear when a mirrored write fails after the
// primary write and compensation fails too.
//
// Repair is gated behind a flag so a fresh deployment can run the scan in
// report-only mode until the findings have been reviewed.
type ReconcileLedgersJob struct {
	auditor   *mirror.Auditor
	publisher shared.EventPublisher
	log       *logger.Logger

	config ReconcileLedgersConfig

	lastRunStats atomic.Value // *ReconcileLedgersStats
}

// ReconcileLedgersConfig contains configuration for the reconciliation job.
type ReconcileLedgersConfig struct {
	// RepairEnabled turns findings into repairs. When false the job only
	// reports.
	RepairEnabled bool

	// MaxRepairsPerRun bounds the blast radius of one run (0 = unlimited).
	MaxRepairsPerRun int

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultReconcileLedgersConfig returns sensible defaults: report-only.
func DefaultReconcileLedgersConfig() ReconcileLedgersConfig {
	return ReconcileLedgersConfig{
		RepairEnabled:    false,
		MaxRepairsPerRun: 100,
		Timeout:          10 * time.Minute,
	}
}

// ReconcileLedgersStats contains statistics from one reconciliation run.
type ReconcileLedgersStats struct {
	StartedAt       time.Time
	CompletedAt     time.Time
	Duration        time.Duration
	OrphansFound    int
	OrphansRepaired int
	RepairsSkipped  int
	Errors          []error
}

// NewReconcileLedgersJob creates the reconciliation job.
func NewReconcileLedgersJob(
	auditor *mirror.Auditor,
	publisher shared.EventPublisher,
	log *logger.Logger,
	config ReconcileLedgersConfig,
) *ReconcileLedgersJob {
	if log == nil {
		log = logger.Default()
	}
	return &ReconcileLedgersJob{
		auditor:   auditor,
		publisher: publisher,
		log:       log.With(logger.Component("reconcile-ledgers")),
		config:    config,
	}
}

// Name returns the job name.
func (j *ReconcileLedgersJob) Name() string {
	return "reconcile_ledgers"
}

// Description returns a human-readable description.
func (j *ReconcileLedgersJob) Description() string {
	return "Scans learner ledgers for asymmetric peer edges and repairs them"
}

// Run executes one reconciliation sweep.
func (j *ReconcileLedgersJob) Run(ctx context.Context) error {
	startedAt := timeutil.Now()
	stats := &ReconcileLedgersStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	orphans, err := j.auditor.Scan(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: scan: %w", err)
	}
	stats.OrphansFound = len(orphans)

	j.log.Info("reconciliation scan completed",
		logger.Int("orphans_found", len(orphans)),
		logger.Bool("repair_enabled", j.config.RepairEnabled))

	for _, o := range orphans {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		event := shared.NewLedgerAsymmetryFoundEvent(
			string(o.ProfileID), string(o.CounterpartID), o.EdgeID, string(o.SubjectID))
		if pubErr := j.publisher.Publish(event); pubErr != nil {
			j.log.Warn("failed to publish asymmetry event", logger.Err(pubErr))
		}

		if !j.config.RepairEnabled {
			continue
		}
		if j.config.MaxRepairsPerRun > 0 && stats.OrphansRepaired >= j.config.MaxRepairsPerRun {
			stats.RepairsSkipped++
			continue
		}

		if err := j.auditor.Repair(ctx, o); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.log.Error("repair failed",
				logger.ProfileID(string(o.ProfileID)),
				logger.EdgeID(o.EdgeID),
				logger.Err(err))
			continue
		}
		stats.OrphansRepaired++
	}

	stats.CompletedAt = timeutil.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.log.Info("reconciliation completed",
		logger.Duration("duration", stats.Duration),
		logger.Int("orphans_found", stats.OrphansFound),
		logger.Int("orphans_repaired", stats.OrphansRepaired),
		logger.Int("repairs_skipped", stats.RepairsSkipped),
		logger.Int("errors", len(stats.Errors)))

	return nil
}

// LastRunStats returns statistics from the last sweep.
func (j *ReconcileLedgersJob) LastRunStats() *ReconcileLedgersStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ReconcileLedgersStats)
}
