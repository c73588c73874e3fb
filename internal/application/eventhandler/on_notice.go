// Package eventhandler contains the subscribers reacting to domain
// events. Handlers run after the ledger write has committed: they drive
// side effects (notifications, cache invalidation) and must never be
// able to fail a command retroactively.
package eventhandler

import (
	"context"
	"fmt"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/mentor"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

// NoticeSender delivers one user-facing notice. Implementations sit in
// infrastructure (the notification emitter client).
type NoticeSender interface {
	Send(ctx context.Context, notice shared.Notice) error
}

// ══════════════════════════════════════════════════════════════════════════════
// ON NOTICE HANDLER
// Collects the notices carried by lifecycle and rating events and hands
// them to the emitter. Some events leave RecipientAccountID empty because
// the producing command only knew the counterpart profile id; this
// handler resolves the account at delivery time.
// ══════════════════════════════════════════════════════════════════════════════

// OnNoticeHandler turns domain events into outbound notifications.
type OnNoticeHandler struct {
	learnerRepo learner.Repository
	mentorRepo  mentor.Repository
	sender      NoticeSender
	log         *logger.Logger
}

// NewOnNoticeHandler creates a new OnNoticeHandler.
func NewOnNoticeHandler(learnerRepo learner.Repository, mentorRepo mentor.Repository, sender NoticeSender, log *logger.Logger) *OnNoticeHandler {
	return &OnNoticeHandler{
		learnerRepo: learnerRepo,
		mentorRepo:  mentorRepo,
		sender:      sender,
		log:         log.With(logger.Component("notice-handler")),
	}
}

// EventTypes lists the events this handler subscribes to.
func (h *OnNoticeHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventPeerRequestReceived,
		shared.EventPeerRequestAccepted,
		shared.EventPeerRequestRejected,
		shared.EventOfficialRequestReceived,
		shared.EventOfficialRequestAccepted,
		shared.EventOfficialRequestRejected,
		shared.EventConnectionEstablished,
		shared.EventConnectionEnded,
		shared.EventMenteeRemoved,
		shared.EventRatingReceived,
	}
}

// Register subscribes the handler on the bus.
func (h *OnNoticeHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range h.EventTypes() {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle implements shared.EventHandler. Delivery failures are logged
// and swallowed: the ledger write already committed and a lost
// notification must not surface as a handler error loop.
func (h *OnNoticeHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	for _, notice := range h.extractNotices(event) {
		if notice.Message == "" {
			continue
		}
		resolved, err := h.resolveRecipient(ctx, event, notice)
		if err != nil {
			h.log.Warn("could not resolve notice recipient",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err))
			continue
		}
		if err := h.sender.Send(ctx, resolved); err != nil {
			h.log.Warn("notice delivery failed",
				logger.String("event_type", string(event.EventType())),
				logger.AccountID(resolved.RecipientAccountID),
				logger.Err(err))
		}
	}
	return nil
}

// extractNotices pulls the notices off the concrete event types.
func (h *OnNoticeHandler) extractNotices(event shared.Event) []shared.Notice {
	switch e := event.(type) {
	case shared.PeerRequestReceivedEvent:
		return []shared.Notice{e.Notice}
	case shared.PeerRequestRespondedEvent:
		return []shared.Notice{e.Notice}
	case shared.OfficialRequestEvent:
		return []shared.Notice{e.Notice}
	case shared.ConnectionEstablishedEvent:
		return e.Notices
	case shared.ConnectionEndedEvent:
		return []shared.Notice{e.Notice}
	case shared.RatingReceivedEvent:
		return []shared.Notice{e.Notice}
	default:
		// Remote events arrive payload-only and carry no typed notice.
		return nil
	}
}

// resolveRecipient fills in RecipientAccountID when the producing
// command only knew the counterpart profile id.
func (h *OnNoticeHandler) resolveRecipient(ctx context.Context, event shared.Event, notice shared.Notice) (shared.Notice, error) {
	if notice.RecipientAccountID != "" {
		return notice, nil
	}

	var profileID string
	switch e := event.(type) {
	case shared.ConnectionEndedEvent:
		profileID = e.CounterpartID
	case shared.RatingReceivedEvent:
		profileID = e.RatedID
	default:
		return notice, fmt.Errorf("event %s carries no recipient", event.EventType())
	}

	// A counterpart profile id may point at either aggregate: official
	// edges connect learners to professional mentors.
	profile, err := h.learnerRepo.GetByID(ctx, shared.ProfileID(profileID))
	if err == nil {
		notice.RecipientAccountID = string(profile.AccountID)
		return notice, nil
	}
	if !shared.IsNotFound(err) {
		return notice, fmt.Errorf("load recipient profile %s: %w", profileID, err)
	}

	mentorProfile, merr := h.mentorRepo.GetByID(ctx, shared.ProfileID(profileID))
	if merr != nil {
		return notice, fmt.Errorf("load recipient profile %s: %w", profileID, merr)
	}
	notice.RecipientAccountID = string(mentorProfile.AccountID)
	return notice, nil
}
