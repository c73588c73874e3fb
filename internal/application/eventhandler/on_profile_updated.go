package eventhandler

import (
	"context"
	"fmt"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

// ProfileCacheInvalidator drops cached read models for a profile.
// Implemented by the Redis profile cache.
type ProfileCacheInvalidator interface {
	Invalidate(ctx context.Context, profileID shared.ProfileID) error
}

// ══════════════════════════════════════════════════════════════════════════════
// ON PROFILE UPDATED HANDLER
// Keeps the profile read cache honest: any committed ledger or
// preferences change drops the cached entry so the next read rebuilds it.
// ══════════════════════════════════════════════════════════════════════════════

// OnProfileUpdatedHandler invalidates cached profiles on change events.
type OnProfileUpdatedHandler struct {
	cache ProfileCacheInvalidator
	log   *logger.Logger
}

// NewOnProfileUpdatedHandler creates a new OnProfileUpdatedHandler.
func NewOnProfileUpdatedHandler(cache ProfileCacheInvalidator, log *logger.Logger) *OnProfileUpdatedHandler {
	return &OnProfileUpdatedHandler{
		cache: cache,
		log:   log.With(logger.Component("profile-cache-handler")),
	}
}

// Register subscribes the handler on the bus. Besides the explicit
// profile update event, every connection change also mutates two
// ledgers, so those events invalidate as well.
func (h *OnProfileUpdatedHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventProfileUpdated,
		shared.EventConnectionEstablished,
		shared.EventConnectionEnded,
	} {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle implements shared.EventHandler.
func (h *OnProfileUpdatedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	for _, id := range h.affectedProfiles(event) {
		if id == "" {
			continue
		}
		if err := h.cache.Invalidate(ctx, shared.ProfileID(id)); err != nil {
			h.log.Warn("profile cache invalidation failed",
				logger.ProfileID(id),
				logger.Err(err))
		}
	}
	return nil
}

func (h *OnProfileUpdatedHandler) affectedProfiles(event shared.Event) []string {
	switch e := event.(type) {
	case shared.ProfileUpdatedEvent:
		return []string{e.ProfileID}
	case shared.ConnectionEstablishedEvent:
		return []string{e.MentorSideID, e.MenteeSideID}
	case shared.ConnectionEndedEvent:
		return []string{e.ActorID, e.CounterpartID}
	default:
		// Payload-only remote events still name the aggregate.
		return []string{event.AggregateID()}
	}
}
