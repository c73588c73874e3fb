package command

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/catalog"
	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PREFERENCES COMMAND
// Mutates a learner's mentoring preferences and strong-subject list.
// Lowering the mentee cap below current occupancy is allowed: the capacity
// predicate simply stops passing new requests, existing edges survive.
// ══════════════════════════════════════════════════════════════════════════════

// SlotInput is a raw availability slot.
type SlotInput struct {
	Weekday int    `json:"weekday"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// SubjectInput is a raw strong-subject entry.
type SubjectInput struct {
	SubjectID  string `json:"subject_id"`
	Confidence int    `json:"confidence"`
}

// UpdatePreferencesCommand contains the data to update mentoring settings.
type UpdatePreferencesCommand struct {
	// AccountID is the account of the learner being updated.
	AccountID string

	// AcceptingNewMentees toggles mentoring availability.
	AcceptingNewMentees bool

	// MaxMentees is the mentee cap (1-20).
	MaxMentees int

	// Mode is the teaching mode (in_person, online, hybrid).
	Mode string

	// TimeSlots is the weekly availability.
	TimeSlots []SlotInput

	// AddSubjects lists strong subjects to add. The origin term comes from
	// the subject catalog.
	AddSubjects []SubjectInput

	// RemoveSubjects lists strong subject ids to drop.
	RemoveSubjects []string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c UpdatePreferencesCommand) Validate() error {
	if !shared.AccountID(c.AccountID).IsValid() {
		return shared.NewDomainError("learner", "UpdatePreferences", shared.ErrInvalidID, "invalid account id")
	}
	for _, s := range c.AddSubjects {
		if !shared.SubjectID(s.SubjectID).IsValid() {
			return shared.NewDomainError("learner", "UpdatePreferences", shared.ErrInvalidID,
				fmt.Sprintf("invalid subject id %q", s.SubjectID))
		}
	}
	return nil
}

// UpdatePreferencesResult contains the result of the update.
type UpdatePreferencesResult struct {
	// ProfileCompleted is the recomputed completeness flag.
	ProfileCompleted bool

	// StrongSubjects is the resulting strong-subject count.
	StrongSubjects int

	// Events contains domain events generated.
	Events []shared.Event

	// UpdatedAt is when the profile was saved.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesHandler handles the UpdatePreferencesCommand.
type UpdatePreferencesHandler struct {
	learnerRepo    learner.Repository
	subjects       catalog.Catalog
	eventPublisher shared.EventPublisher
}

// NewUpdatePreferencesHandler creates a new UpdatePreferencesHandler.
func NewUpdatePreferencesHandler(
	learnerRepo learner.Repository,
	subjects catalog.Catalog,
	eventPublisher shared.EventPublisher,
) *UpdatePreferencesHandler {
	return &UpdatePreferencesHandler{
		learnerRepo:    learnerRepo,
		subjects:       subjects,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the update preferences command.
func (h *UpdatePreferencesHandler) Handle(ctx context.Context, cmd UpdatePreferencesCommand) (*UpdatePreferencesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.learnerRepo.GetByAccountID(ctx, shared.AccountID(cmd.AccountID))
	if err != nil {
		return nil, fmt.Errorf("update_preferences: profile: %w", err)
	}

	slots := make([]shared.TimeSlot, 0, len(cmd.TimeSlots))
	for _, s := range cmd.TimeSlots {
		slot, err := shared.NewTimeSlot(time.Weekday(s.Weekday), s.From, s.To)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	prefs := learner.MentorPreferences{
		AcceptingNewMentees: cmd.AcceptingNewMentees,
		MaxMentees:          cmd.MaxMentees,
		Mode:                shared.TeachingMode(cmd.Mode),
		TimeSlots:           slots,
	}
	if err := profile.UpdatePreferences(prefs); err != nil {
		return nil, err
	}

	for _, id := range cmd.RemoveSubjects {
		if err := profile.RemoveStrongSubject(shared.SubjectID(id)); err != nil {
			return nil, err
		}
	}

	for _, s := range cmd.AddSubjects {
		subjectID := shared.SubjectID(s.SubjectID)
		subject, err := h.subjects.GetSubject(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("update_preferences: subject lookup: %w", err)
		}
		if !subject.BelongsToBranch(profile.Branch) {
			return nil, shared.NewDomainError("learner", "UpdatePreferences", shared.ErrValidation,
				fmt.Sprintf("subject %s does not belong to branch %s", subjectID, profile.Branch))
		}
		if err := profile.AddStrongSubject(subjectID, subject.Term, shared.Confidence(s.Confidence)); err != nil {
			return nil, err
		}
	}

	profile.RecomputeCompleted()
	if err := h.learnerRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update_preferences: save: %w", err)
	}

	result := &UpdatePreferencesResult{
		ProfileCompleted: profile.ProfileCompleted,
		StrongSubjects:   len(profile.StrongSubjects),
		UpdatedAt:        profile.UpdatedAt,
		Events:           make([]shared.Event, 0),
	}

	event := shared.NewProfileUpdatedEvent(string(profile.ID), string(profile.AccountID))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, event)
	_ = h.eventPublisher.Publish(event)

	return result, nil
}
