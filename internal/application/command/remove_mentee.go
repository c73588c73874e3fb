package command

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/mentor"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMOVE MENTEE COMMAND
// A professional mentor ends an official mentorship from their side. The
// official ledger is asymmetric: the edge row lives on the learner's
// aggregate only, so the mentor removes it there. Removal is the only mode
// a mentor has; deactivated history belongs to the learner.
// ══════════════════════════════════════════════════════════════════════════════

// RemoveMenteeCommand contains the data for a mentor to drop a mentee.
type RemoveMenteeCommand struct {
	// MentorAccountID is the account of the professional mentor.
	MentorAccountID string

	// LearnerProfileID is the mentee's learner profile.
	LearnerProfileID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RemoveMenteeCommand) Validate() error {
	if !shared.AccountID(c.MentorAccountID).IsValid() {
		return shared.NewDomainError("lifecycle", "RemoveMentee", shared.ErrInvalidID, "invalid mentor account id")
	}
	if !shared.ProfileID(c.LearnerProfileID).IsValid() {
		return shared.NewDomainError("lifecycle", "RemoveMentee", shared.ErrInvalidID, "invalid learner profile id")
	}
	return nil
}

// RemoveMenteeResult contains the result of removing a mentee.
type RemoveMenteeResult struct {
	// EdgeID is the learner-side row that was deleted.
	EdgeID string

	// Events contains domain events generated.
	Events []shared.Event

	// RemovedAt is when the relationship ended.
	RemovedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RemoveMenteeHandler handles the RemoveMenteeCommand.
type RemoveMenteeHandler struct {
	learnerRepo    learner.Repository
	mentorRepo     mentor.Repository
	eventPublisher shared.EventPublisher
}

// NewRemoveMenteeHandler creates a new RemoveMenteeHandler.
func NewRemoveMenteeHandler(
	learnerRepo learner.Repository,
	mentorRepo mentor.Repository,
	eventPublisher shared.EventPublisher,
) *RemoveMenteeHandler {
	return &RemoveMenteeHandler{
		learnerRepo:    learnerRepo,
		mentorRepo:     mentorRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the remove mentee command. Removing an already ended
// relationship fails NotFound, making repeated calls safe.
func (h *RemoveMenteeHandler) Handle(ctx context.Context, cmd RemoveMenteeCommand) (*RemoveMenteeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	mentorProfile, err := h.mentorRepo.GetByAccountID(ctx, shared.AccountID(cmd.MentorAccountID))
	if err != nil {
		return nil, fmt.Errorf("remove_mentee: mentor: %w", err)
	}

	mentee, err := h.learnerRepo.GetByID(ctx, shared.ProfileID(cmd.LearnerProfileID))
	if err != nil {
		return nil, fmt.Errorf("remove_mentee: mentee: %w", err)
	}

	edge := mentee.Ledger.ActiveOfficialEdge(mentorProfile.ID)
	if edge == nil {
		return nil, shared.ErrEdgeNotFound
	}
	edgeID := edge.ID
	mentee.Ledger.RemoveEdge(edgeID)

	mentee.RecomputeCompleted()
	if err := h.learnerRepo.Update(ctx, mentee); err != nil {
		return nil, fmt.Errorf("remove_mentee: save: %w", err)
	}

	now := time.Now()
	result := &RemoveMenteeResult{
		EdgeID:    edgeID,
		RemovedAt: now,
		Events:    make([]shared.Event, 0),
	}

	notice := shared.Notice{
		RecipientAccountID: string(mentee.AccountID),
		ActorName:          mentorProfile.DisplayName,
		Message:            fmt.Sprintf("%s завершил(а) менторскую связь", mentorProfile.DisplayName),
		RedirectHint:       "/mentorship/official",
	}
	event := shared.NewConnectionEndedEvent(
		string(mentorProfile.ID), string(mentee.ID), "", true, notice)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, event)
	_ = h.eventPublisher.Publish(event)

	return result, nil
}
