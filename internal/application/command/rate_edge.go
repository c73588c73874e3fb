package command

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE EDGE COMMAND
// One rating per edge, irreversible, allowed only after the relationship is
// a week old. The rating lives on the rater's own edge row; counterpart
// aggregates (averageRating) are always derived at read time.
// ══════════════════════════════════════════════════════════════════════════════

// RateEdgeCommand contains the data to rate a mentorship edge.
type RateEdgeCommand struct {
	// RaterAccountID is the account of the learner leaving the rating.
	RaterAccountID string

	// EdgeID is the rater-side edge row id.
	EdgeID string

	// Score is the rating value (1-5).
	Score int

	// Feedback is an optional comment (max 500 chars).
	Feedback string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RateEdgeCommand) Validate() error {
	if !shared.AccountID(c.RaterAccountID).IsValid() {
		return shared.NewDomainError("rating", "Rate", shared.ErrInvalidID, "invalid rater account id")
	}
	if c.EdgeID == "" {
		return shared.NewDomainError("rating", "Rate", shared.ErrEmptyValue, "edge id is required")
	}
	return nil
}

// RateEdgeResult contains the result of rating an edge.
type RateEdgeResult struct {
	// RatedProfileID is the counterpart the rating is about.
	RatedProfileID string

	// Events contains domain events generated.
	Events []shared.Event

	// RatedAt is when the rating was recorded.
	RatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RateEdgeHandler handles the RateEdgeCommand.
type RateEdgeHandler struct {
	learnerRepo    learner.Repository
	eventPublisher shared.EventPublisher
}

// NewRateEdgeHandler creates a new RateEdgeHandler.
func NewRateEdgeHandler(
	learnerRepo learner.Repository,
	eventPublisher shared.EventPublisher,
) *RateEdgeHandler {
	return &RateEdgeHandler{
		learnerRepo:    learnerRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the rate edge command. The state checks run in a fixed
// order inside Edge.Rate: inactive, already rated, too young, bad score.
func (h *RateEdgeHandler) Handle(ctx context.Context, cmd RateEdgeCommand) (*RateEdgeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rater, err := h.learnerRepo.GetByAccountID(ctx, shared.AccountID(cmd.RaterAccountID))
	if err != nil {
		return nil, fmt.Errorf("rate_edge: rater: %w", err)
	}

	edge := rater.Ledger.FindEdge(cmd.EdgeID)
	if edge == nil {
		return nil, shared.ErrEdgeNotFound
	}

	now := time.Now()
	if err := edge.Rate(shared.Score(cmd.Score), cmd.Feedback, now); err != nil {
		return nil, err
	}
	edge.Touch(now)

	if err := h.learnerRepo.Update(ctx, rater); err != nil {
		return nil, fmt.Errorf("rate_edge: save: %w", err)
	}

	result := &RateEdgeResult{
		RatedProfileID: string(edge.CounterpartID),
		RatedAt:        now,
		Events:         make([]shared.Event, 0),
	}

	notice := shared.Notice{
		ActorName:    rater.DisplayName,
		Message:      fmt.Sprintf("%s оценил(а) вашу менторскую связь", rater.DisplayName),
		RedirectHint: "/mentorship/ratings",
	}
	event := shared.NewRatingReceivedEvent(
		string(rater.ID), string(edge.CounterpartID), cmd.EdgeID, cmd.Score, notice)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, event)
	_ = h.eventPublisher.Publish(event)

	return result, nil
}
