package command

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/application/mirror"
	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// END RELATIONSHIP COMMAND
// Ends an active mentorship edge. Two modes:
//   - deactivate: the edge flips inactive on the actor's ledger and, for
//     peer edges, on the counterpart's mirror; history is retained;
//   - remove: the edge row is deleted from the actor's ledger; the peer
//     mirror is deactivated (not deleted) so the counterpart keeps history.
// Official edges have no counterpart row, so both modes touch one ledger.
// ══════════════════════════════════════════════════════════════════════════════

// EndMode selects how the relationship ends.
type EndMode string

const (
	// EndModeDeactivate retains the edge row as history.
	EndModeDeactivate EndMode = "deactivate"

	// EndModeRemove deletes the actor-side row outright.
	EndModeRemove EndMode = "remove"
)

// IsValid checks that the mode is known.
func (m EndMode) IsValid() bool {
	return m == EndModeDeactivate || m == EndModeRemove
}

// EndRelationshipCommand contains the data to end a relationship.
type EndRelationshipCommand struct {
	// ActorAccountID is the account of the learner ending the relationship.
	ActorAccountID string

	// EdgeID is the actor-side edge row id.
	EdgeID string

	// Mode selects deactivate or remove.
	Mode EndMode

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EndRelationshipCommand) Validate() error {
	if !shared.AccountID(c.ActorAccountID).IsValid() {
		return shared.NewDomainError("lifecycle", "EndRelationship", shared.ErrInvalidID, "invalid actor account id")
	}
	if c.EdgeID == "" {
		return shared.NewDomainError("lifecycle", "EndRelationship", shared.ErrEmptyValue, "edge id is required")
	}
	if !c.Mode.IsValid() {
		return shared.NewDomainError("lifecycle", "EndRelationship", shared.ErrInvalidInput,
			fmt.Sprintf("unknown end mode %q", c.Mode))
	}
	return nil
}

// EndRelationshipResult contains the result of ending a relationship.
type EndRelationshipResult struct {
	// Removed is true when the actor-side row was deleted.
	Removed bool

	// CounterpartID is the other side of the ended edge.
	CounterpartID string

	// Events contains domain events generated.
	Events []shared.Event

	// EndedAt is when the relationship ended.
	EndedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EndRelationshipHandler handles the EndRelationshipCommand.
type EndRelationshipHandler struct {
	learnerRepo    learner.Repository
	mirrorWriter   *mirror.Writer
	eventPublisher shared.EventPublisher
}

// NewEndRelationshipHandler creates a new EndRelationshipHandler.
func NewEndRelationshipHandler(
	learnerRepo learner.Repository,
	mirrorWriter *mirror.Writer,
	eventPublisher shared.EventPublisher,
) *EndRelationshipHandler {
	return &EndRelationshipHandler{
		learnerRepo:    learnerRepo,
		mirrorWriter:   mirrorWriter,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the end relationship command. Ending an edge that is
// already gone fails NotFound, making repeated calls safe.
func (h *EndRelationshipHandler) Handle(ctx context.Context, cmd EndRelationshipCommand) (*EndRelationshipResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	actor, err := h.learnerRepo.GetByAccountID(ctx, shared.AccountID(cmd.ActorAccountID))
	if err != nil {
		return nil, fmt.Errorf("end_relationship: actor: %w", err)
	}

	edge := actor.Ledger.FindEdge(cmd.EdgeID)
	if edge == nil {
		return nil, shared.ErrEdgeNotFound
	}
	if cmd.Mode == EndModeDeactivate && !edge.Active {
		return nil, shared.ErrEdgeInactive
	}

	now := time.Now()
	edgeCopy := *edge
	mirrorKind, hasMirror := edge.Kind.Mirror()

	switch cmd.Mode {
	case EndModeDeactivate:
		edge.Deactivate(now)
	case EndModeRemove:
		actor.Ledger.RemoveEdge(cmd.EdgeID)
	}

	if hasMirror {
		err = h.endWithMirror(ctx, cmd, actor, edgeCopy, mirrorKind, now)
	} else {
		actor.RecomputeCompleted()
		err = h.learnerRepo.Update(ctx, actor)
	}
	if err != nil {
		return nil, fmt.Errorf("end_relationship: %w", err)
	}

	result := &EndRelationshipResult{
		Removed:       cmd.Mode == EndModeRemove,
		CounterpartID: string(edgeCopy.CounterpartID),
		EndedAt:       now,
		Events:        make([]shared.Event, 0),
	}

	notice := shared.Notice{
		ActorName:    actor.DisplayName,
		Message:      fmt.Sprintf("%s завершил(а) менторскую связь", actor.DisplayName),
		RedirectHint: "/mentorship",
	}
	event := shared.NewConnectionEndedEvent(
		string(actor.ID), string(edgeCopy.CounterpartID), string(edgeCopy.SubjectID),
		cmd.Mode == EndModeRemove, notice)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, event)
	_ = h.eventPublisher.Publish(event)

	return result, nil
}

// endWithMirror commits the actor-side change and deactivates the mirror on
// the counterpart. Mirrors are always deactivated, never deleted: only the
// actor chooses to lose their own history.
func (h *EndRelationshipHandler) endWithMirror(
	ctx context.Context,
	cmd EndRelationshipCommand,
	actor *learner.Profile,
	edgeCopy learner.Edge,
	mirrorKind learner.EdgeKind,
	now time.Time,
) error {
	actorID := actor.ID

	return h.mirrorWriter.Commit(ctx, actor, edgeCopy.CounterpartID,
		func(p *learner.Profile) error {
			if m := p.Ledger.FindActiveEdge(mirrorKind, actorID, edgeCopy.SubjectID); m != nil {
				m.Deactivate(now)
			}
			return nil
		},
		func(p *learner.Profile) error {
			switch cmd.Mode {
			case EndModeDeactivate:
				if e := p.Ledger.FindEdge(cmd.EdgeID); e != nil {
					e.Active = true
					e.LastInteraction = edgeCopy.LastInteraction
				}
			case EndModeRemove:
				p.Ledger.AppendEdge(edgeCopy)
			}
			return nil
		},
	)
}
