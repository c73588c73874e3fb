// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/application/mirror"
	"github.com/campus-connect/mentorship-hub/internal/domain/catalog"
	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE PEER REQUEST COMMAND
// A learner asks another learner to become their peer mentor for a subject.
// Two mirrored request rows are written: outgoing on the requester,
// incoming on the target.
// ══════════════════════════════════════════════════════════════════════════════

// CreatePeerRequestCommand contains the data to create a peer mentor request.
type CreatePeerRequestCommand struct {
	// RequesterAccountID is the account of the learner asking for a mentor.
	RequesterAccountID string

	// TargetProfileID is the learner profile being asked to mentor.
	TargetProfileID string

	// SubjectID is the subject help is requested for.
	SubjectID string

	// Message is an optional note to the target (max 500 chars).
	Message string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreatePeerRequestCommand) Validate() error {
	if !shared.AccountID(c.RequesterAccountID).IsValid() {
		return shared.NewDomainError("lifecycle", "CreatePeerRequest", shared.ErrInvalidID, "invalid requester account id")
	}
	if !shared.ProfileID(c.TargetProfileID).IsValid() {
		return shared.NewDomainError("lifecycle", "CreatePeerRequest", shared.ErrInvalidID, "invalid target profile id")
	}
	if !shared.SubjectID(c.SubjectID).IsValid() {
		return shared.NewDomainError("lifecycle", "CreatePeerRequest", shared.ErrInvalidID, "invalid subject id")
	}
	if err := shared.ValidateMessage(c.Message); err != nil {
		return err
	}
	return nil
}

// CreatePeerRequestResult contains the result of creating a peer request.
type CreatePeerRequestResult struct {
	// RequestID is the requester-side row id. The target holds its own row
	// with an independent id.
	RequestID string

	// Events contains domain events generated.
	Events []shared.Event

	// CreatedAt is when the request was created.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreatePeerRequestHandler handles the CreatePeerRequestCommand.
type CreatePeerRequestHandler struct {
	learnerRepo    learner.Repository
	subjects       catalog.Catalog
	mirrorWriter   *mirror.Writer
	eventPublisher shared.EventPublisher
}

// NewCreatePeerRequestHandler creates a new CreatePeerRequestHandler.
func NewCreatePeerRequestHandler(
	learnerRepo learner.Repository,
	subjects catalog.Catalog,
	mirrorWriter *mirror.Writer,
	eventPublisher shared.EventPublisher,
) *CreatePeerRequestHandler {
	return &CreatePeerRequestHandler{
		learnerRepo:    learnerRepo,
		subjects:       subjects,
		mirrorWriter:   mirrorWriter,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the create peer request command.
func (h *CreatePeerRequestHandler) Handle(ctx context.Context, cmd CreatePeerRequestCommand) (*CreatePeerRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	requester, err := h.learnerRepo.GetByAccountID(ctx, shared.AccountID(cmd.RequesterAccountID))
	if err != nil {
		return nil, fmt.Errorf("create_peer_request: requester: %w", err)
	}

	// Requester-side gates: complete profile, past the first term, not
	// fourth-year.
	if err := learner.CanRequestPeerMentor(requester); err != nil {
		return nil, err
	}

	subjectID := shared.SubjectID(cmd.SubjectID)
	subject, err := h.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("create_peer_request: subject lookup: %w", err)
	}
	if !subject.BelongsToBranch(requester.Branch) {
		return nil, shared.NewDomainError("lifecycle", "CreatePeerRequest", shared.ErrValidation,
			"subject does not belong to the requester's branch")
	}

	target, err := h.learnerRepo.GetByID(ctx, shared.ProfileID(cmd.TargetProfileID))
	if err != nil {
		return nil, fmt.Errorf("create_peer_request: target: %w", err)
	}

	// Target-side gates, re-evaluated again at accept time.
	if err := learner.CanBeRequestedAsMentor(target, requester, subjectID); err != nil {
		return nil, err
	}

	// One active mentor per subject.
	if learner.HasActiveMentorForSubject(requester, subjectID) {
		return nil, shared.ErrAlreadyMentored
	}

	// One pending request per (target, subject).
	if requester.Ledger.PendingPeerOutgoing(target.ID, subjectID) != nil {
		return nil, shared.ErrDuplicateRequest
	}

	now := time.Now()
	outgoing := learner.NewRequest(target.ID, subjectID, cmd.Message, now)
	requester.Ledger.PeerOutgoing = append(requester.Ledger.PeerOutgoing, outgoing)

	requesterID := requester.ID
	err = h.mirrorWriter.Commit(ctx, requester, target.ID,
		func(p *learner.Profile) error {
			p.Ledger.PeerIncoming = append(p.Ledger.PeerIncoming, learner.NewRequest(requesterID, subjectID, cmd.Message, now))
			return nil
		},
		func(p *learner.Profile) error {
			removeRequestRow(&p.Ledger.PeerOutgoing, outgoing.ID)
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create_peer_request: %w", err)
	}

	result := &CreatePeerRequestResult{
		RequestID: outgoing.ID,
		CreatedAt: now,
		Events:    make([]shared.Event, 0),
	}

	notice := shared.Notice{
		RecipientAccountID: string(target.AccountID),
		ActorName:          requester.DisplayName,
		Message:            fmt.Sprintf("%s просит вас стать ментором по предмету %s", requester.DisplayName, subject.Name),
		RedirectHint:       "/mentorship/requests/incoming",
	}
	event := shared.NewPeerRequestReceivedEvent(
		string(requester.ID), string(target.ID), cmd.SubjectID, outgoing.ID, notice)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, event)
	_ = h.eventPublisher.Publish(event)

	return result, nil
}

// removeRequestRow deletes a request row by id, in place.
func removeRequestRow(rows *[]learner.Request, id string) {
	for i := range *rows {
		if (*rows)[i].ID == id {
			*rows = append((*rows)[:i], (*rows)[i+1:]...)
			return
		}
	}
}
