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
// RESPOND PEER REQUEST COMMAND
// The target of a pending peer request accepts or rejects it. Accepting
// re-checks capacity (it may have been lost since the request was created)
// and creates mirrored active edges on both ledgers.
// ══════════════════════════════════════════════════════════════════════════════

// RespondPeerRequestCommand contains the data to answer a peer request.
type RespondPeerRequestCommand struct {
	// ResponderAccountID is the account of the learner who was asked.
	ResponderAccountID string

	// RequestID is the responder-side incoming row id.
	RequestID string

	// Accept is true to accept, false to reject.
	Accept bool

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RespondPeerRequestCommand) Validate() error {
	if !shared.AccountID(c.ResponderAccountID).IsValid() {
		return shared.NewDomainError("lifecycle", "RespondPeerRequest", shared.ErrInvalidID, "invalid responder account id")
	}
	if c.RequestID == "" {
		return shared.NewDomainError("lifecycle", "RespondPeerRequest", shared.ErrEmptyValue, "request id is required")
	}
	return nil
}

// RespondPeerRequestResult contains the result of responding.
type RespondPeerRequestResult struct {
	// Accepted reports the decision.
	Accepted bool

	// MenteeEdgeID is the responder-side edge id (accept only).
	MenteeEdgeID string

	// Events contains domain events generated.
	Events []shared.Event

	// RespondedAt is when the decision was recorded.
	RespondedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RespondPeerRequestHandler handles the RespondPeerRequestCommand.
type RespondPeerRequestHandler struct {
	learnerRepo    learner.Repository
	mirrorWriter   *mirror.Writer
	eventPublisher shared.EventPublisher
}

// NewRespondPeerRequestHandler creates a new RespondPeerRequestHandler.
func NewRespondPeerRequestHandler(
	learnerRepo learner.Repository,
	mirrorWriter *mirror.Writer,
	eventPublisher shared.EventPublisher,
) *RespondPeerRequestHandler {
	return &RespondPeerRequestHandler{
		learnerRepo:    learnerRepo,
		mirrorWriter:   mirrorWriter,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the respond peer request command.
func (h *RespondPeerRequestHandler) Handle(ctx context.Context, cmd RespondPeerRequestCommand) (*RespondPeerRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	responder, err := h.learnerRepo.GetByAccountID(ctx, shared.AccountID(cmd.ResponderAccountID))
	if err != nil {
		return nil, fmt.Errorf("respond_peer_request: responder: %w", err)
	}

	incoming := responder.Ledger.IncomingPeerRequest(cmd.RequestID)
	if incoming == nil {
		return nil, shared.ErrRequestNotFound
	}
	if !incoming.IsPending() {
		return nil, shared.ErrAlreadyResponded
	}

	requester, err := h.learnerRepo.GetByID(ctx, incoming.CounterpartID)
	if err != nil {
		return nil, fmt.Errorf("respond_peer_request: requester: %w", err)
	}

	if cmd.Accept {
		// Accept-time re-check: capacity may have been lost between request
		// and response.
		if err := learner.CheckAcceptCapacity(responder); err != nil {
			return nil, err
		}
		return h.accept(ctx, cmd, responder, requester, incoming)
	}
	return h.reject(ctx, cmd, responder, requester, incoming)
}

// accept marks both request rows accepted and appends mirrored edges:
// a mentee edge on the responder, a mentor edge on the requester. The two
// rows carry independent ids and the same ConnectedAt.
func (h *RespondPeerRequestHandler) accept(
	ctx context.Context,
	cmd RespondPeerRequestCommand,
	responder, requester *learner.Profile,
	incoming *learner.Request,
) (*RespondPeerRequestResult, error) {
	now := time.Now()
	responderID := responder.ID
	subjectID := incoming.SubjectID

	if err := incoming.Accept(now); err != nil {
		return nil, err
	}
	menteeEdge := learner.NewEdge(learner.EdgePeerMentee, requester.ID, subjectID, now)
	responder.Ledger.AppendEdge(menteeEdge)

	err := h.mirrorWriter.Commit(ctx, responder, requester.ID,
		func(p *learner.Profile) error {
			// The requester-side row is matched by counterpart + subject +
			// pending, never by id. A missing row is tolerated: the edge
			// invariant matters more than the request history.
			if match := p.Ledger.OutgoingPeerMatch(responderID, subjectID); match != nil {
				if err := match.Accept(now); err != nil {
					return err
				}
			}
			// The requester may have had another request for the same subject
			// accepted in the meantime. Failing here lets the mirror writer
			// roll the responder side back.
			if p.Ledger.ActiveMentorEdgeForSubject(subjectID) != nil {
				return shared.ErrAlreadyMentored
			}
			p.Ledger.AppendEdge(learner.NewEdge(learner.EdgePeerMentor, responderID, subjectID, now))
			return nil
		},
		func(p *learner.Profile) error {
			p.Ledger.RemoveEdge(menteeEdge.ID)
			if row := p.Ledger.IncomingPeerRequest(cmd.RequestID); row != nil {
				row.Status = learner.StatusPending
				row.RespondedAt = nil
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("respond_peer_request: %w", err)
	}

	result := &RespondPeerRequestResult{
		Accepted:     true,
		MenteeEdgeID: menteeEdge.ID,
		RespondedAt:  now,
		Events:       make([]shared.Event, 0),
	}

	notice := shared.Notice{
		RecipientAccountID: string(requester.AccountID),
		ActorName:          responder.DisplayName,
		Message:            fmt.Sprintf("%s принял(а) вашу заявку на менторство", responder.DisplayName),
		RedirectHint:       "/mentorship/mentors",
	}
	responderNotice := shared.Notice{
		RecipientAccountID: string(responder.AccountID),
		ActorName:          requester.DisplayName,
		Message:            fmt.Sprintf("%s теперь ваш менти", requester.DisplayName),
		RedirectHint:       "/mentorship/mentees",
	}
	responded := shared.NewPeerRequestRespondedEvent(
		string(responder.ID), string(requester.ID), string(subjectID), true, notice)
	established := shared.NewConnectionEstablishedEvent(
		string(responder.ID), string(requester.ID), string(subjectID), false,
		[]shared.Notice{notice, responderNotice})
	if cmd.CorrelationID != "" {
		responded.BaseEvent = responded.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		established.BaseEvent = established.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, responded, established)
	_ = h.eventPublisher.Publish(responded)
	_ = h.eventPublisher.Publish(established)

	return result, nil
}

// reject marks both request rows rejected. No edges are created.
func (h *RespondPeerRequestHandler) reject(
	ctx context.Context,
	cmd RespondPeerRequestCommand,
	responder, requester *learner.Profile,
	incoming *learner.Request,
) (*RespondPeerRequestResult, error) {
	now := time.Now()
	responderID := responder.ID
	subjectID := incoming.SubjectID

	if err := incoming.Reject(now); err != nil {
		return nil, err
	}

	err := h.mirrorWriter.Commit(ctx, responder, requester.ID,
		func(p *learner.Profile) error {
			if match := p.Ledger.OutgoingPeerMatch(responderID, subjectID); match != nil {
				return match.Reject(now)
			}
			return nil
		},
		func(p *learner.Profile) error {
			if row := p.Ledger.IncomingPeerRequest(cmd.RequestID); row != nil {
				row.Status = learner.StatusPending
				row.RespondedAt = nil
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("respond_peer_request: %w", err)
	}

	result := &RespondPeerRequestResult{
		Accepted:    false,
		RespondedAt: now,
		Events:      make([]shared.Event, 0),
	}

	notice := shared.Notice{
		RecipientAccountID: string(requester.AccountID),
		ActorName:          responder.DisplayName,
		Message:            fmt.Sprintf("%s отклонил(а) вашу заявку на менторство", responder.DisplayName),
		RedirectHint:       "/mentorship/requests/outgoing",
	}
	responded := shared.NewPeerRequestRespondedEvent(
		string(responder.ID), string(requester.ID), string(subjectID), false, notice)
	if cmd.CorrelationID != "" {
		responded.BaseEvent = responded.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, responded)
	_ = h.eventPublisher.Publish(responded)

	return result, nil
}
