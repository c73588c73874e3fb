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
// CREATE OFFICIAL REQUEST COMMAND
// A learner asks a professional mentor for general-purpose mentorship.
// The official ledger is asymmetric: only the learner's aggregate stores
// the request row, so this is a single-aggregate write with no mirror.
// ══════════════════════════════════════════════════════════════════════════════

// CreateOfficialRequestCommand contains the data to request an official mentor.
type CreateOfficialRequestCommand struct {
	// RequesterAccountID is the account of the learner.
	RequesterAccountID string

	// MentorProfileID is the professional mentor profile being asked.
	MentorProfileID string

	// Message is an optional note to the mentor (max 500 chars).
	Message string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateOfficialRequestCommand) Validate() error {
	if !shared.AccountID(c.RequesterAccountID).IsValid() {
		return shared.NewDomainError("lifecycle", "CreateOfficialRequest", shared.ErrInvalidID, "invalid requester account id")
	}
	if !shared.ProfileID(c.MentorProfileID).IsValid() {
		return shared.NewDomainError("lifecycle", "CreateOfficialRequest", shared.ErrInvalidID, "invalid mentor profile id")
	}
	if err := shared.ValidateMessage(c.Message); err != nil {
		return err
	}
	return nil
}

// CreateOfficialRequestResult contains the result of the request.
type CreateOfficialRequestResult struct {
	// RequestID is the learner-side row id.
	RequestID string

	// Events contains domain events generated.
	Events []shared.Event

	// CreatedAt is when the request was created.
	CreatedAt time.Time
}

// CreateOfficialRequestHandler handles the CreateOfficialRequestCommand.
type CreateOfficialRequestHandler struct {
	learnerRepo    learner.Repository
	mentorRepo     mentor.Repository
	eventPublisher shared.EventPublisher
}

// NewCreateOfficialRequestHandler creates a new CreateOfficialRequestHandler.
func NewCreateOfficialRequestHandler(
	learnerRepo learner.Repository,
	mentorRepo mentor.Repository,
	eventPublisher shared.EventPublisher,
) *CreateOfficialRequestHandler {
	return &CreateOfficialRequestHandler{
		learnerRepo:    learnerRepo,
		mentorRepo:     mentorRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the create official request command.
// Fourth-year learners may request official mentors: the fourth-year bar
// applies to peer requests only.
func (h *CreateOfficialRequestHandler) Handle(ctx context.Context, cmd CreateOfficialRequestCommand) (*CreateOfficialRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	requester, err := h.learnerRepo.GetByAccountID(ctx, shared.AccountID(cmd.RequesterAccountID))
	if err != nil {
		return nil, fmt.Errorf("create_official_request: requester: %w", err)
	}
	if !requester.ProfileCompleted {
		return nil, shared.ErrProfileIncomplete
	}

	mentorProfile, err := h.mentorRepo.GetByID(ctx, shared.ProfileID(cmd.MentorProfileID))
	if err != nil {
		return nil, fmt.Errorf("create_official_request: mentor: %w", err)
	}
	if !mentorProfile.Active {
		return nil, shared.ErrMentorInactive
	}

	if requester.Ledger.ActiveOfficialEdge(mentorProfile.ID) != nil {
		return nil, shared.ErrAlreadyMentored
	}
	if requester.Ledger.PendingOfficialOutgoing(mentorProfile.ID) != nil {
		return nil, shared.ErrDuplicateRequest
	}

	now := time.Now()
	outgoing := learner.NewRequest(mentorProfile.ID, "", cmd.Message, now)
	requester.Ledger.OfficialOutgoing = append(requester.Ledger.OfficialOutgoing, outgoing)

	requester.RecomputeCompleted()
	if err := h.learnerRepo.Update(ctx, requester); err != nil {
		return nil, fmt.Errorf("create_official_request: save: %w", err)
	}

	result := &CreateOfficialRequestResult{
		RequestID: outgoing.ID,
		CreatedAt: now,
		Events:    make([]shared.Event, 0),
	}

	notice := shared.Notice{
		RecipientAccountID: string(mentorProfile.AccountID),
		ActorName:          requester.DisplayName,
		Message:            fmt.Sprintf("%s просит вас о профессиональном менторстве", requester.DisplayName),
		RedirectHint:       "/mentorship/official/requests",
	}
	event := shared.NewOfficialRequestEvent(shared.EventOfficialRequestReceived,
		string(requester.ID), string(mentorProfile.ID), outgoing.ID, notice)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, event)
	_ = h.eventPublisher.Publish(event)

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPOND OFFICIAL REQUEST COMMAND
// The account holding the mentor role answers a learner's request. Accept
// appends an official edge to the learner's ledger only: the mentor profile
// never stores a mirror.
// ══════════════════════════════════════════════════════════════════════════════

// RespondOfficialRequestCommand contains the data to answer an official request.
type RespondOfficialRequestCommand struct {
	// MentorAccountID is the account owning the mentor profile.
	MentorAccountID string

	// LearnerProfileID is the learner whose ledger holds the request row.
	LearnerProfileID string

	// RequestID is the learner-side row id.
	RequestID string

	// Accept is true to accept, false to reject.
	Accept bool

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RespondOfficialRequestCommand) Validate() error {
	if !shared.AccountID(c.MentorAccountID).IsValid() {
		return shared.NewDomainError("lifecycle", "RespondOfficialRequest", shared.ErrInvalidID, "invalid mentor account id")
	}
	if !shared.ProfileID(c.LearnerProfileID).IsValid() {
		return shared.NewDomainError("lifecycle", "RespondOfficialRequest", shared.ErrInvalidID, "invalid learner profile id")
	}
	if c.RequestID == "" {
		return shared.NewDomainError("lifecycle", "RespondOfficialRequest", shared.ErrEmptyValue, "request id is required")
	}
	return nil
}

// RespondOfficialRequestResult contains the result of the decision.
type RespondOfficialRequestResult struct {
	// Accepted reports the decision.
	Accepted bool

	// EdgeID is the learner-side official edge id (accept only).
	EdgeID string

	// Events contains domain events generated.
	Events []shared.Event

	// RespondedAt is when the decision was recorded.
	RespondedAt time.Time
}

// RespondOfficialRequestHandler handles the RespondOfficialRequestCommand.
type RespondOfficialRequestHandler struct {
	learnerRepo    learner.Repository
	mentorRepo     mentor.Repository
	eventPublisher shared.EventPublisher
}

// NewRespondOfficialRequestHandler creates a new RespondOfficialRequestHandler.
func NewRespondOfficialRequestHandler(
	learnerRepo learner.Repository,
	mentorRepo mentor.Repository,
	eventPublisher shared.EventPublisher,
) *RespondOfficialRequestHandler {
	return &RespondOfficialRequestHandler{
		learnerRepo:    learnerRepo,
		mentorRepo:     mentorRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the respond official request command.
func (h *RespondOfficialRequestHandler) Handle(ctx context.Context, cmd RespondOfficialRequestCommand) (*RespondOfficialRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	mentorProfile, err := h.mentorRepo.GetByAccountID(ctx, shared.AccountID(cmd.MentorAccountID))
	if err != nil {
		return nil, fmt.Errorf("respond_official_request: mentor: %w", err)
	}

	learnerProfile, err := h.learnerRepo.GetByID(ctx, shared.ProfileID(cmd.LearnerProfileID))
	if err != nil {
		return nil, fmt.Errorf("respond_official_request: learner: %w", err)
	}

	request := learnerProfile.Ledger.OfficialOutgoingRequest(cmd.RequestID)
	if request == nil {
		return nil, shared.ErrRequestNotFound
	}
	// The responding account must own the profile the request targets.
	if request.CounterpartID != mentorProfile.ID {
		return nil, shared.ErrMentorNotOwner
	}
	if !request.IsPending() {
		return nil, shared.ErrAlreadyResponded
	}

	now := time.Now()
	result := &RespondOfficialRequestResult{
		Accepted:    cmd.Accept,
		RespondedAt: now,
		Events:      make([]shared.Event, 0),
	}

	eventType := shared.EventOfficialRequestRejected
	noticeText := fmt.Sprintf("%s отклонил(а) вашу заявку на менторство", mentorProfile.DisplayName)

	if cmd.Accept {
		if err := request.Accept(now); err != nil {
			return nil, err
		}
		edge := learner.NewEdge(learner.EdgeOfficial, mentorProfile.ID, "", now)
		learnerProfile.Ledger.AppendEdge(edge)
		result.EdgeID = edge.ID
		eventType = shared.EventOfficialRequestAccepted
		noticeText = fmt.Sprintf("%s принял(а) вашу заявку на менторство", mentorProfile.DisplayName)
	} else {
		if err := request.Reject(now); err != nil {
			return nil, err
		}
	}

	learnerProfile.RecomputeCompleted()
	if err := h.learnerRepo.Update(ctx, learnerProfile); err != nil {
		return nil, fmt.Errorf("respond_official_request: save: %w", err)
	}

	notice := shared.Notice{
		RecipientAccountID: string(learnerProfile.AccountID),
		ActorName:          mentorProfile.DisplayName,
		Message:            noticeText,
		RedirectHint:       "/mentorship/official",
	}
	event := shared.NewOfficialRequestEvent(eventType,
		string(learnerProfile.ID), string(mentorProfile.ID), cmd.RequestID, notice)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, event)
	_ = h.eventPublisher.Publish(event)

	if cmd.Accept {
		mentorNotice := shared.Notice{
			RecipientAccountID: string(mentorProfile.AccountID),
			ActorName:          learnerProfile.DisplayName,
			Message:            fmt.Sprintf("%s теперь ваш менти", learnerProfile.DisplayName),
			RedirectHint:       "/mentorship/mentees",
		}
		established := shared.NewConnectionEstablishedEvent(
			string(mentorProfile.ID), string(learnerProfile.ID), "", true,
			[]shared.Notice{notice, mentorNotice})
		if cmd.CorrelationID != "" {
			established.BaseEvent = established.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		result.Events = append(result.Events, established)
		_ = h.eventPublisher.Publish(established)
	}

	return result, nil
}
