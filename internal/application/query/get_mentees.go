package query

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/mentor"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MENTEES QUERY
// A professional mentor's view of their mentees. The official ledger is
// stored on the learner side only, so this query is the inverse lookup:
// learners whose ledgers hold an active official edge or a pending
// request pointing at this mentor.
// ══════════════════════════════════════════════════════════════════════════════

// GetMenteesQuery identifies the mentor account asking.
type GetMenteesQuery struct {
	// MentorAccountID is the account owning the mentor profile.
	MentorAccountID string
}

// Validate validates the query.
func (q GetMenteesQuery) Validate() error {
	if !shared.AccountID(q.MentorAccountID).IsValid() {
		return shared.NewDomainError("query", "GetMentees", shared.ErrInvalidID, "invalid mentor account id")
	}
	return nil
}

// MenteeDTO is one learner connected to the mentor.
type MenteeDTO struct {
	// ProfileID and DisplayName identify the learner.
	ProfileID   string `json:"profile_id"`
	DisplayName string `json:"display_name"`

	// Branch, Year and Term locate the learner in the program.
	Branch string `json:"branch"`
	Year   int    `json:"year"`
	Term   int    `json:"term"`

	// ConnectedAt is when the official edge was established.
	ConnectedAt time.Time `json:"connected_at"`
}

// PendingMenteeRequestDTO is one unanswered official request.
type PendingMenteeRequestDTO struct {
	// RequestID is the learner-side row id the mentor responds with.
	RequestID string `json:"request_id"`

	// LearnerProfileID and DisplayName identify the requester.
	LearnerProfileID string `json:"learner_profile_id"`
	DisplayName      string `json:"display_name"`

	// Message is the note attached to the request.
	Message string `json:"message,omitempty"`

	// RequestedAt is when the request was created.
	RequestedAt time.Time `json:"requested_at"`
}

// GetMenteesResult is the mentor's assembled view.
type GetMenteesResult struct {
	// MentorProfileID identifies the mentor.
	MentorProfileID string `json:"mentor_profile_id"`

	// Mentees holds learners with an active official edge.
	Mentees []MenteeDTO `json:"mentees"`

	// PendingRequests holds unanswered requests.
	PendingRequests []PendingMenteeRequestDTO `json:"pending_requests"`

	// GeneratedAt is when the view was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetMenteesHandler handles the GetMenteesQuery.
type GetMenteesHandler struct {
	learnerRepo learner.Repository
	mentorRepo  mentor.Repository
}

// NewGetMenteesHandler creates a new GetMenteesHandler.
func NewGetMenteesHandler(learnerRepo learner.Repository, mentorRepo mentor.Repository) *GetMenteesHandler {
	return &GetMenteesHandler{
		learnerRepo: learnerRepo,
		mentorRepo:  mentorRepo,
	}
}

// Handle executes the get mentees query.
func (h *GetMenteesHandler) Handle(ctx context.Context, query GetMenteesQuery) (*GetMenteesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	mentorProfile, err := h.mentorRepo.GetByAccountID(ctx, shared.AccountID(query.MentorAccountID))
	if err != nil {
		return nil, fmt.Errorf("get_mentees: mentor: %w", err)
	}

	connected, err := h.learnerRepo.FindByOfficialMentor(ctx, mentorProfile.ID)
	if err != nil {
		return nil, fmt.Errorf("get_mentees: mentees: %w", err)
	}
	pending, err := h.learnerRepo.FindByPendingOfficialRequest(ctx, mentorProfile.ID)
	if err != nil {
		return nil, fmt.Errorf("get_mentees: pending requests: %w", err)
	}

	result := &GetMenteesResult{
		MentorProfileID: string(mentorProfile.ID),
		Mentees:         make([]MenteeDTO, 0, len(connected)),
		PendingRequests: make([]PendingMenteeRequestDTO, 0, len(pending)),
		GeneratedAt:     time.Now().UTC(),
	}

	for _, p := range connected {
		edge := p.Ledger.ActiveOfficialEdge(mentorProfile.ID)
		if edge == nil {
			continue
		}
		result.Mentees = append(result.Mentees, MenteeDTO{
			ProfileID:   string(p.ID),
			DisplayName: p.DisplayName,
			Branch:      string(p.Branch),
			Year:        p.Year.Int(),
			Term:        p.Term.Int(),
			ConnectedAt: edge.ConnectedAt,
		})
	}

	for _, p := range pending {
		request := p.Ledger.PendingOfficialOutgoing(mentorProfile.ID)
		if request == nil {
			continue
		}
		result.PendingRequests = append(result.PendingRequests, PendingMenteeRequestDTO{
			RequestID:        request.ID,
			LearnerProfileID: string(p.ID),
			DisplayName:      p.DisplayName,
			Message:          request.Message,
			RequestedAt:      request.RequestedAt,
		})
	}

	return result, nil
}
