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
// GET LEDGER QUERY
// The learner's full mentorship view: every edge and request row with
// counterpart names resolved. The stored ledger keeps ids only, so names
// are looked up at read time and tolerate deleted counterparts.
// ══════════════════════════════════════════════════════════════════════════════

// deletedCounterpartName substitutes for counterparts that no longer exist.
const deletedCounterpartName = "Удалённый профиль"

// GetLedgerQuery identifies whose ledger to read.
type GetLedgerQuery struct {
	// AccountID is the account of the learner.
	AccountID string
}

// Validate validates the query.
func (q GetLedgerQuery) Validate() error {
	if !shared.AccountID(q.AccountID).IsValid() {
		return shared.NewDomainError("query", "GetLedger", shared.ErrInvalidID, "invalid account id")
	}
	return nil
}

// EdgeDTO is one relationship row with its counterpart resolved.
type EdgeDTO struct {
	// EdgeID is this side's row id.
	EdgeID string `json:"edge_id"`

	// Kind is peer_mentor, peer_mentee or official.
	Kind string `json:"kind"`

	// CounterpartID and CounterpartName identify the other side.
	CounterpartID   string `json:"counterpart_id"`
	CounterpartName string `json:"counterpart_name"`

	// SubjectID is empty for official edges.
	SubjectID string `json:"subject_id,omitempty"`

	// ConnectedAt is when the relationship was established.
	ConnectedAt time.Time `json:"connected_at"`

	// Active reports whether the relationship is ongoing.
	Active bool `json:"active"`

	// Ratable reports whether this side may rate the edge right now.
	Ratable bool `json:"ratable"`

	// GivenScore is the score this side already gave (0 if none).
	GivenScore int `json:"given_score,omitempty"`
}

// RequestDTO is one request row with its counterpart resolved.
type RequestDTO struct {
	// RequestID is this side's row id.
	RequestID string `json:"request_id"`

	// CounterpartID and CounterpartName identify the other party.
	CounterpartID   string `json:"counterpart_id"`
	CounterpartName string `json:"counterpart_name"`

	// SubjectID is empty for official requests.
	SubjectID string `json:"subject_id,omitempty"`

	// Status is pending, accepted, rejected or expired.
	Status string `json:"status"`

	// Message is the optional note attached to the request.
	Message string `json:"message,omitempty"`

	// RequestedAt is when the request was created.
	RequestedAt time.Time `json:"requested_at"`
}

// GetLedgerResult is the assembled mentorship view.
type GetLedgerResult struct {
	// ProfileID identifies the learner.
	ProfileID string `json:"profile_id"`

	// DisplayName is the learner's name.
	DisplayName string `json:"display_name"`

	// ProfileCompleted is the derived completeness flag.
	ProfileCompleted bool `json:"profile_completed"`

	// Edge sections.
	PeerMentors   []EdgeDTO `json:"peer_mentors"`
	PeerMentees   []EdgeDTO `json:"peer_mentees"`
	OfficialEdges []EdgeDTO `json:"official_edges"`

	// Request sections.
	IncomingRequests []RequestDTO `json:"incoming_requests"`
	OutgoingRequests []RequestDTO `json:"outgoing_requests"`
	OfficialRequests []RequestDTO `json:"official_requests"`

	// PendingRatable lists edge ids this side may rate right now.
	PendingRatable []string `json:"pending_ratable,omitempty"`

	// AverageRatingReceived aggregates scores counterparts gave this
	// learner (0 when nobody has rated).
	AverageRatingReceived float64 `json:"average_rating_received"`

	// GeneratedAt is when the view was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLedgerHandler handles the GetLedgerQuery.
type GetLedgerHandler struct {
	learnerRepo learner.Repository
	mentorRepo  mentor.Repository
}

// NewGetLedgerHandler creates a new GetLedgerHandler.
func NewGetLedgerHandler(learnerRepo learner.Repository, mentorRepo mentor.Repository) *GetLedgerHandler {
	return &GetLedgerHandler{
		learnerRepo: learnerRepo,
		mentorRepo:  mentorRepo,
	}
}

// Handle executes the get ledger query.
func (h *GetLedgerHandler) Handle(ctx context.Context, query GetLedgerQuery) (*GetLedgerResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.learnerRepo.GetByAccountID(ctx, shared.AccountID(query.AccountID))
	if err != nil {
		return nil, fmt.Errorf("get_ledger: profile: %w", err)
	}

	now := time.Now()
	names := newNameCache(h.learnerRepo, h.mentorRepo)

	result := &GetLedgerResult{
		ProfileID:        string(profile.ID),
		DisplayName:      profile.DisplayName,
		ProfileCompleted: profile.ProfileCompleted,
		PeerMentors:      h.edgeSection(ctx, names, profile.Ledger.PeerMentorEdges, now, false),
		PeerMentees:      h.edgeSection(ctx, names, profile.Ledger.PeerMenteeEdges, now, false),
		OfficialEdges:    h.edgeSection(ctx, names, profile.Ledger.OfficialEdges, now, true),
		IncomingRequests: h.requestSection(ctx, names, profile.Ledger.PeerIncoming, false),
		OutgoingRequests: h.requestSection(ctx, names, profile.Ledger.PeerOutgoing, false),
		OfficialRequests: h.requestSection(ctx, names, profile.Ledger.OfficialOutgoing, true),
		GeneratedAt:      now.UTC(),
	}

	for _, section := range [][]EdgeDTO{result.PeerMentors, result.PeerMentees, result.OfficialEdges} {
		for _, e := range section {
			if e.Ratable {
				result.PendingRatable = append(result.PendingRatable, e.EdgeID)
			}
		}
	}

	received, err := h.ratingsReceived(ctx, profile)
	if err != nil {
		return nil, err
	}
	result.AverageRatingReceived = received

	return result, nil
}

func (h *GetLedgerHandler) edgeSection(ctx context.Context, names *nameCache, edges []learner.Edge, now time.Time, official bool) []EdgeDTO {
	out := make([]EdgeDTO, 0, len(edges))
	for _, e := range edges {
		dto := EdgeDTO{
			EdgeID:          e.ID,
			Kind:            string(e.Kind),
			CounterpartID:   string(e.CounterpartID),
			CounterpartName: names.resolve(ctx, e.CounterpartID, official),
			SubjectID:       string(e.SubjectID),
			ConnectedAt:     e.ConnectedAt,
			Active:          e.Active,
			Ratable:         e.IsRatable(now),
		}
		if e.Rating != nil {
			dto.GivenScore = e.Rating.Score.Int()
		}
		out = append(out, dto)
	}
	return out
}

func (h *GetLedgerHandler) requestSection(ctx context.Context, names *nameCache, rows []learner.Request, official bool) []RequestDTO {
	out := make([]RequestDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, RequestDTO{
			RequestID:       r.ID,
			CounterpartID:   string(r.CounterpartID),
			CounterpartName: names.resolve(ctx, r.CounterpartID, official),
			SubjectID:       string(r.SubjectID),
			Status:          string(r.Status),
			Message:         r.Message,
			RequestedAt:     r.RequestedAt,
		})
	}
	return out
}

// ratingsReceived collects scores counterparts gave this learner. The
// rating lives on the rater's edge, so each peer counterpart is loaded
// and its edge pointing back inspected.
func (h *GetLedgerHandler) ratingsReceived(ctx context.Context, profile *learner.Profile) (float64, error) {
	scores := make([]shared.Score, 0)
	peerEdges := make([]learner.Edge, 0, len(profile.Ledger.PeerMentorEdges)+len(profile.Ledger.PeerMenteeEdges))
	peerEdges = append(peerEdges, profile.Ledger.PeerMentorEdges...)
	peerEdges = append(peerEdges, profile.Ledger.PeerMenteeEdges...)

	for _, e := range peerEdges {
		counterpart, err := h.learnerRepo.GetByID(ctx, e.CounterpartID)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			return 0, fmt.Errorf("get_ledger: load counterpart: %w", err)
		}
		backEdges := append(append([]learner.Edge{}, counterpart.Ledger.PeerMentorEdges...),
			counterpart.Ledger.PeerMenteeEdges...)
		for _, back := range backEdges {
			// Ratings survive deactivation, so inactive edges count too.
			if back.CounterpartID == profile.ID && back.Rating != nil && back.Mirrors(&e) {
				scores = append(scores, back.Rating.Score)
			}
		}
	}
	return shared.AverageScore(scores), nil
}

// nameCache memoizes counterpart name lookups within one query.
type nameCache struct {
	learners learner.Repository
	mentors  mentor.Repository
	seen     map[shared.ProfileID]string
}

func newNameCache(learners learner.Repository, mentors mentor.Repository) *nameCache {
	return &nameCache{
		learners: learners,
		mentors:  mentors,
		seen:     make(map[shared.ProfileID]string),
	}
}

func (c *nameCache) resolve(ctx context.Context, id shared.ProfileID, official bool) string {
	if name, ok := c.seen[id]; ok {
		return name
	}
	name := deletedCounterpartName
	if official {
		if p, err := c.mentors.GetByID(ctx, id); err == nil {
			name = p.DisplayName
		}
	} else {
		if p, err := c.learners.GetByID(ctx, id); err == nil {
			name = p.DisplayName
		}
	}
	c.seen[id] = name
	return name
}
