// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/catalog"
	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND MENTORS QUERY
// Lists peer-mentor candidates for a subject, filtered by the same
// eligibility predicates the request path enforces and ranked by
// confidence, mentee feedback and remaining capacity. A candidate shown
// here may still refuse or fill up before accepting: the accept-time
// recheck is the authority, this list is advisory.
// ══════════════════════════════════════════════════════════════════════════════

// defaultMentorLimit bounds the result when the caller does not say.
const defaultMentorLimit = 5

// maxMentorLimit is the hard cap on one page of candidates.
const maxMentorLimit = 20

// FindMentorsQuery contains the search parameters.
type FindMentorsQuery struct {
	// RequesterAccountID is the account of the learner looking for a mentor.
	RequesterAccountID string

	// SubjectID is the subject help is needed with.
	SubjectID string

	// Limit is the maximum number of candidates (default 5, cap 20).
	Limit int
}

// Validate validates the query and applies defaults.
func (q *FindMentorsQuery) Validate() error {
	if !shared.AccountID(q.RequesterAccountID).IsValid() {
		return shared.NewDomainError("query", "FindMentors", shared.ErrInvalidID, "invalid requester account id")
	}
	if !shared.SubjectID(q.SubjectID).IsValid() {
		return shared.NewDomainError("query", "FindMentors", shared.ErrInvalidID, "invalid subject id")
	}
	if q.Limit <= 0 {
		q.Limit = defaultMentorLimit
	}
	if q.Limit > maxMentorLimit {
		q.Limit = maxMentorLimit
	}
	return nil
}

// MentorCandidateDTO describes one ranked candidate.
type MentorCandidateDTO struct {
	// ProfileID identifies the candidate.
	ProfileID string `json:"profile_id"`

	// DisplayName is shown to the requester.
	DisplayName string `json:"display_name"`

	// Year and Term locate the candidate in the program.
	Year int `json:"year"`
	Term int `json:"term"`

	// Confidence is the candidate's self-assessed strength (1-5).
	Confidence int `json:"confidence"`

	// AverageRating aggregates ratings left by the candidate's mentees
	// (0 when nobody has rated yet).
	AverageRating float64 `json:"average_rating"`

	// RatingsCount is how many mentees have rated the candidate.
	RatingsCount int `json:"ratings_count"`

	// ActiveMentees and MaxMentees show current load.
	ActiveMentees int `json:"active_mentees"`
	MaxMentees    int `json:"max_mentees"`

	// Mode is the candidate's teaching mode.
	Mode string `json:"mode"`

	// Score is the internal ranking score.
	Score float64 `json:"score"`

	// ScoreBreakdown explains the score per factor.
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`
}

// FindMentorsResult contains the ranked candidate list.
type FindMentorsResult struct {
	// Candidates sorted by descending score.
	Candidates []MentorCandidateDTO `json:"candidates"`

	// TotalFound is the count before the limit was applied.
	TotalFound int `json:"total_found"`

	// SubjectID echoes the searched subject.
	SubjectID string `json:"subject_id"`

	// SubjectName is the catalog display name.
	SubjectName string `json:"subject_name"`

	// GeneratedAt is when the result was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Message is a user-facing note when the list is empty.
	Message string `json:"message,omitempty"`
}

// FindMentorsHandler handles the FindMentorsQuery.
type FindMentorsHandler struct {
	learnerRepo learner.Repository
	subjects    catalog.Catalog
}

// NewFindMentorsHandler creates a new FindMentorsHandler.
func NewFindMentorsHandler(learnerRepo learner.Repository, subjects catalog.Catalog) *FindMentorsHandler {
	return &FindMentorsHandler{
		learnerRepo: learnerRepo,
		subjects:    subjects,
	}
}

// Handle executes the find mentors query. Requesters who cannot open a
// peer request at all (incomplete, first term, fourth year) get the same
// error here instead of an unusable candidate list.
func (h *FindMentorsHandler) Handle(ctx context.Context, query FindMentorsQuery) (*FindMentorsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	requester, err := h.learnerRepo.GetByAccountID(ctx, shared.AccountID(query.RequesterAccountID))
	if err != nil {
		return nil, fmt.Errorf("find_mentors: requester: %w", err)
	}
	if err := learner.CanRequestPeerMentor(requester); err != nil {
		return nil, err
	}

	subjectID := shared.SubjectID(query.SubjectID)
	subject, err := h.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("find_mentors: subject lookup: %w", err)
	}
	if !subject.BelongsToBranch(requester.Branch) {
		return nil, shared.NewDomainError("query", "FindMentors", shared.ErrValidation,
			fmt.Sprintf("subject %s does not belong to branch %s", subjectID, requester.Branch))
	}

	found, err := h.learnerRepo.FindMentorCandidates(ctx, requester.Branch, subjectID, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("find_mentors: candidates: %w", err)
	}

	candidates := make([]MentorCandidateDTO, 0, len(found))
	for _, c := range found {
		if learner.CanBeRequestedAsMentor(c, requester, subjectID) != nil {
			continue
		}
		dto, err := h.buildCandidate(ctx, c, subjectID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, dto)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	result := &FindMentorsResult{
		TotalFound:  len(candidates),
		SubjectID:   query.SubjectID,
		SubjectName: subject.Name,
		GeneratedAt: time.Now().UTC(),
	}
	if len(candidates) > query.Limit {
		candidates = candidates[:query.Limit]
	}
	result.Candidates = candidates
	if len(candidates) == 0 {
		result.Message = "По этому предмету пока нет доступных менторов"
	}
	return result, nil
}

// buildCandidate enriches one eligible candidate with load and feedback.
// Ratings about a mentor live on the mentees' ledgers, so each active
// mentee is loaded and its mentor-side edge inspected.
func (h *FindMentorsHandler) buildCandidate(ctx context.Context, c *learner.Profile, subjectID shared.SubjectID) (MentorCandidateDTO, error) {
	scores := make([]shared.Score, 0)
	for _, edge := range c.Ledger.PeerMenteeEdges {
		mentee, err := h.learnerRepo.GetByID(ctx, edge.CounterpartID)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			return MentorCandidateDTO{}, fmt.Errorf("find_mentors: load mentee: %w", err)
		}
		for _, back := range mentee.Ledger.PeerMentorEdges {
			if back.CounterpartID == c.ID && back.Rating != nil {
				scores = append(scores, back.Rating.Score)
			}
		}
	}

	confidence := c.StrongSubjectConfidence(subjectID)
	active := c.Ledger.ActiveMenteeCount()
	avg := shared.AverageScore(scores)
	headroom := float64(c.Preferences.MaxMentees-active) / float64(c.Preferences.MaxMentees)

	breakdown := map[string]float64{
		"confidence": float64(confidence.Int()) * 2.0,
		"rating":     avg * 1.5,
		"headroom":   headroom * 3.0,
	}
	score := 0.0
	for _, v := range breakdown {
		score += v
	}

	return MentorCandidateDTO{
		ProfileID:      string(c.ID),
		DisplayName:    c.DisplayName,
		Year:           c.Year.Int(),
		Term:           c.Term.Int(),
		Confidence:     confidence.Int(),
		AverageRating:  avg,
		RatingsCount:   len(scores),
		ActiveMentees:  active,
		MaxMentees:     c.Preferences.MaxMentees,
		Mode:           string(c.Preferences.Mode),
		Score:          score,
		ScoreBreakdown: breakdown,
	}, nil
}
