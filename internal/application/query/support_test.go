package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campus-connect/mentorship-hub/internal/domain/catalog"
	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/mentor"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

const subjProgramming = shared.SubjectID("computer-1-programming")

// readLearnerRepo is an in-memory learner store for read-side tests.
// Queries never write, so there is no revision bookkeeping here.
type readLearnerRepo struct {
	byID map[shared.ProfileID]*learner.Profile
}

func newReadLearnerRepo() *readLearnerRepo {
	return &readLearnerRepo{byID: make(map[shared.ProfileID]*learner.Profile)}
}

func (r *readLearnerRepo) put(p *learner.Profile) { r.byID[p.ID] = p }

func (r *readLearnerRepo) Create(_ context.Context, p *learner.Profile) error {
	r.byID[p.ID] = p
	return nil
}

func (r *readLearnerRepo) GetByID(_ context.Context, id shared.ProfileID) (*learner.Profile, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return p.Clone(), nil
}

func (r *readLearnerRepo) GetByAccountID(_ context.Context, accountID shared.AccountID) (*learner.Profile, error) {
	for _, p := range r.byID {
		if p.AccountID == accountID {
			return p.Clone(), nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *readLearnerRepo) Update(_ context.Context, p *learner.Profile) error {
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *readLearnerRepo) Delete(_ context.Context, id shared.ProfileID) error {
	delete(r.byID, id)
	return nil
}

func (r *readLearnerRepo) FindMentorCandidates(_ context.Context, branch shared.Branch, subjectID shared.SubjectID, exclude shared.ProfileID) ([]*learner.Profile, error) {
	out := make([]*learner.Profile, 0)
	for _, p := range r.byID {
		if p.ID != exclude && p.Branch == branch && p.HasStrongSubject(subjectID) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *readLearnerRepo) FindByOfficialMentor(_ context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	out := make([]*learner.Profile, 0)
	for _, p := range r.byID {
		if p.Ledger.ActiveOfficialEdge(mentorID) != nil {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *readLearnerRepo) FindByPendingOfficialRequest(_ context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	out := make([]*learner.Profile, 0)
	for _, p := range r.byID {
		if p.Ledger.PendingOfficialOutgoing(mentorID) != nil {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *readLearnerRepo) FindWithStalePeerRequests(_ context.Context, cutoff time.Time) ([]*learner.Profile, error) {
	out := make([]*learner.Profile, 0)
	for _, p := range r.byID {
		for _, req := range p.Ledger.PeerOutgoing {
			if req.IsPending() && req.RequestedAt.Before(cutoff) {
				out = append(out, p.Clone())
				break
			}
		}
	}
	return out, nil
}

func (r *readLearnerRepo) List(_ context.Context, page shared.Pagination) ([]*learner.Profile, error) {
	all := make([]*learner.Profile, 0, len(r.byID))
	for _, p := range r.byID {
		all = append(all, p.Clone())
	}
	start := page.Offset()
	if start >= len(all) {
		return nil, nil
	}
	end := start + page.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// readMentorRepo is an in-memory mentor store.
type readMentorRepo struct {
	byID map[shared.ProfileID]*mentor.Profile
}

func newReadMentorRepo() *readMentorRepo {
	return &readMentorRepo{byID: make(map[shared.ProfileID]*mentor.Profile)}
}

func (r *readMentorRepo) Create(_ context.Context, p *mentor.Profile) error {
	r.byID[p.ID] = p
	return nil
}

func (r *readMentorRepo) GetByID(_ context.Context, id shared.ProfileID) (*mentor.Profile, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrMentorNotFound
	}
	return p.Clone(), nil
}

func (r *readMentorRepo) GetByAccountID(_ context.Context, accountID shared.AccountID) (*mentor.Profile, error) {
	for _, p := range r.byID {
		if p.AccountID == accountID {
			return p.Clone(), nil
		}
	}
	return nil, shared.ErrMentorNotFound
}

func (r *readMentorRepo) Update(_ context.Context, p *mentor.Profile) error {
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *readMentorRepo) Delete(_ context.Context, id shared.ProfileID) error {
	delete(r.byID, id)
	return nil
}

func (r *readMentorRepo) ListActive(_ context.Context, page shared.Pagination) ([]*mentor.Profile, error) {
	out := make([]*mentor.Profile, 0)
	for _, p := range r.byID {
		if p.Active {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// staticCatalog serves a fixed subject set.
type staticCatalog struct {
	subjects map[shared.SubjectID]catalog.Subject
}

func testCatalog() *staticCatalog {
	c := &staticCatalog{subjects: make(map[shared.SubjectID]catalog.Subject)}
	for _, s := range []catalog.Subject{
		{ID: subjProgramming, Branch: "computer", Term: 1, Name: "Programming Basics"},
		{ID: "computer-2-algorithms", Branch: "computer", Term: 2, Name: "Algorithms"},
	} {
		c.subjects[s.ID] = s
	}
	return c
}

func (c *staticCatalog) GetSubject(_ context.Context, id shared.SubjectID) (catalog.Subject, error) {
	s, ok := c.subjects[id]
	if !ok {
		return catalog.Subject{}, shared.ErrSubjectNotFound
	}
	return s, nil
}

func (c *staticCatalog) ListSubjects(_ context.Context, branch shared.Branch, upToTerm shared.Term) ([]catalog.Subject, error) {
	out := make([]catalog.Subject, 0)
	for _, s := range c.subjects {
		if s.Branch == branch && s.Term.Int() <= upToTerm.Int() {
			out = append(out, s)
		}
	}
	return out, nil
}

// newLearner builds a complete computer-branch learner.
func newLearner(name string, year, term int) *learner.Profile {
	p, err := learner.NewProfile(learner.NewProfileParams{
		AccountID:   shared.AccountID(uuid.NewString()),
		DisplayName: name,
		Branch:      "computer",
		Year:        shared.Year(year),
		Term:        shared.Term(term),
	})
	if err != nil {
		panic(err)
	}
	if err := p.AddStrongSubject(subjProgramming, shared.Term(1), shared.Confidence(3)); err != nil {
		panic(err)
	}
	p.RecomputeCompleted()
	return p
}

// newPeerMentorCandidate builds an accepting candidate with the given
// confidence and capacity.
func newPeerMentorCandidate(name string, confidence, maxMentees int) *learner.Profile {
	p := newLearner(name, 2, 3)
	p.StrongSubjects[0].Confidence = shared.Confidence(confidence)
	if err := p.UpdatePreferences(learner.MentorPreferences{
		AcceptingNewMentees: true,
		MaxMentees:          maxMentees,
		Mode:                shared.ModeHybrid,
	}); err != nil {
		panic(err)
	}
	return p
}

func newOfficialMentor(name string) *mentor.Profile {
	p, err := mentor.NewProfile(mentor.NewProfileParams{
		AccountID:       shared.AccountID(uuid.NewString()),
		DisplayName:     name,
		Designation:     "Senior Engineer",
		SkillTags:       []string{"go"},
		YearsExperience: 7,
	})
	if err != nil {
		panic(err)
	}
	return p
}
