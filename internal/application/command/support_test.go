package command

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-connect/mentorship-hub/internal/domain/catalog"
	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/mentor"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"

	"github.com/campus-connect/mentorship-hub/internal/application/mirror"
)

// memLearnerRepo is an in-memory learner.Repository with the same revision
// CAS semantics as the postgres implementation.
type memLearnerRepo struct {
	mu       sync.Mutex
	profiles map[shared.ProfileID]*learner.Profile

	// failUpdateFor makes Update fail once per listed profile id, to force
	// the mirror writer down its compensation path.
	failUpdateFor map[shared.ProfileID]error
}

func newMemLearnerRepo() *memLearnerRepo {
	return &memLearnerRepo{
		profiles:      make(map[shared.ProfileID]*learner.Profile),
		failUpdateFor: make(map[shared.ProfileID]error),
	}
}

func (r *memLearnerRepo) Create(_ context.Context, p *learner.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.AccountID == p.AccountID {
			return shared.ErrLearnerAlreadyExists
		}
	}
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *memLearnerRepo) GetByID(_ context.Context, id shared.ProfileID) (*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return p.Clone(), nil
}

func (r *memLearnerRepo) GetByAccountID(_ context.Context, accountID shared.AccountID) (*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.AccountID == accountID {
			return p.Clone(), nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *memLearnerRepo) Update(_ context.Context, p *learner.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failUpdateFor[p.ID]; ok {
		delete(r.failUpdateFor, p.ID)
		return err
	}
	stored, ok := r.profiles[p.ID]
	if !ok {
		return shared.ErrLearnerNotFound
	}
	if stored.Revision != p.Revision {
		return shared.ErrConcurrentModification
	}
	p.Revision++
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *memLearnerRepo) Delete(_ context.Context, id shared.ProfileID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return shared.ErrLearnerNotFound
	}
	delete(r.profiles, id)
	return nil
}

func (r *memLearnerRepo) FindMentorCandidates(_ context.Context, branch shared.Branch, subjectID shared.SubjectID, exclude shared.ProfileID) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*learner.Profile, 0)
	for _, p := range r.profiles {
		if p.ID != exclude && p.Branch.Equals(branch) && p.HasStrongSubject(subjectID) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *memLearnerRepo) FindByOfficialMentor(_ context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*learner.Profile, 0)
	for _, p := range r.profiles {
		if p.Ledger.ActiveOfficialEdge(mentorID) != nil {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *memLearnerRepo) FindByPendingOfficialRequest(_ context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*learner.Profile, 0)
	for _, p := range r.profiles {
		if p.Ledger.PendingOfficialOutgoing(mentorID) != nil {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *memLearnerRepo) FindWithStalePeerRequests(_ context.Context, cutoff time.Time) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*learner.Profile, 0)
	for _, p := range r.profiles {
		for i := range p.Ledger.PeerOutgoing {
			row := &p.Ledger.PeerOutgoing[i]
			if row.IsPending() && row.RequestedAt.Before(cutoff) {
				out = append(out, p.Clone())
				break
			}
		}
	}
	return out, nil
}

func (r *memLearnerRepo) List(_ context.Context, page shared.Pagination) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*learner.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		all = append(all, p.Clone())
	}
	start := page.Offset()
	if start >= len(all) {
		return []*learner.Profile{}, nil
	}
	end := start + page.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// memMentorRepo is an in-memory mentor.Repository.
type memMentorRepo struct {
	mu       sync.Mutex
	profiles map[shared.ProfileID]*mentor.Profile
}

func newMemMentorRepo() *memMentorRepo {
	return &memMentorRepo{profiles: make(map[shared.ProfileID]*mentor.Profile)}
}

func (r *memMentorRepo) Create(_ context.Context, p *mentor.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.AccountID == p.AccountID {
			return shared.ErrMentorAlreadyExists
		}
	}
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *memMentorRepo) GetByID(_ context.Context, id shared.ProfileID) (*mentor.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, shared.ErrMentorNotFound
	}
	return p.Clone(), nil
}

func (r *memMentorRepo) GetByAccountID(_ context.Context, accountID shared.AccountID) (*mentor.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.AccountID == accountID {
			return p.Clone(), nil
		}
	}
	return nil, shared.ErrMentorNotFound
}

func (r *memMentorRepo) Update(_ context.Context, p *mentor.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.profiles[p.ID]
	if !ok {
		return shared.ErrMentorNotFound
	}
	if stored.Revision != p.Revision {
		return shared.ErrConcurrentModification
	}
	p.Revision++
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *memMentorRepo) Delete(_ context.Context, id shared.ProfileID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, id)
	return nil
}

func (r *memMentorRepo) ListActive(_ context.Context, _ shared.Pagination) ([]*mentor.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*mentor.Profile, 0)
	for _, p := range r.profiles {
		if p.Active {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// memCatalog is an in-memory subject catalog.
type memCatalog struct {
	subjects map[shared.SubjectID]catalog.Subject
}

func newMemCatalog(subjects ...catalog.Subject) *memCatalog {
	c := &memCatalog{subjects: make(map[shared.SubjectID]catalog.Subject)}
	for _, s := range subjects {
		c.subjects[s.ID] = s
	}
	return c
}

func (c *memCatalog) GetSubject(_ context.Context, id shared.SubjectID) (catalog.Subject, error) {
	s, ok := c.subjects[id]
	if !ok {
		return catalog.Subject{}, shared.ErrSubjectNotFound
	}
	return s, nil
}

func (c *memCatalog) ListSubjects(_ context.Context, branch shared.Branch, upToTerm shared.Term) ([]catalog.Subject, error) {
	out := make([]catalog.Subject, 0)
	for _, s := range c.subjects {
		if s.Branch.Equals(branch) && s.Term <= upToTerm {
			out = append(out, s)
		}
	}
	return out, nil
}

// capturingPublisher records published events.
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.Event, 0)
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// ──────────────────────────── test fixtures ────────────────────────────

const subjProgramming = shared.SubjectID("computer-1-programming")

func testSubjects() *memCatalog {
	return newMemCatalog(
		catalog.Subject{ID: subjProgramming, Branch: "computer", Term: 1, Name: "Programming Basics"},
		catalog.Subject{ID: "computer-2-algorithms", Branch: "computer", Term: 2, Name: "Algorithms"},
		catalog.Subject{ID: "mechanical-1-statics", Branch: "mechanical", Term: 1, Name: "Statics"},
	)
}

func uuidString() string {
	return uuid.NewString()
}

// seedRequester creates a complete second-term learner who may request
// peer mentors.
func seedRequester(t testingT, repo *memLearnerRepo, name string) *learner.Profile {
	t.Helper()
	p, err := learner.NewProfile(learner.NewProfileParams{
		AccountID:   shared.AccountID(uuidString()),
		DisplayName: name,
		Branch:      "computer",
		Year:        1,
		Term:        2,
	})
	requireNoErr(t, err)
	requireNoErr(t, p.AddStrongSubject(subjProgramming, 1, 3))
	p.RecomputeCompleted()
	requireNoErr(t, repo.Create(context.Background(), p))
	return p
}

// seedMentor creates a complete second-year learner accepting mentees for
// the programming subject with the given cap.
func seedMentor(t testingT, repo *memLearnerRepo, name string, maxMentees int) *learner.Profile {
	t.Helper()
	p, err := learner.NewProfile(learner.NewProfileParams{
		AccountID:   shared.AccountID(uuidString()),
		DisplayName: name,
		Branch:      "computer",
		Year:        2,
		Term:        3,
	})
	requireNoErr(t, err)
	requireNoErr(t, p.AddStrongSubject(subjProgramming, 1, 5))
	requireNoErr(t, p.UpdatePreferences(learner.MentorPreferences{
		AcceptingNewMentees: true,
		MaxMentees:          maxMentees,
		Mode:                shared.ModeHybrid,
	}))
	p.RecomputeCompleted()
	requireNoErr(t, repo.Create(context.Background(), p))
	return p
}

// seedOfficialMentor creates an active professional mentor profile.
func seedOfficialMentor(t testingT, repo *memMentorRepo, name string) *mentor.Profile {
	t.Helper()
	p, err := mentor.NewProfile(mentor.NewProfileParams{
		AccountID:       shared.AccountID(uuidString()),
		DisplayName:     name,
		Designation:     "Senior Engineer",
		SkillTags:       []string{"go"},
		YearsExperience: 6,
	})
	requireNoErr(t, err)
	requireNoErr(t, repo.Create(context.Background(), p))
	return p
}

// testingT is the subset of *testing.T the seed helpers need.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

func requireNoErr(t testingT, err error) {
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// testLogger discards output-free structured logs during tests.
func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: logger.LevelError})
}

func testMirrorWriter(repo learner.Repository) *mirror.Writer {
	return mirror.NewWriter(repo, testLogger())
}
