package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

// profileRepo is an in-memory learner repository with scripted Update
// failures, mirroring the revision CAS of the real repository.
type profileRepo struct {
	mu       sync.Mutex
	byID     map[shared.ProfileID]*learner.Profile
	outcomes map[shared.ProfileID][]error
}

func newProfileRepo() *profileRepo {
	return &profileRepo{
		byID:     make(map[shared.ProfileID]*learner.Profile),
		outcomes: make(map[shared.ProfileID][]error),
	}
}

// scriptUpdates queues Update outcomes for a profile; nil means succeed.
func (r *profileRepo) scriptUpdates(id shared.ProfileID, outcomes ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[id] = append(r.outcomes[id], outcomes...)
}

func (r *profileRepo) Create(_ context.Context, p *learner.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; ok {
		return shared.ErrLearnerAlreadyExists
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *profileRepo) GetByID(_ context.Context, id shared.ProfileID) (*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return stored.Clone(), nil
}

func (r *profileRepo) GetByAccountID(_ context.Context, accountID shared.AccountID) (*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.AccountID == accountID {
			return p.Clone(), nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *profileRepo) Update(_ context.Context, p *learner.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if queue := r.outcomes[p.ID]; len(queue) > 0 {
		outcome := queue[0]
		r.outcomes[p.ID] = queue[1:]
		if outcome != nil {
			return outcome
		}
	}

	stored, ok := r.byID[p.ID]
	if !ok {
		return shared.ErrLearnerNotFound
	}
	if stored.Revision != p.Revision {
		return shared.ErrConcurrentModification
	}
	p.Revision++
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *profileRepo) Delete(_ context.Context, id shared.ProfileID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return shared.ErrLearnerNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *profileRepo) FindMentorCandidates(_ context.Context, branch shared.Branch, subjectID shared.SubjectID, exclude shared.ProfileID) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*learner.Profile, 0)
	for _, p := range r.byID {
		if p.ID != exclude && p.Branch == branch && p.HasStrongSubject(subjectID) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *profileRepo) FindByOfficialMentor(_ context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*learner.Profile, 0)
	for _, p := range r.byID {
		if p.Ledger.ActiveOfficialEdge(mentorID) != nil {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *profileRepo) FindByPendingOfficialRequest(_ context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*learner.Profile, 0)
	for _, p := range r.byID {
		if p.Ledger.PendingOfficialOutgoing(mentorID) != nil {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *profileRepo) FindWithStalePeerRequests(_ context.Context, cutoff time.Time) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*learner.Profile, 0)
	for _, p := range r.byID {
		if hasStalePending(p.Ledger.PeerOutgoing, cutoff) || hasStalePending(p.Ledger.PeerIncoming, cutoff) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func hasStalePending(requests []learner.Request, cutoff time.Time) bool {
	for _, req := range requests {
		if req.IsPending() && req.RequestedAt.Before(cutoff) {
			return true
		}
	}
	return false
}

func (r *profileRepo) List(_ context.Context, page shared.Pagination) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.Event, len(p.events))
	copy(out, p.events)
	return out
}

// seedProfile stores a minimal complete learner profile.
func seedProfile(r *profileRepo, name string) *learner.Profile {
	p, err := learner.NewProfile(learner.NewProfileParams{
		AccountID:   shared.AccountID(uuid.NewString()),
		DisplayName: name,
		Branch:      "computer",
		Year:        shared.Year(2),
		Term:        shared.Term(3),
	})
	if err != nil {
		panic(err)
	}
	if err := p.AddStrongSubject("computer-1-programming", shared.Term(1), shared.Confidence(4)); err != nil {
		panic(err)
	}
	if err := r.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

// saveProfile persists a locally mutated profile, failing loudly.
func saveProfile(r *profileRepo, p *learner.Profile) {
	if err := r.Update(context.Background(), p); err != nil {
		panic(err)
	}
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Level: logger.LevelError})
}
