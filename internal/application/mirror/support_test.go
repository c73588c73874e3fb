package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

// ledgerRepo is an in-memory learner repository with scripted Update
// failures. Each profile has a FIFO of outcomes: nil means succeed, an
// error is returned as-is; an empty queue always succeeds. Successful
// updates enforce the revision CAS like the real repository.
type ledgerRepo struct {
	mu       sync.Mutex
	byID     map[shared.ProfileID]*learner.Profile
	outcomes map[shared.ProfileID][]error
}

func newLedgerRepo() *ledgerRepo {
	return &ledgerRepo{
		byID:     make(map[shared.ProfileID]*learner.Profile),
		outcomes: make(map[shared.ProfileID][]error),
	}
}

// scriptUpdates queues Update outcomes for a profile.
func (r *ledgerRepo) scriptUpdates(id shared.ProfileID, outcomes ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[id] = append(r.outcomes[id], outcomes...)
}

func (r *ledgerRepo) Create(_ context.Context, p *learner.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; ok {
		return shared.ErrLearnerAlreadyExists
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *ledgerRepo) GetByID(_ context.Context, id shared.ProfileID) (*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return stored.Clone(), nil
}

func (r *ledgerRepo) GetByAccountID(_ context.Context, accountID shared.AccountID) (*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.AccountID == accountID {
			return p.Clone(), nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *ledgerRepo) Update(_ context.Context, p *learner.Profile) error {
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

func (r *ledgerRepo) Delete(_ context.Context, id shared.ProfileID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return shared.ErrLearnerNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *ledgerRepo) FindMentorCandidates(_ context.Context, branch shared.Branch, subjectID shared.SubjectID, exclude shared.ProfileID) ([]*learner.Profile, error) {
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

func (r *ledgerRepo) FindByOfficialMentor(_ context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
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

func (r *ledgerRepo) FindByPendingOfficialRequest(_ context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
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

func (r *ledgerRepo) FindWithStalePeerRequests(_ context.Context, cutoff time.Time) ([]*learner.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *ledgerRepo) List(_ context.Context, page shared.Pagination) ([]*learner.Profile, error) {
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

// seedProfile stores a minimal complete learner profile.
func seedProfile(r *ledgerRepo, name string) *learner.Profile {
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

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Level: logger.LevelError})
}
