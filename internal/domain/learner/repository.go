package learner

import (
	"context"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// Repository defines persistence operations for learner profiles.
//
// Update is a compare-and-swap on Profile.Revision: implementations must
// fail with shared.ErrConcurrentModification when the stored revision no
// longer matches, and bump the revision on success. There is no
// cross-profile transaction anywhere in this interface — mirrored writes
// are two independent Update calls by design.
type Repository interface {
	// Create persists a new learner profile.
	// Returns shared.ErrAlreadyExists if the account already has one.
	Create(ctx context.Context, profile *Profile) error

	// GetByID fetches a profile by its ID.
	// Returns shared.ErrNotFound if missing.
	GetByID(ctx context.Context, id shared.ProfileID) (*Profile, error)

	// GetByAccountID fetches the profile owned by an account.
	GetByAccountID(ctx context.Context, accountID shared.AccountID) (*Profile, error)

	// Update saves the profile with a revision CAS.
	Update(ctx context.Context, profile *Profile) error

	// Delete removes the profile and its ledger outright (profile reset).
	// Peer relationship history carried on the deleted side is lost.
	Delete(ctx context.Context, id shared.ProfileID) error

	// FindMentorCandidates lists profiles in the branch that list the
	// subject as strong, excluding the given profile.
	FindMentorCandidates(ctx context.Context, branch shared.Branch, subjectID shared.SubjectID, exclude shared.ProfileID) ([]*Profile, error)

	// FindByOfficialMentor lists learners holding an active official edge
	// to the given mentor profile. This is the professional mentor's only
	// view of their mentees: the official ledger has no stored mirror.
	FindByOfficialMentor(ctx context.Context, mentorID shared.ProfileID) ([]*Profile, error)

	// FindByPendingOfficialRequest lists learners with a pending official
	// request targeting the given mentor profile.
	FindByPendingOfficialRequest(ctx context.Context, mentorID shared.ProfileID) ([]*Profile, error)

	// FindWithStalePeerRequests lists profiles holding pending peer
	// requests older than the cutoff (request expiry job).
	FindWithStalePeerRequests(ctx context.Context, cutoff time.Time) ([]*Profile, error)

	// List pages through all profiles (reconciliation scan).
	List(ctx context.Context, page shared.Pagination) ([]*Profile, error)
}
