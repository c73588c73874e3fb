package mentor

import (
	"context"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// Repository defines persistence operations for professional mentor
// profiles. Mentors hold no relationship state, so the interface is a
// plain CRUD surface; Update carries the same revision CAS contract as
// the learner repository.
type Repository interface {
	// Create persists a new mentor profile.
	// Returns shared.ErrAlreadyExists if the account already has one.
	Create(ctx context.Context, profile *Profile) error

	// GetByID fetches a mentor profile by its ID.
	// Returns shared.ErrNotFound if missing.
	GetByID(ctx context.Context, id shared.ProfileID) (*Profile, error)

	// GetByAccountID fetches the mentor profile owned by an account.
	GetByAccountID(ctx context.Context, accountID shared.AccountID) (*Profile, error)

	// Update saves the profile with a revision CAS.
	Update(ctx context.Context, profile *Profile) error

	// Delete removes the mentor profile. Official edges held by learners
	// keep the dangling reference until they end the relationship.
	Delete(ctx context.Context, id shared.ProfileID) error

	// ListActive pages through active mentor profiles (discovery).
	ListActive(ctx context.Context, page shared.Pagination) ([]*Profile, error)
}
