package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

func TestRegisterLearner(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an incomplete profile without subjects", func(t *testing.T) {
		repo := newMemLearnerRepo()
		accountID := uuidString()

		h := NewRegisterLearnerHandler(repo)
		result, err := h.Handle(ctx, RegisterLearnerCommand{
			AccountID:   accountID,
			DisplayName: "Dias Nurlanov",
			Branch:      "computer",
			Year:        1,
			Term:        2,
		})
		require.NoError(t, err)
		assert.False(t, result.ProfileCompleted)

		stored, err := repo.GetByAccountID(ctx, shared.AccountID(accountID))
		require.NoError(t, err)
		assert.Equal(t, result.ProfileID, string(stored.ID))
		assert.False(t, stored.Preferences.AcceptingNewMentees, "mentoring starts opted out")
	})

	t.Run("year and term must agree", func(t *testing.T) {
		repo := newMemLearnerRepo()

		h := NewRegisterLearnerHandler(repo)
		_, err := h.Handle(ctx, RegisterLearnerCommand{
			AccountID:   uuidString(),
			DisplayName: "Dias Nurlanov",
			Branch:      "computer",
			Year:        1,
			Term:        5,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("malformed branch is rejected", func(t *testing.T) {
		repo := newMemLearnerRepo()

		// Branch validation is format-level: lowercase letters and spaces.
		// Membership in the branch catalog is enforced where subjects are
		// resolved, not at registration.
		h := NewRegisterLearnerHandler(repo)
		_, err := h.Handle(ctx, RegisterLearnerCommand{
			AccountID:   uuidString(),
			DisplayName: "Dias Nurlanov",
			Branch:      "42 Computer",
			Year:        1,
			Term:        2,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidFormat)
	})
}

func TestRegisterMentor(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active mentor profile", func(t *testing.T) {
		repo := newMemMentorRepo()
		accountID := uuidString()

		h := NewRegisterMentorHandler(repo)
		result, err := h.Handle(ctx, RegisterMentorCommand{
			AccountID:       accountID,
			DisplayName:     "Bauyrzhan Seitov",
			Designation:     "Staff Engineer",
			SkillTags:       []string{"Go", "PostgreSQL"},
			YearsExperience: 8,
			Bio:             "Десять лет в распределённых системах",
			Availability:    []SlotInput{{Weekday: 3, From: "19:00", To: "21:00"}},
		})
		require.NoError(t, err)

		stored, err := repo.GetByAccountID(ctx, shared.AccountID(accountID))
		require.NoError(t, err)
		assert.Equal(t, result.ProfileID, string(stored.ID))
		assert.True(t, stored.Active)
		assert.True(t, stored.HasSkillTag("go"), "tags are normalized to lowercase")
	})

	t.Run("invalid availability slot is rejected", func(t *testing.T) {
		repo := newMemMentorRepo()

		h := NewRegisterMentorHandler(repo)
		_, err := h.Handle(ctx, RegisterMentorCommand{
			AccountID:       uuidString(),
			DisplayName:     "Bauyrzhan Seitov",
			SkillTags:       []string{"go"},
			YearsExperience: 8,
			Availability:    []SlotInput{{Weekday: 3, From: "21:00", To: "19:00"}},
		})
		assert.Error(t, err)
	})
}
