package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

func TestUpdatePreferences(t *testing.T) {
	ctx := context.Background()

	t.Run("updates capacity mode and subjects", func(t *testing.T) {
		repo := newMemLearnerRepo()
		pub := &capturingPublisher{}
		profile := seedRequester(t, repo, "Dias")
		// Third-term learner so a second-term subject counts as past.
		profile.Term = 3
		profile.Year = 2
		require.NoError(t, repo.Update(ctx, profile))

		h := NewUpdatePreferencesHandler(repo, testSubjects(), pub)
		result, err := h.Handle(ctx, UpdatePreferencesCommand{
			AccountID:           string(profile.AccountID),
			AcceptingNewMentees: true,
			MaxMentees:          5,
			Mode:                "online",
			TimeSlots:           []SlotInput{{Weekday: 2, From: "18:00", To: "20:00"}},
			AddSubjects:         []SubjectInput{{SubjectID: "computer-2-algorithms", Confidence: 4}},
		})
		require.NoError(t, err)
		assert.True(t, result.ProfileCompleted)
		assert.Equal(t, 2, result.StrongSubjects)

		stored, _ := repo.GetByAccountID(ctx, profile.AccountID)
		assert.True(t, stored.Preferences.AcceptingNewMentees)
		assert.Equal(t, 5, stored.Preferences.MaxMentees)
		assert.Equal(t, shared.Confidence(4), stored.StrongSubjectConfidence("computer-2-algorithms"))
		assert.Len(t, pub.byType(shared.EventProfileUpdated), 1)
	})

	t.Run("subject from another branch is rejected", func(t *testing.T) {
		repo := newMemLearnerRepo()
		profile := seedRequester(t, repo, "Dias")

		h := NewUpdatePreferencesHandler(repo, testSubjects(), &capturingPublisher{})
		_, err := h.Handle(ctx, UpdatePreferencesCommand{
			AccountID:   string(profile.AccountID),
			MaxMentees:  3,
			Mode:        "hybrid",
			AddSubjects: []SubjectInput{{SubjectID: "mechanical-1-statics", Confidence: 3}},
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("removing an unknown subject is not found", func(t *testing.T) {
		repo := newMemLearnerRepo()
		profile := seedRequester(t, repo, "Dias")

		h := NewUpdatePreferencesHandler(repo, testSubjects(), &capturingPublisher{})
		_, err := h.Handle(ctx, UpdatePreferencesCommand{
			AccountID:      string(profile.AccountID),
			MaxMentees:     3,
			Mode:           "hybrid",
			RemoveSubjects: []string{"computer-2-algorithms"},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("capacity outside limits is rejected", func(t *testing.T) {
		repo := newMemLearnerRepo()
		profile := seedRequester(t, repo, "Dias")

		h := NewUpdatePreferencesHandler(repo, testSubjects(), &capturingPublisher{})
		_, err := h.Handle(ctx, UpdatePreferencesCommand{
			AccountID:  string(profile.AccountID),
			MaxMentees: 50,
			Mode:       "hybrid",
		})
		assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	})

	// Lowering the cap to the current load keeps existing edges intact and
	// only blocks new requests.
	t.Run("cap at current load is allowed", func(t *testing.T) {
		repo := newMemLearnerRepo()
		mentorSide, _ := connectPeers(t, repo)

		h := NewUpdatePreferencesHandler(repo, testSubjects(), &capturingPublisher{})
		_, err := h.Handle(ctx, UpdatePreferencesCommand{
			AccountID:           string(mentorSide.AccountID),
			AcceptingNewMentees: true,
			MaxMentees:          1,
			Mode:                "hybrid",
		})
		require.NoError(t, err)

		stored, _ := repo.GetByID(ctx, mentorSide.ID)
		require.Len(t, stored.Ledger.PeerMenteeEdges, 1)
		assert.True(t, stored.Ledger.PeerMenteeEdges[0].Active)
	})
}
