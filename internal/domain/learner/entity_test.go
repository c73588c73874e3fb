package learner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

func validParams() NewProfileParams {
	return NewProfileParams{
		AccountID:   shared.AccountID(uuid.NewString()),
		DisplayName: "Aruzhan",
		Branch:      "computer",
		Year:        2,
		Term:        3,
	}
}

func TestNewProfile(t *testing.T) {
	t.Run("valid profile", func(t *testing.T) {
		p, err := NewProfile(validParams())
		require.NoError(t, err)
		assert.True(t, p.ID.IsValid())
		assert.False(t, p.ProfileCompleted, "no strong subjects yet")
		assert.False(t, p.Preferences.AcceptingNewMentees)
		assert.Equal(t, int64(0), p.Revision)
	})

	t.Run("year term consistency", func(t *testing.T) {
		tests := []struct {
			name    string
			year    shared.Year
			term    shared.Term
			wantErr bool
		}{
			{"year 1 term 1", 1, 1, false},
			{"year 1 term 2", 1, 2, false},
			{"year 2 term 3", 2, 3, false},
			{"year 2 term 5", 2, 5, true},
			{"year 4 term 8", 4, 8, false},
			{"year 4 term 6", 4, 6, true},
			{"year 1 term 3", 1, 3, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				params := validParams()
				params.Year = tt.year
				params.Term = tt.term
				_, err := NewProfile(params)
				if tt.wantErr {
					assert.ErrorIs(t, err, shared.ErrValidation)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("missing display name", func(t *testing.T) {
		params := validParams()
		params.DisplayName = ""
		_, err := NewProfile(params)
		assert.ErrorIs(t, err, shared.ErrEmptyValue)
	})
}

func TestProfile_AddStrongSubject(t *testing.T) {
	p, err := NewProfile(validParams()) // term 3
	require.NoError(t, err)

	t.Run("adds and completes profile", func(t *testing.T) {
		err := p.AddStrongSubject("computer-1-programming", 1, 4)
		require.NoError(t, err)
		p.RecomputeCompleted()
		assert.True(t, p.ProfileCompleted)
	})

	t.Run("duplicate subject rejected", func(t *testing.T) {
		err := p.AddStrongSubject("computer-1-programming", 1, 5)
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Len(t, p.StrongSubjects, 1)
	})

	t.Run("origin term must precede current", func(t *testing.T) {
		err := p.AddStrongSubject("computer-3-algorithms", 3, 4)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		err := p.AddStrongSubject("computer-2-data-structures", 2, 6)
		assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	})
}

func TestProfile_UpdatePreferences(t *testing.T) {
	p, err := NewProfile(validParams())
	require.NoError(t, err)

	t.Run("valid preferences", func(t *testing.T) {
		slot, err := shared.NewTimeSlot(time.Monday, "18:00", "20:00")
		require.NoError(t, err)

		err = p.UpdatePreferences(MentorPreferences{
			AcceptingNewMentees: true,
			MaxMentees:          5,
			Mode:                shared.ModeOnline,
			TimeSlots:           []shared.TimeSlot{slot},
		})
		require.NoError(t, err)
		assert.True(t, p.Preferences.AcceptingNewMentees)
		assert.Equal(t, 5, p.Preferences.MaxMentees)
	})

	t.Run("cap out of range", func(t *testing.T) {
		err := p.UpdatePreferences(MentorPreferences{MaxMentees: 21, Mode: shared.ModeOnline})
		assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	})

	t.Run("bad teaching mode", func(t *testing.T) {
		err := p.UpdatePreferences(MentorPreferences{MaxMentees: 3, Mode: "carrier pigeon"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestProfile_AdvanceTerm(t *testing.T) {
	p, err := NewProfile(validParams()) // year 2 term 3
	require.NoError(t, err)

	require.NoError(t, p.AdvanceTerm())
	assert.Equal(t, shared.Term(4), p.Term)
	assert.Equal(t, shared.Year(2), p.Year)

	require.NoError(t, p.AdvanceTerm())
	assert.Equal(t, shared.Term(5), p.Term)
	assert.Equal(t, shared.Year(3), p.Year, "term 5 crosses into year 3")

	p.Term = 8
	p.Year = 4
	err = p.AdvanceTerm()
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestProfile_Clone(t *testing.T) {
	p, err := NewProfile(validParams())
	require.NoError(t, err)
	require.NoError(t, p.AddStrongSubject("computer-1-programming", 1, 4))
	p.Ledger.AppendEdge(NewEdge(EdgePeerMentee, shared.ProfileID(uuid.NewString()), "computer-1-programming", time.Now()))

	clone := p.Clone()
	clone.StrongSubjects[0].Confidence = 1
	clone.Ledger.PeerMenteeEdges[0].Active = false

	assert.Equal(t, shared.Confidence(4), p.StrongSubjects[0].Confidence)
	assert.True(t, p.Ledger.PeerMenteeEdges[0].Active)
}
