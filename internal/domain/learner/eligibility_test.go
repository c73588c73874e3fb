package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// mentorProfile builds a complete mentoring learner: branch "computer",
// year 2 / term 3, one strong subject, accepting with the given cap.
func mentorProfile(t *testing.T, maxMentees int) *Profile {
	t.Helper()
	p, err := NewProfile(validParams())
	require.NoError(t, err)
	require.NoError(t, p.AddStrongSubject("computer-1-programming", 1, 4))
	require.NoError(t, p.UpdatePreferences(MentorPreferences{
		AcceptingNewMentees: true,
		MaxMentees:          maxMentees,
		Mode:                shared.ModeHybrid,
	}))
	p.RecomputeCompleted()
	return p
}

func TestCanAcceptMentee(t *testing.T) {
	p := mentorProfile(t, 2)
	assert.True(t, CanAcceptMentee(p))

	p.Ledger.AppendEdge(NewEdge(EdgePeerMentee, newID(), "computer-1-programming", time.Now()))
	assert.True(t, CanAcceptMentee(p), "1/2 still has headroom")

	p.Ledger.AppendEdge(NewEdge(EdgePeerMentee, newID(), "computer-1-programming", time.Now()))
	assert.False(t, CanAcceptMentee(p), "2/2 is full")

	p.Preferences.AcceptingNewMentees = false
	p.Ledger.PeerMenteeEdges[0].Deactivate(time.Now())
	assert.False(t, CanAcceptMentee(p), "flag off blocks regardless of headroom")
}

func TestCanRequestPeerMentor(t *testing.T) {
	t.Run("complete second-year learner may request", func(t *testing.T) {
		p := mentorProfile(t, 3)
		assert.NoError(t, CanRequestPeerMentor(p))
	})

	t.Run("incomplete profile", func(t *testing.T) {
		p, err := NewProfile(validParams())
		require.NoError(t, err)
		assert.ErrorIs(t, CanRequestPeerMentor(p), shared.ErrInvalidState)
	})

	t.Run("first term learner", func(t *testing.T) {
		params := validParams()
		params.Year = 1
		params.Term = 1
		p, err := NewProfile(params)
		require.NoError(t, err)
		p.ProfileCompleted = true
		assert.ErrorIs(t, CanRequestPeerMentor(p), shared.ErrInvalidState)
	})

	t.Run("fourth year learner barred as requester", func(t *testing.T) {
		params := validParams()
		params.Year = 4
		params.Term = 7
		p, err := NewProfile(params)
		require.NoError(t, err)
		require.NoError(t, p.AddStrongSubject("computer-5-networks", 5, 5))
		p.RecomputeCompleted()
		assert.ErrorIs(t, CanRequestPeerMentor(p), shared.ErrInvalidState)
	})
}

func TestCanBeRequestedAsMentor(t *testing.T) {
	subject := shared.SubjectID("computer-1-programming")

	requester, err := NewProfile(NewProfileParams{
		AccountID:   validParams().AccountID,
		DisplayName: "Dias",
		Branch:      "computer",
		Year:        1,
		Term:        2,
	})
	require.NoError(t, err)

	t.Run("eligible target", func(t *testing.T) {
		target := mentorProfile(t, 3)
		assert.NoError(t, CanBeRequestedAsMentor(target, requester, subject))
	})

	t.Run("self request", func(t *testing.T) {
		target := mentorProfile(t, 3)
		assert.ErrorIs(t, CanBeRequestedAsMentor(target, target, subject), shared.ErrInvalidInput)
	})

	t.Run("branch mismatch", func(t *testing.T) {
		target := mentorProfile(t, 3)
		target.Branch = "mechanical"
		assert.ErrorIs(t, CanBeRequestedAsMentor(target, requester, subject), shared.ErrConflict)
	})

	t.Run("subject not strong", func(t *testing.T) {
		target := mentorProfile(t, 3)
		assert.ErrorIs(t, CanBeRequestedAsMentor(target, requester, "computer-1-logic"), shared.ErrConflict)
	})

	t.Run("not accepting", func(t *testing.T) {
		target := mentorProfile(t, 3)
		target.Preferences.AcceptingNewMentees = false
		assert.ErrorIs(t, CanBeRequestedAsMentor(target, requester, subject), shared.ErrInvalidState)
	})

	t.Run("capacity full fails CapacityExceeded", func(t *testing.T) {
		target := mentorProfile(t, 1)
		target.Ledger.AppendEdge(NewEdge(EdgePeerMentee, newID(), subject, time.Now()))
		err := CanBeRequestedAsMentor(target, requester, subject)
		assert.ErrorIs(t, err, shared.ErrCapacityExceeded)
	})

	t.Run("fourth year target is a valid mentor", func(t *testing.T) {
		target := mentorProfile(t, 3)
		target.Year = 4
		target.Term = 8
		assert.NoError(t, CanBeRequestedAsMentor(target, requester, subject))
	})
}

func TestCheckAcceptCapacity(t *testing.T) {
	p := mentorProfile(t, 1)
	assert.NoError(t, CheckAcceptCapacity(p))

	p.Ledger.AppendEdge(NewEdge(EdgePeerMentee, newID(), "computer-1-programming", time.Now()))
	assert.ErrorIs(t, CheckAcceptCapacity(p), shared.ErrCapacityExceeded)
}
