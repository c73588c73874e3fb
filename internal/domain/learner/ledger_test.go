package learner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

func newID() shared.ProfileID {
	return shared.ProfileID(uuid.NewString())
}

func TestEdge_Rate(t *testing.T) {
	now := time.Now()
	counterpart := newID()

	t.Run("age gate at six days fails, at seven succeeds", func(t *testing.T) {
		edge := NewEdge(EdgePeerMentor, counterpart, "computer-1-programming", now.Add(-6*24*time.Hour))
		err := edge.Rate(5, "great mentor", now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Nil(t, edge.Rating)

		edge = NewEdge(EdgePeerMentor, counterpart, "computer-1-programming", now.Add(-7*24*time.Hour))
		err = edge.Rate(5, "great mentor", now)
		require.NoError(t, err)
		require.NotNil(t, edge.Rating)
		assert.Equal(t, shared.Score(5), edge.Rating.Score)
	})

	t.Run("second rating conflicts and keeps the original", func(t *testing.T) {
		edge := NewEdge(EdgePeerMentor, counterpart, "computer-1-programming", now.Add(-8*24*time.Hour))
		require.NoError(t, edge.Rate(4, "helpful", now))

		err := edge.Rate(1, "changed my mind", now)
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Equal(t, shared.Score(4), edge.Rating.Score)
		assert.Equal(t, "helpful", edge.Rating.Feedback)
	})

	t.Run("inactive edge cannot be rated", func(t *testing.T) {
		edge := NewEdge(EdgePeerMentor, counterpart, "computer-1-programming", now.Add(-8*24*time.Hour))
		edge.Deactivate(now)
		err := edge.Rate(5, "", now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("score out of range", func(t *testing.T) {
		edge := NewEdge(EdgePeerMentor, counterpart, "computer-1-programming", now.Add(-8*24*time.Hour))
		err := edge.Rate(6, "", now)
		assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	})
}

func TestEdge_Mirrors(t *testing.T) {
	now := time.Now()
	a, b := newID(), newID()

	mentorSide := NewEdge(EdgePeerMentor, b, "computer-1-programming", now)
	menteeSide := NewEdge(EdgePeerMentee, a, "computer-1-programming", now)

	assert.True(t, mentorSide.Mirrors(&menteeSide))
	assert.True(t, menteeSide.Mirrors(&mentorSide))
	assert.NotEqual(t, mentorSide.ID, menteeSide.ID, "each side owns its own identifier")

	official := NewEdge(EdgeOfficial, b, "", now)
	assert.False(t, official.Mirrors(&mentorSide), "official edges have no mirror")
}

func TestRequest_Respond(t *testing.T) {
	now := time.Now()
	req := NewRequest(newID(), "computer-1-programming", "help me please", now)
	require.True(t, req.IsPending())

	require.NoError(t, req.Accept(now))
	assert.Equal(t, StatusAccepted, req.Status)
	require.NotNil(t, req.RespondedAt)

	// Terminal states never reopen.
	assert.ErrorIs(t, req.Accept(now), shared.ErrConflict)
	assert.ErrorIs(t, req.Reject(now), shared.ErrConflict)
	assert.ErrorIs(t, req.Expire(now), shared.ErrConflict)
}

func TestLedger_Queries(t *testing.T) {
	now := time.Now()
	mentor, other := newID(), newID()
	subject := shared.SubjectID("computer-1-programming")

	var ledger Ledger
	ledger.AppendEdge(NewEdge(EdgePeerMentor, mentor, subject, now))
	ledger.AppendEdge(NewEdge(EdgePeerMentee, other, "computer-2-discrete-math", now))
	ledger.AppendEdge(NewEdge(EdgePeerMentee, newID(), subject, now))

	t.Run("active mentor edge for subject", func(t *testing.T) {
		assert.NotNil(t, ledger.ActiveMentorEdgeForSubject(subject))
		assert.Nil(t, ledger.ActiveMentorEdgeForSubject("computer-1-logic"))
	})

	t.Run("active mentee count ignores inactive edges", func(t *testing.T) {
		assert.Equal(t, 2, ledger.ActiveMenteeCount())
		ledger.PeerMenteeEdges[0].Deactivate(now)
		assert.Equal(t, 1, ledger.ActiveMenteeCount())
	})

	t.Run("find edge by id across sub-ledgers", func(t *testing.T) {
		id := ledger.PeerMentorEdges[0].ID
		found := ledger.FindEdge(id)
		require.NotNil(t, found)
		assert.Equal(t, EdgePeerMentor, found.Kind)
		assert.Nil(t, ledger.FindEdge(uuid.NewString()))
	})

	t.Run("remove edge is idempotent-by-absence", func(t *testing.T) {
		id := ledger.PeerMentorEdges[0].ID
		assert.True(t, ledger.RemoveEdge(id))
		assert.False(t, ledger.RemoveEdge(id))
	})
}

func TestLedger_PendingRequests(t *testing.T) {
	now := time.Now()
	target := newID()
	subject := shared.SubjectID("computer-1-programming")

	var ledger Ledger
	ledger.PeerOutgoing = append(ledger.PeerOutgoing, NewRequest(target, subject, "", now))

	pending := ledger.PendingPeerOutgoing(target, subject)
	require.NotNil(t, pending)

	// Responded rows no longer match: the duplicate check only cares
	// about pending requests.
	require.NoError(t, pending.Reject(now))
	assert.Nil(t, ledger.PendingPeerOutgoing(target, subject))
}
