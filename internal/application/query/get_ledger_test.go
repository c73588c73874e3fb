package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

func TestGetLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves counterpart names across sections", func(t *testing.T) {
		learners := newReadLearnerRepo()
		mentors := newReadMentorRepo()
		owner := newLearner("Dias", 2, 3)
		peer := newLearner("Aruzhan", 2, 3)
		pro := newOfficialMentor("Bauyrzhan Seitov")
		require.NoError(t, mentors.Create(ctx, pro))

		now := time.Now()
		owner.Ledger.AppendEdge(learner.NewEdge(learner.EdgePeerMentor, peer.ID, subjProgramming, now))
		owner.Ledger.AppendEdge(learner.NewEdge(learner.EdgeOfficial, pro.ID, "", now))
		owner.Ledger.PeerIncoming = append(owner.Ledger.PeerIncoming,
			learner.NewRequest(peer.ID, subjProgramming, "Помоги с циклами", now))
		learners.put(owner)
		learners.put(peer)

		h := NewGetLedgerHandler(learners, mentors)
		result, err := h.Handle(ctx, GetLedgerQuery{AccountID: string(owner.AccountID)})
		require.NoError(t, err)

		require.Len(t, result.PeerMentors, 1)
		assert.Equal(t, "Aruzhan", result.PeerMentors[0].CounterpartName)
		require.Len(t, result.OfficialEdges, 1)
		assert.Equal(t, "Bauyrzhan Seitov", result.OfficialEdges[0].CounterpartName)
		require.Len(t, result.IncomingRequests, 1)
		assert.Equal(t, "Aruzhan", result.IncomingRequests[0].CounterpartName)
		assert.Equal(t, "pending", result.IncomingRequests[0].Status)
	})

	t.Run("deleted counterpart gets a placeholder name", func(t *testing.T) {
		learners := newReadLearnerRepo()
		mentors := newReadMentorRepo()
		owner := newLearner("Dias", 2, 3)
		owner.Ledger.AppendEdge(learner.NewEdge(learner.EdgePeerMentee, shared.ProfileID(uuid.NewString()), subjProgramming, time.Now()))
		learners.put(owner)

		h := NewGetLedgerHandler(learners, mentors)
		result, err := h.Handle(ctx, GetLedgerQuery{AccountID: string(owner.AccountID)})
		require.NoError(t, err)
		require.Len(t, result.PeerMentees, 1)
		assert.Equal(t, deletedCounterpartName, result.PeerMentees[0].CounterpartName)
	})

	t.Run("lists edges that became ratable", func(t *testing.T) {
		learners := newReadLearnerRepo()
		mentors := newReadMentorRepo()
		owner := newLearner("Dias", 2, 3)
		peer := newLearner("Aruzhan", 2, 3)
		aged := learner.NewEdge(learner.EdgePeerMentor, peer.ID, subjProgramming, time.Now().AddDate(0, 0, -8))
		fresh := learner.NewEdge(learner.EdgePeerMentee, peer.ID, subjProgramming, time.Now())
		owner.Ledger.AppendEdge(aged)
		owner.Ledger.AppendEdge(fresh)
		learners.put(owner)
		learners.put(peer)

		h := NewGetLedgerHandler(learners, mentors)
		result, err := h.Handle(ctx, GetLedgerQuery{AccountID: string(owner.AccountID)})
		require.NoError(t, err)
		assert.Equal(t, []string{aged.ID}, result.PendingRatable)
	})

	t.Run("averages ratings received from counterparts", func(t *testing.T) {
		learners := newReadLearnerRepo()
		mentors := newReadMentorRepo()
		owner := newLearner("Dias", 2, 3)
		menteeA := newLearner("Aruzhan", 2, 3)
		menteeB := newLearner("Madina", 2, 3)

		connectedAt := time.Now().AddDate(0, 0, -30)
		for _, m := range []*learner.Profile{menteeA, menteeB} {
			owner.Ledger.AppendEdge(learner.NewEdge(learner.EdgePeerMentee, m.ID, subjProgramming, connectedAt))
			back := learner.NewEdge(learner.EdgePeerMentor, owner.ID, subjProgramming, connectedAt)
			m.Ledger.AppendEdge(back)
		}
		require.NoError(t, menteeA.Ledger.PeerMentorEdges[0].Rate(shared.Score(5), "", time.Now()))
		require.NoError(t, menteeB.Ledger.PeerMentorEdges[0].Rate(shared.Score(3), "", time.Now()))

		learners.put(owner)
		learners.put(menteeA)
		learners.put(menteeB)

		h := NewGetLedgerHandler(learners, mentors)
		result, err := h.Handle(ctx, GetLedgerQuery{AccountID: string(owner.AccountID)})
		require.NoError(t, err)
		assert.InDelta(t, 4.0, result.AverageRatingReceived, 0.001)
	})

	t.Run("unknown account is not found", func(t *testing.T) {
		h := NewGetLedgerHandler(newReadLearnerRepo(), newReadMentorRepo())
		_, err := h.Handle(ctx, GetLedgerQuery{AccountID: uuid.NewString()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
