package mirror

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

const writerSubject = shared.SubjectID("computer-1-programming")

// commitEdgePair mutates the primary with a mentee edge and commits the
// mirrored mentor edge through the writer.
func commitEdgePair(t *testing.T, repo *ledgerRepo, w *Writer,
	primaryID, counterpartID shared.ProfileID) (string, error) {
	t.Helper()
	ctx := context.Background()

	primary, err := repo.GetByID(ctx, primaryID)
	require.NoError(t, err)

	edge := learner.NewEdge(learner.EdgePeerMentee, counterpartID, writerSubject, time.Now())
	primary.Ledger.AppendEdge(edge)

	err = w.Commit(ctx, primary, counterpartID,
		func(p *learner.Profile) error {
			p.Ledger.AppendEdge(learner.NewEdge(learner.EdgePeerMentor, primaryID, writerSubject, edge.ConnectedAt))
			return nil
		},
		func(p *learner.Profile) error {
			p.Ledger.RemoveEdge(edge.ID)
			return nil
		})
	return edge.ID, err
}

func TestWriterCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("writes primary then mirror", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")

		w := NewWriter(repo, quietLogger())
		_, err := commitEdgePair(t, repo, w, a.ID, b.ID)
		require.NoError(t, err)

		storedA, _ := repo.GetByID(ctx, a.ID)
		storedB, _ := repo.GetByID(ctx, b.ID)
		assert.NotNil(t, storedA.Ledger.FindActiveEdge(learner.EdgePeerMentee, b.ID, writerSubject))
		assert.NotNil(t, storedB.Ledger.FindActiveEdge(learner.EdgePeerMentor, a.ID, writerSubject))
	})

	t.Run("retries the mirror write on a revision conflict", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")
		repo.scriptUpdates(b.ID, shared.ErrConcurrentModification)

		w := NewWriter(repo, quietLogger())
		_, err := commitEdgePair(t, repo, w, a.ID, b.ID)
		require.NoError(t, err)

		storedB, _ := repo.GetByID(ctx, b.ID)
		assert.NotNil(t, storedB.Ledger.FindActiveEdge(learner.EdgePeerMentor, a.ID, writerSubject))
	})

	t.Run("compensates the primary when the mirror write fails", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")
		boom := errors.New("connection reset")
		repo.scriptUpdates(b.ID, boom)

		w := NewWriter(repo, quietLogger())
		edgeID, err := commitEdgePair(t, repo, w, a.ID, b.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.False(t, shared.IsPartialCommit(err))

		// Primary rolled back, neither ledger holds the edge.
		storedA, _ := repo.GetByID(ctx, a.ID)
		storedB, _ := repo.GetByID(ctx, b.ID)
		assert.Nil(t, storedA.Ledger.FindEdge(edgeID))
		assert.Nil(t, storedB.Ledger.FindActiveEdge(learner.EdgePeerMentor, a.ID, writerSubject))
	})

	t.Run("failed compensation surfaces a partial commit", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")
		repo.scriptUpdates(b.ID, errors.New("connection reset"))
		// First primary update succeeds, the compensating one fails.
		repo.scriptUpdates(a.ID, nil, errors.New("connection reset"))

		w := NewWriter(repo, quietLogger())
		edgeID, err := commitEdgePair(t, repo, w, a.ID, b.ID)
		require.Error(t, err)
		assert.True(t, shared.IsPartialCommit(err))

		// The dangling primary edge is the reconciliation job's input.
		storedA, _ := repo.GetByID(ctx, a.ID)
		assert.NotNil(t, storedA.Ledger.FindEdge(edgeID))
	})

	t.Run("primary failure commits nothing", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")
		boom := errors.New("connection reset")
		repo.scriptUpdates(a.ID, boom)

		w := NewWriter(repo, quietLogger())
		edgeID, err := commitEdgePair(t, repo, w, a.ID, b.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)

		storedA, _ := repo.GetByID(ctx, a.ID)
		storedB, _ := repo.GetByID(ctx, b.ID)
		assert.Nil(t, storedA.Ledger.FindEdge(edgeID))
		assert.Nil(t, storedB.Ledger.FindActiveEdge(learner.EdgePeerMentor, a.ID, writerSubject))
	})
}
