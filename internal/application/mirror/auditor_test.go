package mirror

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

// appendEdge stores an edge on a profile directly, bypassing the writer.
func appendEdge(t *testing.T, repo *ledgerRepo, profileID shared.ProfileID, e learner.Edge) {
	t.Helper()
	ctx := context.Background()
	p, err := repo.GetByID(ctx, profileID)
	require.NoError(t, err)
	p.Ledger.AppendEdge(e)
	require.NoError(t, repo.Update(ctx, p))
}

func TestAuditorScan(t *testing.T) {
	ctx := context.Background()

	t.Run("symmetric ledgers produce no orphans", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")

		w := NewWriter(repo, quietLogger())
		_, err := commitEdgePair(t, repo, w, a.ID, b.ID)
		require.NoError(t, err)

		orphans, err := NewAuditor(repo, quietLogger()).Scan(ctx)
		require.NoError(t, err)
		assert.Empty(t, orphans)
	})

	t.Run("finds an edge without a mirror", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")
		edge := learner.NewEdge(learner.EdgePeerMentee, b.ID, writerSubject, time.Now().Add(-48*time.Hour))
		appendEdge(t, repo, a.ID, edge)

		orphans, err := NewAuditor(repo, quietLogger()).Scan(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		assert.Equal(t, a.ID, orphans[0].ProfileID)
		assert.Equal(t, edge.ID, orphans[0].EdgeID)
		assert.Equal(t, ReasonMirrorMissing, orphans[0].Reason)
	})

	t.Run("finds an edge pointing at a missing profile", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		gone := shared.ProfileID(uuid.NewString())
		appendEdge(t, repo, a.ID, learner.NewEdge(learner.EdgePeerMentor, gone, writerSubject, time.Now()))

		orphans, err := NewAuditor(repo, quietLogger()).Scan(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		assert.Equal(t, ReasonCounterpartGone, orphans[0].Reason)
	})

	t.Run("official edges are not audited", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		appendEdge(t, repo, a.ID, learner.NewEdge(learner.EdgeOfficial, shared.ProfileID(uuid.NewString()), "", time.Now()))

		orphans, err := NewAuditor(repo, quietLogger()).Scan(ctx)
		require.NoError(t, err)
		assert.Empty(t, orphans)
	})
}

func TestAuditorRepair(t *testing.T) {
	ctx := context.Background()

	t.Run("recreates the missing mirror with the original connection time", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")
		connectedAt := time.Now().Add(-10 * 24 * time.Hour).Truncate(time.Second)
		edge := learner.NewEdge(learner.EdgePeerMentee, b.ID, writerSubject, connectedAt)
		appendEdge(t, repo, a.ID, edge)

		auditor := NewAuditor(repo, quietLogger())
		orphans, err := auditor.Scan(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		require.NoError(t, auditor.Repair(ctx, orphans[0]))

		storedB, _ := repo.GetByID(ctx, b.ID)
		mirror := storedB.Ledger.FindActiveEdge(learner.EdgePeerMentor, a.ID, writerSubject)
		require.NotNil(t, mirror)
		assert.True(t, mirror.ConnectedAt.Equal(connectedAt), "repair keeps the rating age gate truthful")
		assert.NotEqual(t, edge.ID, mirror.ID)

		// Symmetry restored, a second scan is clean.
		orphans, err = auditor.Scan(ctx)
		require.NoError(t, err)
		assert.Empty(t, orphans)
	})

	t.Run("repairing twice is a no-op", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")
		appendEdge(t, repo, a.ID, learner.NewEdge(learner.EdgePeerMentee, b.ID, writerSubject, time.Now()))

		auditor := NewAuditor(repo, quietLogger())
		orphans, err := auditor.Scan(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		require.NoError(t, auditor.Repair(ctx, orphans[0]))
		require.NoError(t, auditor.Repair(ctx, orphans[0]))

		storedB, _ := repo.GetByID(ctx, b.ID)
		assert.Len(t, storedB.Ledger.PeerMentorEdges, 1)
	})

	t.Run("deactivates an edge whose counterpart is gone", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		gone := shared.ProfileID(uuid.NewString())
		edge := learner.NewEdge(learner.EdgePeerMentor, gone, writerSubject, time.Now())
		appendEdge(t, repo, a.ID, edge)

		auditor := NewAuditor(repo, quietLogger())
		orphans, err := auditor.Scan(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		require.NoError(t, auditor.Repair(ctx, orphans[0]))

		storedA, _ := repo.GetByID(ctx, a.ID)
		stored := storedA.Ledger.FindEdge(edge.ID)
		require.NotNil(t, stored)
		assert.False(t, stored.Active)
	})

	t.Run("skips an orphan ended since the scan", func(t *testing.T) {
		repo := newLedgerRepo()
		a := seedProfile(repo, "Aruzhan")
		b := seedProfile(repo, "Dias")
		edge := learner.NewEdge(learner.EdgePeerMentee, b.ID, writerSubject, time.Now())
		appendEdge(t, repo, a.ID, edge)

		auditor := NewAuditor(repo, quietLogger())
		orphans, err := auditor.Scan(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 1)

		// The edge ends between scan and repair.
		p, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		p.Ledger.FindEdge(edge.ID).Deactivate(time.Now())
		require.NoError(t, repo.Update(ctx, p))

		require.NoError(t, auditor.Repair(ctx, orphans[0]))
		storedB, _ := repo.GetByID(ctx, b.ID)
		assert.Empty(t, storedB.Ledger.PeerMentorEdges)
	})
}
