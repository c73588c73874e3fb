package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

func newCreateHandler(repo *memLearnerRepo, pub *capturingPublisher) *CreatePeerRequestHandler {
	return NewCreatePeerRequestHandler(repo, testSubjects(), testMirrorWriter(repo), pub)
}

func TestCreatePeerRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("writes mirrored request rows with independent ids", func(t *testing.T) {
		repo := newMemLearnerRepo()
		pub := &capturingPublisher{}
		requester := seedRequester(t, repo, "Dias")
		target := seedMentor(t, repo, "Aruzhan", 3)

		result, err := newCreateHandler(repo, pub).Handle(ctx, CreatePeerRequestCommand{
			RequesterAccountID: string(requester.AccountID),
			TargetProfileID:    string(target.ID),
			SubjectID:          string(subjProgramming),
			Message:            "Помоги с указателями, пожалуйста",
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.RequestID)

		storedRequester, err := repo.GetByID(ctx, requester.ID)
		require.NoError(t, err)
		storedTarget, err := repo.GetByID(ctx, target.ID)
		require.NoError(t, err)

		outgoing := storedRequester.Ledger.PendingPeerOutgoing(target.ID, subjProgramming)
		require.NotNil(t, outgoing)
		assert.Equal(t, result.RequestID, outgoing.ID)

		require.Len(t, storedTarget.Ledger.PeerIncoming, 1)
		incoming := storedTarget.Ledger.PeerIncoming[0]
		assert.Equal(t, requester.ID, incoming.CounterpartID)
		assert.Equal(t, subjProgramming, incoming.SubjectID)
		assert.NotEqual(t, outgoing.ID, incoming.ID, "mirrored rows never share ids")

		assert.Len(t, pub.byType(shared.EventPeerRequestReceived), 1)
	})

	t.Run("duplicate pending request is a conflict", func(t *testing.T) {
		repo := newMemLearnerRepo()
		pub := &capturingPublisher{}
		requester := seedRequester(t, repo, "Dias")
		target := seedMentor(t, repo, "Aruzhan", 3)
		h := newCreateHandler(repo, pub)

		cmd := CreatePeerRequestCommand{
			RequesterAccountID: string(requester.AccountID),
			TargetProfileID:    string(target.ID),
			SubjectID:          string(subjProgramming),
		}
		_, err := h.Handle(ctx, cmd)
		require.NoError(t, err)
		_, err = h.Handle(ctx, cmd)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("requester gates", func(t *testing.T) {
		repo := newMemLearnerRepo()
		target := seedMentor(t, repo, "Aruzhan", 3)
		h := newCreateHandler(repo, &capturingPublisher{})

		tests := []struct {
			name    string
			mutate  func(p *learner.Profile)
			wantErr error
		}{
			{
				name:    "incomplete profile",
				mutate:  func(p *learner.Profile) { p.StrongSubjects = nil; p.RecomputeCompleted() },
				wantErr: shared.ErrInvalidState,
			},
			{
				name:    "first term learner",
				mutate:  func(p *learner.Profile) { p.Term = 1 },
				wantErr: shared.ErrInvalidState,
			},
			{
				name:    "fourth year learner",
				mutate:  func(p *learner.Profile) { p.Year = 4; p.Term = 7 },
				wantErr: shared.ErrInvalidState,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				requester := seedRequester(t, repo, "Dias "+tt.name)
				tt.mutate(requester)
				requireNoErr(t, repo.Update(ctx, requester))

				_, err := h.Handle(ctx, CreatePeerRequestCommand{
					RequesterAccountID: string(requester.AccountID),
					TargetProfileID:    string(target.ID),
					SubjectID:          string(subjProgramming),
				})
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	t.Run("target gates", func(t *testing.T) {
		repo := newMemLearnerRepo()
		requester := seedRequester(t, repo, "Dias")
		h := newCreateHandler(repo, &capturingPublisher{})

		t.Run("self request", func(t *testing.T) {
			_, err := h.Handle(ctx, CreatePeerRequestCommand{
				RequesterAccountID: string(requester.AccountID),
				TargetProfileID:    string(requester.ID),
				SubjectID:          string(subjProgramming),
			})
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})

		t.Run("not accepting", func(t *testing.T) {
			target := seedMentor(t, repo, "Closed", 3)
			target.Preferences.AcceptingNewMentees = false
			requireNoErr(t, repo.Update(ctx, target))
			_, err := h.Handle(ctx, CreatePeerRequestCommand{
				RequesterAccountID: string(requester.AccountID),
				TargetProfileID:    string(target.ID),
				SubjectID:          string(subjProgramming),
			})
			assert.ErrorIs(t, err, shared.ErrInvalidState)
		})

		t.Run("capacity full at request time", func(t *testing.T) {
			target := seedMentor(t, repo, "Full", 1)
			target.Ledger.AppendEdge(learner.NewEdge(learner.EdgePeerMentee, "a0000000-0000-4000-8000-000000000001", subjProgramming, target.CreatedAt))
			requireNoErr(t, repo.Update(ctx, target))
			_, err := h.Handle(ctx, CreatePeerRequestCommand{
				RequesterAccountID: string(requester.AccountID),
				TargetProfileID:    string(target.ID),
				SubjectID:          string(subjProgramming),
			})
			assert.ErrorIs(t, err, shared.ErrCapacityExceeded)
		})
	})

	t.Run("unknown subject is not found", func(t *testing.T) {
		repo := newMemLearnerRepo()
		requester := seedRequester(t, repo, "Dias")
		target := seedMentor(t, repo, "Aruzhan", 3)
		h := newCreateHandler(repo, &capturingPublisher{})

		_, err := h.Handle(ctx, CreatePeerRequestCommand{
			RequesterAccountID: string(requester.AccountID),
			TargetProfileID:    string(target.ID),
			SubjectID:          "computer-9-quantum",
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("mirror failure compensates the primary write", func(t *testing.T) {
		repo := newMemLearnerRepo()
		requester := seedRequester(t, repo, "Dias")
		target := seedMentor(t, repo, "Aruzhan", 3)
		h := newCreateHandler(repo, &capturingPublisher{})

		repo.failUpdateFor[target.ID] = errors.New("connection reset")

		_, err := h.Handle(ctx, CreatePeerRequestCommand{
			RequesterAccountID: string(requester.AccountID),
			TargetProfileID:    string(target.ID),
			SubjectID:          string(subjProgramming),
		})
		require.Error(t, err)
		assert.False(t, shared.IsPartialCommit(err), "compensation succeeded, not a partial commit")

		storedRequester, getErr := repo.GetByID(ctx, requester.ID)
		require.NoError(t, getErr)
		assert.Empty(t, storedRequester.Ledger.PeerOutgoing, "outgoing row rolled back")
	})
}
