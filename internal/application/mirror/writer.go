// Package mirror implements the mirrored ledger write: one logical
// operation spanning two learner aggregates, committed as two sequential
// single-row writes. There is no cross-profile transaction; consistency
// comes from retry, compensation and the reconciliation auditor.
package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
	"github.com/campus-connect/mentorship-hub/pkg/retry"
)

// Mutation applies a ledger change to a freshly loaded profile. It must be
// idempotent-safe to re-apply: on a revision conflict the counterpart is
// reloaded and the mutation runs again against the new state.
type Mutation func(p *learner.Profile) error

// Writer commits a primary write and its mirrored counterpart write as one
// logical operation.
//
// Failure handling, in order:
//  1. primary write fails — nothing committed, the error is returned as-is;
//  2. mirror write fails after retries — the primary write is compensated
//     (undone) and the mirror failure is returned;
//  3. compensation itself fails — both sides are left inconsistent and the
//     error carries shared.ErrPartialCommit for the reconciliation job.
type Writer struct {
	profiles learner.Repository
	retrier  *retry.Retrier
	log      *logger.Logger
}

// NewWriter creates a mirror writer.
func NewWriter(profiles learner.Repository, log *logger.Logger) *Writer {
	return &Writer{
		profiles: profiles,
		retrier:  retry.MirrorWriteRetrier(),
		log:      log.With(logger.Component("mirror-writer")),
	}
}

// Commit saves the already-mutated primary profile, then applies the
// mirrored mutation to the counterpart. undo reverts the primary mutation
// and is only invoked when the counterpart write cannot be completed.
func (w *Writer) Commit(
	ctx context.Context,
	primary *learner.Profile,
	counterpartID shared.ProfileID,
	apply Mutation,
	undo Mutation,
) error {
	primary.RecomputeCompleted()
	if err := w.profiles.Update(ctx, primary); err != nil {
		return fmt.Errorf("mirror: primary write: %w", err)
	}

	mirrorErr := w.writeMirror(ctx, counterpartID, apply)
	if mirrorErr == nil {
		return nil
	}

	w.log.Warn("mirror write failed, compensating primary",
		logger.ProfileID(string(primary.ID)),
		logger.String("counterpart_id", string(counterpartID)),
		logger.Err(mirrorErr))

	if err := w.compensate(ctx, primary.ID, undo); err != nil {
		w.log.Error("compensation failed, ledgers inconsistent",
			logger.ProfileID(string(primary.ID)),
			logger.String("counterpart_id", string(counterpartID)),
			logger.Err(err))
		return shared.WrapError("lifecycle", "MirrorWrite", shared.ErrPartialCommit,
			"mirrored write failed and primary could not be compensated", mirrorErr)
	}

	return fmt.Errorf("mirror: counterpart write: %w", mirrorErr)
}

// writeMirror loads the counterpart, applies the mutation and saves with a
// revision CAS, reloading on conflict.
func (w *Writer) writeMirror(ctx context.Context, counterpartID shared.ProfileID, apply Mutation) error {
	return w.retrier.Do(ctx, func(ctx context.Context) error {
		counterpart, err := w.profiles.GetByID(ctx, counterpartID)
		if err != nil {
			return retry.Permanent(err)
		}
		if err := apply(counterpart); err != nil {
			return retry.Permanent(err)
		}
		counterpart.RecomputeCompleted()
		if err := w.profiles.Update(ctx, counterpart); err != nil {
			if errors.Is(err, shared.ErrConcurrentModification) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}
		return nil
	})
}

// compensate reloads the primary and re-applies the inverse mutation, with
// the same reload-on-conflict loop as the mirror write.
func (w *Writer) compensate(ctx context.Context, primaryID shared.ProfileID, undo Mutation) error {
	return w.retrier.Do(ctx, func(ctx context.Context) error {
		primary, err := w.profiles.GetByID(ctx, primaryID)
		if err != nil {
			return retry.Permanent(err)
		}
		if err := undo(primary); err != nil {
			return retry.Permanent(err)
		}
		primary.RecomputeCompleted()
		if err := w.profiles.Update(ctx, primary); err != nil {
			if errors.Is(err, shared.ErrConcurrentModification) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}
		return nil
	})
}
