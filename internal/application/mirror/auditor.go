package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

// Orphan describes a peer edge whose mirror is missing on the counterpart
// ledger: the residue of a partial commit.
type Orphan struct {
	ProfileID     shared.ProfileID
	EdgeID        string
	Kind          learner.EdgeKind
	CounterpartID shared.ProfileID
	SubjectID     shared.SubjectID
	ConnectedAt   string
	Reason        string
}

const (
	// ReasonMirrorMissing - counterpart exists but holds no matching active edge.
	ReasonMirrorMissing = "mirror edge missing"
	// ReasonCounterpartGone - counterpart profile no longer exists.
	ReasonCounterpartGone = "counterpart profile missing"
)

// scanPageSize bounds each repository page during a full scan.
const scanPageSize = 200

// Auditor walks every learner ledger and reports active peer edges without
// a matching mirror. Official edges are skipped: they have no mirror by
// design.
type Auditor struct {
	profiles learner.Repository
	log      *logger.Logger
}

// NewAuditor creates a ledger auditor.
func NewAuditor(profiles learner.Repository, log *logger.Logger) *Auditor {
	return &Auditor{
		profiles: profiles,
		log:      log.With(logger.Component("ledger-auditor")),
	}
}

// Scan pages through all profiles and collects orphaned peer edges.
// Mirrors are matched by counterpart, subject and kind, never by edge id.
func (a *Auditor) Scan(ctx context.Context) ([]Orphan, error) {
	orphans := make([]Orphan, 0)

	for page := 1; ; page++ {
		profiles, err := a.profiles.List(ctx, shared.NewPagination(page, scanPageSize))
		if err != nil {
			return nil, fmt.Errorf("auditor: list profiles: %w", err)
		}
		if len(profiles) == 0 {
			break
		}

		for _, p := range profiles {
			found, err := a.auditProfile(ctx, p)
			if err != nil {
				return nil, err
			}
			orphans = append(orphans, found...)
		}

		if len(profiles) < scanPageSize {
			break
		}
	}

	return orphans, nil
}

func (a *Auditor) auditProfile(ctx context.Context, p *learner.Profile) ([]Orphan, error) {
	orphans := make([]Orphan, 0)

	for _, e := range p.Ledger.ActiveEdges() {
		mirrorKind, ok := e.Kind.Mirror()
		if !ok {
			continue
		}

		counterpart, err := a.profiles.GetByID(ctx, e.CounterpartID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				orphans = append(orphans, a.orphan(p.ID, e, ReasonCounterpartGone))
				continue
			}
			return nil, fmt.Errorf("auditor: load counterpart %s: %w", e.CounterpartID, err)
		}

		if counterpart.Ledger.FindActiveEdge(mirrorKind, p.ID, e.SubjectID) == nil {
			orphans = append(orphans, a.orphan(p.ID, e, ReasonMirrorMissing))
		}
	}

	return orphans, nil
}

func (a *Auditor) orphan(owner shared.ProfileID, e learner.Edge, reason string) Orphan {
	a.log.Warn("asymmetric ledger pair found",
		logger.ProfileID(string(owner)),
		logger.EdgeID(e.ID),
		logger.EdgeKind(string(e.Kind)),
		logger.String("reason", reason))
	return Orphan{
		ProfileID:     owner,
		EdgeID:        e.ID,
		Kind:          e.Kind,
		CounterpartID: e.CounterpartID,
		SubjectID:     e.SubjectID,
		ConnectedAt:   e.ConnectedAt.String(),
		Reason:        reason,
	}
}

// Repair restores symmetry for one orphan: recreates the missing mirror
// edge when the counterpart still exists, otherwise deactivates the orphan
// itself. Repairs use the owning edge's ConnectedAt so the rating age gate
// stays truthful.
func (a *Auditor) Repair(ctx context.Context, o Orphan) error {
	switch o.Reason {
	case ReasonMirrorMissing:
		return a.recreateMirror(ctx, o)
	case ReasonCounterpartGone:
		return a.deactivateOrphan(ctx, o)
	default:
		return shared.NewDomainError("lifecycle", "Repair", shared.ErrInvalidInput,
			fmt.Sprintf("unknown orphan reason %q", o.Reason))
	}
}

func (a *Auditor) recreateMirror(ctx context.Context, o Orphan) error {
	mirrorKind, ok := o.Kind.Mirror()
	if !ok {
		return shared.NewDomainError("lifecycle", "Repair", shared.ErrInvalidInput, "edge kind has no mirror")
	}

	owner, err := a.profiles.GetByID(ctx, o.ProfileID)
	if err != nil {
		return fmt.Errorf("auditor: reload orphan owner: %w", err)
	}
	edge := owner.Ledger.FindEdge(o.EdgeID)
	if edge == nil || !edge.Active {
		// Repaired or ended since the scan.
		return nil
	}

	counterpart, err := a.profiles.GetByID(ctx, o.CounterpartID)
	if err != nil {
		return fmt.Errorf("auditor: reload counterpart: %w", err)
	}
	if counterpart.Ledger.FindActiveEdge(mirrorKind, o.ProfileID, o.SubjectID) != nil {
		return nil
	}

	mirror := learner.NewEdge(mirrorKind, o.ProfileID, o.SubjectID, edge.ConnectedAt)
	counterpart.Ledger.AppendEdge(mirror)
	counterpart.RecomputeCompleted()
	if err := a.profiles.Update(ctx, counterpart); err != nil {
		return fmt.Errorf("auditor: save recreated mirror: %w", err)
	}

	a.log.Info("recreated missing mirror edge",
		logger.ProfileID(string(o.CounterpartID)),
		logger.EdgeID(mirror.ID),
		logger.EdgeKind(string(mirrorKind)))
	return nil
}

func (a *Auditor) deactivateOrphan(ctx context.Context, o Orphan) error {
	owner, err := a.profiles.GetByID(ctx, o.ProfileID)
	if err != nil {
		return fmt.Errorf("auditor: reload orphan owner: %w", err)
	}
	edge := owner.Ledger.FindEdge(o.EdgeID)
	if edge == nil || !edge.Active {
		return nil
	}

	edge.Deactivate(time.Now())
	if err := a.profiles.Update(ctx, owner); err != nil {
		return fmt.Errorf("auditor: save deactivated orphan: %w", err)
	}

	a.log.Info("deactivated orphan edge pointing at missing profile",
		logger.ProfileID(string(o.ProfileID)),
		logger.EdgeID(o.EdgeID))
	return nil
}
