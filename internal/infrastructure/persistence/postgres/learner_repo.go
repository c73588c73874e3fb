// Package postgres implements the PostgreSQL persistence layer for the
// mentorship hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository for PostgreSQL.
//
// Update is a compare-and-swap on the revision column: the UPDATE only
// matches when the stored revision equals the one the caller loaded, so
// two concurrent responders to the same request cannot both win.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

const learnerColumns = `id, account_id, display_name, branch, year, term,
	   strong_subjects, preferences, ledger, profile_completed,
	   revision, created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create persists a new learner profile.
func (r *LearnerRepository) Create(ctx context.Context, p *learner.Profile) error {
	query := `
		INSERT INTO learner_profiles (
			id, account_id, display_name, branch, year, term,
			strong_subjects, preferences, ledger, profile_completed,
			revision, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	subjectsJSON, prefsJSON, ledgerJSON, err := marshalLearnerState(p)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		string(p.ID),
		string(p.AccountID),
		p.DisplayName,
		string(p.Branch),
		p.Year.Int(),
		p.Term.Int(),
		subjectsJSON,
		prefsJSON,
		ledgerJSON,
		p.ProfileCompleted,
		p.Revision,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return fmt.Errorf("failed to create learner profile: %w", err)
	}

	return nil
}

// GetByID returns a profile by internal ID.
func (r *LearnerRepository) GetByID(ctx context.Context, id shared.ProfileID) (*learner.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM learner_profiles WHERE id = $1", learnerColumns)

	row := r.conn.QueryRow(ctx, query, string(id))
	return scanLearner(row)
}

// GetByAccountID returns the profile owned by an account.
func (r *LearnerRepository) GetByAccountID(ctx context.Context, accountID shared.AccountID) (*learner.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM learner_profiles WHERE account_id = $1", learnerColumns)

	row := r.conn.QueryRow(ctx, query, string(accountID))
	return scanLearner(row)
}

// Update saves the profile guarded by the revision CAS.
func (r *LearnerRepository) Update(ctx context.Context, p *learner.Profile) error {
	query := `
		UPDATE learner_profiles SET
			display_name = $1,
			branch = $2,
			year = $3,
			term = $4,
			strong_subjects = $5,
			preferences = $6,
			ledger = $7,
			profile_completed = $8,
			revision = revision + 1,
			updated_at = $9
		WHERE id = $10 AND revision = $11
	`

	subjectsJSON, prefsJSON, ledgerJSON, err := marshalLearnerState(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := r.conn.Exec(ctx, query,
		p.DisplayName,
		string(p.Branch),
		p.Year.Int(),
		p.Term.Int(),
		subjectsJSON,
		prefsJSON,
		ledgerJSON,
		p.ProfileCompleted,
		now,
		string(p.ID),
		p.Revision,
	)
	if err != nil {
		return fmt.Errorf("failed to update learner profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a lost CAS race from a deleted profile.
		exists, existsErr := r.exists(ctx, p.ID)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return shared.ErrConcurrentModification
		}
		return shared.ErrLearnerNotFound
	}

	p.Revision++
	p.UpdatedAt = now
	return nil
}

// Delete removes the profile and its ledger outright.
func (r *LearnerRepository) Delete(ctx context.Context, id shared.ProfileID) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM learner_profiles WHERE id = $1", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete learner profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrLearnerNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Search & Inverse Lookups
// ─────────────────────────────────────────────────────────────────────────────

// FindMentorCandidates lists profiles in the branch that list the subject
// as strong, excluding the requester.
func (r *LearnerRepository) FindMentorCandidates(ctx context.Context, branch shared.Branch, subjectID shared.SubjectID, exclude shared.ProfileID) ([]*learner.Profile, error) {
	containment, err := json.Marshal([]map[string]string{{"subject_id": string(subjectID)}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal subject filter: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM learner_profiles
		WHERE branch = $1
		  AND id <> $2
		  AND strong_subjects @> $3
		ORDER BY created_at ASC
	`, learnerColumns)

	rows, err := r.conn.Query(ctx, query, string(branch), string(exclude), containment)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentor candidates: %w", err)
	}
	defer rows.Close()

	return scanLearners(rows)
}

// FindByOfficialMentor lists learners holding an active official edge to
// the given mentor profile. Official edges live only on the learner side,
// so the mentor's mentee view is this containment scan.
func (r *LearnerRepository) FindByOfficialMentor(ctx context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	containment, err := json.Marshal([]map[string]interface{}{
		{"counterpart_id": string(mentorID), "active": true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mentor filter: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM learner_profiles
		WHERE ledger->'official_edges' @> $1
		ORDER BY created_at ASC
	`, learnerColumns)

	rows, err := r.conn.Query(ctx, query, containment)
	if err != nil {
		return nil, fmt.Errorf("failed to query learners by official mentor: %w", err)
	}
	defer rows.Close()

	return scanLearners(rows)
}

// FindByPendingOfficialRequest lists learners with a pending official
// request targeting the given mentor profile.
func (r *LearnerRepository) FindByPendingOfficialRequest(ctx context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	containment, err := json.Marshal([]map[string]interface{}{
		{"counterpart_id": string(mentorID), "status": "pending"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mentor filter: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM learner_profiles
		WHERE ledger->'official_outgoing' @> $1
		ORDER BY created_at ASC
	`, learnerColumns)

	rows, err := r.conn.Query(ctx, query, containment)
	if err != nil {
		return nil, fmt.Errorf("failed to query learners by pending official request: %w", err)
	}
	defer rows.Close()

	return scanLearners(rows)
}

// FindWithStalePeerRequests lists profiles holding pending peer requests
// older than the cutoff. Containment cannot express a range predicate, so
// this unnests the request arrays; the expiry job runs off-peak.
func (r *LearnerRepository) FindWithStalePeerRequests(ctx context.Context, cutoff time.Time) ([]*learner.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM learner_profiles
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(
				COALESCE(ledger->'peer_incoming', '[]'::jsonb) ||
				COALESCE(ledger->'peer_outgoing', '[]'::jsonb)
			) AS req
			WHERE req->>'status' = 'pending'
			  AND (req->>'requested_at')::timestamptz < $1
		)
		ORDER BY created_at ASC
	`, learnerColumns)

	rows, err := r.conn.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale peer requests: %w", err)
	}
	defer rows.Close()

	return scanLearners(rows)
}

// List pages through all profiles in stable order.
func (r *LearnerRepository) List(ctx context.Context, page shared.Pagination) ([]*learner.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM learner_profiles
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`, learnerColumns)

	rows, err := r.conn.Query(ctx, query, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list learner profiles: %w", err)
	}
	defer rows.Close()

	return scanLearners(rows)
}

func (r *LearnerRepository) exists(ctx context.Context, id shared.ProfileID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM learner_profiles WHERE id = $1)",
		string(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check learner existence: %w", err)
	}
	return exists, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func marshalLearnerState(p *learner.Profile) (subjects, prefs, ledger []byte, err error) {
	subjects, err = json.Marshal(p.StrongSubjects)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal strong subjects: %w", err)
	}
	prefs, err = json.Marshal(p.Preferences)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}
	ledger, err = json.Marshal(p.Ledger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal ledger: %w", err)
	}
	return subjects, prefs, ledger, nil
}

// scanLearner scans a single profile from a row.
func scanLearner(row pgx.Row) (*learner.Profile, error) {
	var p learner.Profile
	var id, accountID, branch string
	var year, term int
	var subjectsJSON, prefsJSON, ledgerJSON []byte

	err := row.Scan(
		&id,
		&accountID,
		&p.DisplayName,
		&branch,
		&year,
		&term,
		&subjectsJSON,
		&prefsJSON,
		&ledgerJSON,
		&p.ProfileCompleted,
		&p.Revision,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan learner profile: %w", err)
	}

	if err := hydrateLearner(&p, id, accountID, branch, year, term, subjectsJSON, prefsJSON, ledgerJSON); err != nil {
		return nil, err
	}

	return &p, nil
}

// scanLearners scans multiple profiles from rows.
func scanLearners(rows pgx.Rows) ([]*learner.Profile, error) {
	var profiles []*learner.Profile

	for rows.Next() {
		var p learner.Profile
		var id, accountID, branch string
		var year, term int
		var subjectsJSON, prefsJSON, ledgerJSON []byte

		err := rows.Scan(
			&id,
			&accountID,
			&p.DisplayName,
			&branch,
			&year,
			&term,
			&subjectsJSON,
			&prefsJSON,
			&ledgerJSON,
			&p.ProfileCompleted,
			&p.Revision,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learner profile: %w", err)
		}

		if err := hydrateLearner(&p, id, accountID, branch, year, term, subjectsJSON, prefsJSON, ledgerJSON); err != nil {
			return nil, err
		}

		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return profiles, nil
}

func hydrateLearner(p *learner.Profile, id, accountID, branch string, year, term int, subjectsJSON, prefsJSON, ledgerJSON []byte) error {
	p.ID = shared.ProfileID(id)
	p.AccountID = shared.AccountID(accountID)
	p.Branch = shared.Branch(branch)
	p.Year = shared.Year(year)
	p.Term = shared.Term(term)

	if err := json.Unmarshal(subjectsJSON, &p.StrongSubjects); err != nil {
		return fmt.Errorf("failed to unmarshal strong subjects: %w", err)
	}
	if err := json.Unmarshal(prefsJSON, &p.Preferences); err != nil {
		return fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	if err := json.Unmarshal(ledgerJSON, &p.Ledger); err != nil {
		return fmt.Errorf("failed to unmarshal ledger: %w", err)
	}

	return nil
}
