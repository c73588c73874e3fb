// Package postgres implements the PostgreSQL persistence layer for the
// mentorship hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/mentor"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MENTOR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MentorRepository implements mentor.Repository for PostgreSQL.
type MentorRepository struct {
	conn *Connection
}

// NewMentorRepository creates a new MentorRepository.
func NewMentorRepository(conn *Connection) *MentorRepository {
	return &MentorRepository{conn: conn}
}

const mentorColumns = `id, account_id, display_name, designation, skill_tags,
	   years_experience, bio, availability, active,
	   revision, created_at, updated_at`

// Create persists a new mentor profile.
func (r *MentorRepository) Create(ctx context.Context, p *mentor.Profile) error {
	query := `
		INSERT INTO mentor_profiles (
			id, account_id, display_name, designation, skill_tags,
			years_experience, bio, availability, active,
			revision, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	tagsJSON, availJSON, err := marshalMentorState(p)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		string(p.ID),
		string(p.AccountID),
		p.DisplayName,
		p.Designation,
		tagsJSON,
		p.YearsExperience,
		p.Bio,
		availJSON,
		p.Active,
		p.Revision,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrMentorAlreadyExists
		}
		return fmt.Errorf("failed to create mentor profile: %w", err)
	}

	return nil
}

// GetByID returns a mentor profile by internal ID.
func (r *MentorRepository) GetByID(ctx context.Context, id shared.ProfileID) (*mentor.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM mentor_profiles WHERE id = $1", mentorColumns)

	row := r.conn.QueryRow(ctx, query, string(id))
	return scanMentor(row)
}

// GetByAccountID returns the mentor profile owned by an account.
func (r *MentorRepository) GetByAccountID(ctx context.Context, accountID shared.AccountID) (*mentor.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM mentor_profiles WHERE account_id = $1", mentorColumns)

	row := r.conn.QueryRow(ctx, query, string(accountID))
	return scanMentor(row)
}

// Update saves the profile guarded by the revision CAS.
func (r *MentorRepository) Update(ctx context.Context, p *mentor.Profile) error {
	query := `
		UPDATE mentor_profiles SET
			display_name = $1,
			designation = $2,
			skill_tags = $3,
			years_experience = $4,
			bio = $5,
			availability = $6,
			active = $7,
			revision = revision + 1,
			updated_at = $8
		WHERE id = $9 AND revision = $10
	`

	tagsJSON, availJSON, err := marshalMentorState(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := r.conn.Exec(ctx, query,
		p.DisplayName,
		p.Designation,
		tagsJSON,
		p.YearsExperience,
		p.Bio,
		availJSON,
		p.Active,
		now,
		string(p.ID),
		p.Revision,
	)
	if err != nil {
		return fmt.Errorf("failed to update mentor profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, existsErr := r.exists(ctx, p.ID)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return shared.ErrConcurrentModification
		}
		return shared.ErrMentorNotFound
	}

	p.Revision++
	p.UpdatedAt = now
	return nil
}

// Delete removes the mentor profile. Official edges held by learners keep
// the dangling reference until they end the relationship.
func (r *MentorRepository) Delete(ctx context.Context, id shared.ProfileID) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM mentor_profiles WHERE id = $1", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete mentor profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrMentorNotFound
	}

	return nil
}

// ListActive pages through active mentor profiles.
func (r *MentorRepository) ListActive(ctx context.Context, page shared.Pagination) ([]*mentor.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM mentor_profiles
		WHERE active
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`, mentorColumns)

	rows, err := r.conn.Query(ctx, query, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list active mentors: %w", err)
	}
	defer rows.Close()

	var profiles []*mentor.Profile
	for rows.Next() {
		p, err := scanMentorFromRows(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return profiles, nil
}

func (r *MentorRepository) exists(ctx context.Context, id shared.ProfileID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM mentor_profiles WHERE id = $1)",
		string(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check mentor existence: %w", err)
	}
	return exists, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func marshalMentorState(p *mentor.Profile) (tags, availability []byte, err error) {
	tags, err = json.Marshal(p.SkillTags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal skill tags: %w", err)
	}
	availability, err = json.Marshal(p.Availability)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal availability: %w", err)
	}
	return tags, availability, nil
}

func scanMentor(row pgx.Row) (*mentor.Profile, error) {
	var p mentor.Profile
	var id, accountID string
	var tagsJSON, availJSON []byte

	err := row.Scan(
		&id,
		&accountID,
		&p.DisplayName,
		&p.Designation,
		&tagsJSON,
		&p.YearsExperience,
		&p.Bio,
		&availJSON,
		&p.Active,
		&p.Revision,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrMentorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mentor profile: %w", err)
	}

	if err := hydrateMentor(&p, id, accountID, tagsJSON, availJSON); err != nil {
		return nil, err
	}

	return &p, nil
}

func scanMentorFromRows(rows pgx.Rows) (*mentor.Profile, error) {
	var p mentor.Profile
	var id, accountID string
	var tagsJSON, availJSON []byte

	err := rows.Scan(
		&id,
		&accountID,
		&p.DisplayName,
		&p.Designation,
		&tagsJSON,
		&p.YearsExperience,
		&p.Bio,
		&availJSON,
		&p.Active,
		&p.Revision,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan mentor profile: %w", err)
	}

	if err := hydrateMentor(&p, id, accountID, tagsJSON, availJSON); err != nil {
		return nil, err
	}

	return &p, nil
}

func hydrateMentor(p *mentor.Profile, id, accountID string, tagsJSON, availJSON []byte) error {
	p.ID = shared.ProfileID(id)
	p.AccountID = shared.AccountID(accountID)

	if err := json.Unmarshal(tagsJSON, &p.SkillTags); err != nil {
		return fmt.Errorf("failed to unmarshal skill tags: %w", err)
	}
	if err := json.Unmarshal(availJSON, &p.Availability); err != nil {
		return fmt.Errorf("failed to unmarshal availability: %w", err)
	}

	return nil
}
