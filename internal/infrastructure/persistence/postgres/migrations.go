// Package postgres implements the PostgreSQL persistence layer for the
// mentorship hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEARNER PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learner profiles table
-- Version: 001
-- The relationship ledger is denormalized into a JSONB column: each side
-- of a peer connection carries its own copy of the edge, so a profile
-- read never needs a join. Revision is the optimistic-lock counter.

CREATE TABLE IF NOT EXISTS learner_profiles (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL UNIQUE,
    display_name VARCHAR(100) NOT NULL,
    branch VARCHAR(30) NOT NULL,
    year SMALLINT NOT NULL,
    term SMALLINT NOT NULL,
    strong_subjects JSONB NOT NULL DEFAULT '[]'::jsonb,
    preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
    ledger JSONB NOT NULL DEFAULT '{}'::jsonb,
    profile_completed BOOLEAN NOT NULL DEFAULT FALSE,
    revision BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_year CHECK (year >= 1 AND year <= 4),
    CONSTRAINT valid_term CHECK (term >= 1 AND term <= 8),
    CONSTRAINT valid_revision CHECK (revision >= 0)
);

CREATE INDEX IF NOT EXISTS idx_learner_profiles_account_id ON learner_profiles(account_id);
CREATE INDEX IF NOT EXISTS idx_learner_profiles_branch ON learner_profiles(branch);

-- Candidate search: branch scan filtered by strong-subject containment.
CREATE INDEX IF NOT EXISTS idx_learner_profiles_strong_subjects
    ON learner_profiles USING GIN (strong_subjects jsonb_path_ops);

-- Official-mentor inverse lookup and reconciliation scans go through the
-- ledger column.
CREATE INDEX IF NOT EXISTS idx_learner_profiles_ledger
    ON learner_profiles USING GIN (ledger jsonb_path_ops);
`

const migration001Down = `
DROP TABLE IF EXISTS learner_profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MENTOR PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create mentor profiles table
-- Version: 002
-- Professional mentors hold no relationship state of their own: official
-- edges live only on the learner side, so this table is plain profile data.

CREATE TABLE IF NOT EXISTS mentor_profiles (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL UNIQUE,
    display_name VARCHAR(100) NOT NULL,
    designation VARCHAR(100) NOT NULL DEFAULT '',
    skill_tags JSONB NOT NULL DEFAULT '[]'::jsonb,
    years_experience INTEGER NOT NULL DEFAULT 0,
    bio TEXT NOT NULL DEFAULT '',
    availability JSONB NOT NULL DEFAULT '[]'::jsonb,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    revision BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_years_experience CHECK (years_experience >= 0),
    CONSTRAINT valid_mentor_revision CHECK (revision >= 0)
);

CREATE INDEX IF NOT EXISTS idx_mentor_profiles_account_id ON mentor_profiles(account_id);
CREATE INDEX IF NOT EXISTS idx_mentor_profiles_active ON mentor_profiles(active) WHERE active;
`

const migration002Down = `
DROP TABLE IF EXISTS mentor_profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_learner_profiles",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_mentor_profiles",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}
