// Package database opens the application's SQL store and creates its schema.
// PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite) share the repository SQL;
// only the DDL differs.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Open opens and pings the database of the given type.
func Open(ctx context.Context, dbType, url string) (*sql.DB, error) {
	driver, err := driverName(dbType)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbType, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dbType, err)
	}
	return db, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB, dbType string) error {
	schema, err := schemaFor(dbType)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func driverName(dbType string) (string, error) {
	switch dbType {
	case TypePostgres:
		return "postgres", nil
	case TypeSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

func schemaFor(dbType string) (string, error) {
	switch dbType {
	case TypePostgres:
		return postgresSchema, nil
	case TypeSQLite:
		return sqliteSchema, nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS teams (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    creator_email TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_teams_creator_email ON teams(creator_email);

CREATE TABLE IF NOT EXISTS team_memberships (
    id BIGSERIAL PRIMARY KEY,
    team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    member_email TEXT NOT NULL,
    UNIQUE (team_id, member_email)
);

CREATE INDEX IF NOT EXISTS idx_team_memberships_member_email ON team_memberships(member_email);

CREATE TABLE IF NOT EXISTS votes (
    id BIGSERIAL PRIMARY KEY,
    voter_email TEXT NOT NULL,
    team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    points BIGINT NOT NULL CHECK (points > 0),
    UNIQUE (voter_email, team_id)
);

CREATE TABLE IF NOT EXISTS phases (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL CHECK (name IN ('registration', 'presentation', 'evaluation', 'revelation', 'celebration')),
    actor_email TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cheaters (
    email TEXT PRIMARY KEY,
    reason TEXT NOT NULL,
    flagged_at TIMESTAMPTZ NOT NULL,
    excluded BOOLEAN NOT NULL DEFAULT TRUE
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS teams (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    creator_email TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_teams_creator_email ON teams(creator_email);

CREATE TABLE IF NOT EXISTS team_memberships (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    team_id INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    member_email TEXT NOT NULL,
    UNIQUE (team_id, member_email)
);

CREATE INDEX IF NOT EXISTS idx_team_memberships_member_email ON team_memberships(member_email);

CREATE TABLE IF NOT EXISTS votes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    voter_email TEXT NOT NULL,
    team_id INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    points INTEGER NOT NULL CHECK (points > 0),
    UNIQUE (voter_email, team_id)
);

CREATE TABLE IF NOT EXISTS phases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL CHECK (name IN ('registration', 'presentation', 'evaluation', 'revelation', 'celebration')),
    actor_email TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cheaters (
    email TEXT PRIMARY KEY,
    reason TEXT NOT NULL,
    flagged_at TIMESTAMP NOT NULL,
    excluded BOOLEAN NOT NULL DEFAULT TRUE
);
`
