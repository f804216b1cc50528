// Package postgres implements the domain repositories on database/sql.
// The queries use PostgreSQL syntax that SQLite also accepts ($N placeholders,
// ON CONFLICT, RETURNING), so the same repositories serve both drivers.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"hackomatic/internal/domain"
)

// maxTxAttempts bounds how often a transaction is re-run on a transient conflict.
const maxTxAttempts = 6

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type store struct {
	db DBTX
}

// NewStore returns the repositories bound to db, which may be a transaction.
func NewStore(db DBTX) domain.Store {
	return &store{db: db}
}

func (s *store) Phases() domain.PhaseRepository       { return NewPhaseRepository(s.db) }
func (s *store) Teams() domain.TeamRepository         { return NewTeamRepository(s.db) }
func (s *store) Members() domain.MembershipRepository { return NewTeamMemberRepository(s.db) }
func (s *store) Votes() domain.VoteRepository         { return NewVoteRepository(s.db) }
func (s *store) Cheaters() domain.CheaterRepository   { return NewCheaterRepository(s.db) }

type transactor struct {
	DB         *sql.DB
	retryDelay time.Duration
}

// NewTransactor returns a domain.Transactor over db.
func NewTransactor(db *sql.DB) domain.Transactor {
	return &transactor{
		DB:         db,
		retryDelay: 10 * time.Millisecond,
	}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store domain.Store) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = t.runOnce(ctx, fn)
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt == maxTxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, ctx.Err())
		case <-time.After(time.Duration(attempt) * t.retryDelay):
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (t *transactor) runOnce(ctx context.Context, fn func(ctx context.Context, store domain.Store) error) error {
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, NewStore(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// isTransient reports a lock or serialization conflict worth retrying.
func isTransient(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return isConstraint(liteErr, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return isConstraint(liteErr, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
	}
	return false
}

// isConstraint matches the extended code, or the primary code plus message
// when the connection reports primary codes only.
func isConstraint(err *sqlite.Error, extended int, kind string) bool {
	if err.Code() == extended {
		return true
	}
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), kind)
}
