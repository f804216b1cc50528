package postgres

import (
	"context"
	"time"

	"hackomatic/internal/domain"
)

type cheaterRepository struct {
	DB DBTX
}

func NewCheaterRepository(db DBTX) domain.CheaterRepository {
	return &cheaterRepository{
		DB: db,
	}
}

// Flag keeps the original reason and time while the voter stays excluded.
func (r *cheaterRepository) Flag(ctx context.Context, email, reason string, at time.Time) error {
	query := `
		INSERT INTO cheaters (email, reason, flagged_at, excluded)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (email) DO UPDATE
		SET reason = excluded.reason, flagged_at = excluded.flagged_at, excluded = TRUE
		WHERE cheaters.excluded = FALSE
	`
	_, err := r.DB.ExecContext(ctx, query, email, reason, at)
	return err
}

func (r *cheaterRepository) Reinstate(ctx context.Context, email string) error {
	query := `UPDATE cheaters SET excluded = FALSE WHERE email = $1 AND excluded = TRUE`
	_, err := r.DB.ExecContext(ctx, query, email)
	return err
}

func (r *cheaterRepository) ListExcluded(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT email FROM cheaters WHERE excluded = TRUE ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (r *cheaterRepository) List(ctx context.Context) ([]*domain.Cheater, error) {
	query := `
		SELECT email, reason, flagged_at, excluded
		FROM cheaters
		ORDER BY flagged_at, email
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cheaters := make([]*domain.Cheater, 0)
	for rows.Next() {
		c := &domain.Cheater{}
		if err := rows.Scan(&c.Email, &c.Reason, &c.FlaggedAt, &c.Excluded); err != nil {
			return nil, err
		}
		cheaters = append(cheaters, c)
	}
	return cheaters, rows.Err()
}
