package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hackomatic/internal/domain"
)

type phaseRepository struct {
	DB DBTX
}

func NewPhaseRepository(db DBTX) domain.PhaseRepository {
	return &phaseRepository{
		DB: db,
	}
}

func (r *phaseRepository) Current(ctx context.Context) (domain.Phase, error) {
	query := `SELECT name FROM phases ORDER BY id DESC LIMIT 1`
	var name string
	if err := r.DB.QueryRowContext(ctx, query).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.InitialPhase, nil
		}
		return "", err
	}
	return domain.ParsePhase(name)
}

func (r *phaseRepository) Append(ctx context.Context, t *domain.PhaseTransition) error {
	query := `
		INSERT INTO phases (name, actor_email, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, string(t.Phase), t.ActorEmail, t.CreatedAt).Scan(&t.ID)
}

func (r *phaseRepository) History(ctx context.Context) ([]*domain.PhaseTransition, error) {
	query := `
		SELECT id, name, actor_email, created_at
		FROM phases
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	log := make([]*domain.PhaseTransition, 0)
	for rows.Next() {
		t := &domain.PhaseTransition{}
		var name string
		if err := rows.Scan(&t.ID, &name, &t.ActorEmail, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Phase = domain.Phase(name)
		log = append(log, t)
	}
	return log, rows.Err()
}
