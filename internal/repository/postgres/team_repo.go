package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hackomatic/internal/domain"
)

type teamRepository struct {
	DB DBTX
}

func NewTeamRepository(db DBTX) domain.TeamRepository {
	return &teamRepository{
		DB: db,
	}
}

func (r *teamRepository) Create(ctx context.Context, t *domain.Team) error {
	query := `
		INSERT INTO teams (name, creator_email, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, t.Name, t.CreatorEmail, t.Description, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTeamName
		}
		return err
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	query := `
		SELECT id, name, creator_email, description, created_at
		FROM teams
		WHERE id = $1
	`
	t := &domain.Team{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatorEmail, &t.Description, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *teamRepository) List(ctx context.Context, page domain.PaginationParams) ([]*domain.Team, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, name, creator_email, description, created_at
		FROM teams
		ORDER BY lower(name), id
		LIMIT $1 OFFSET $2
	`
	teams, err := r.query(ctx, query, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

func (r *teamRepository) ListAll(ctx context.Context) ([]*domain.Team, error) {
	query := `
		SELECT id, name, creator_email, description, created_at
		FROM teams
		ORDER BY lower(name), id
	`
	return r.query(ctx, query)
}

func (r *teamRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Team, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	teams := make([]*domain.Team, 0)
	for rows.Next() {
		t := &domain.Team{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatorEmail, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *teamRepository) CountByCreator(ctx context.Context, creatorEmail string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE creator_email = $1`, creatorEmail).Scan(&n)
	return n, err
}

func (r *teamRepository) UpdateDescription(ctx context.Context, id int64, description string) error {
	query := `UPDATE teams SET description = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, description, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *teamRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
