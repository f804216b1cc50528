package postgres

import (
	"context"
	"fmt"
	"strings"

	"hackomatic/internal/domain"
)

type teamMemberRepository struct {
	DB DBTX
}

func NewTeamMemberRepository(db DBTX) domain.MembershipRepository {
	return &teamMemberRepository{
		DB: db,
	}
}

func (r *teamMemberRepository) Add(ctx context.Context, teamID int64, email string) (bool, error) {
	query := `
		INSERT INTO team_memberships (team_id, member_email)
		VALUES ($1, $2)
		ON CONFLICT (team_id, member_email) DO NOTHING
	`
	result, err := r.DB.ExecContext(ctx, query, teamID, email)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *teamMemberRepository) Remove(ctx context.Context, teamID int64, email string) error {
	query := `DELETE FROM team_memberships WHERE team_id = $1 AND member_email = $2`
	result, err := r.DB.ExecContext(ctx, query, teamID, email)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *teamMemberRepository) IsMember(ctx context.Context, email string, teamID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM team_memberships WHERE member_email = $1 AND team_id = $2`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, email, teamID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *teamMemberRepository) TeamsOf(ctx context.Context, email string) ([]int64, error) {
	query := `SELECT team_id FROM team_memberships WHERE member_email = $1 ORDER BY team_id`
	rows, err := r.DB.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *teamMemberRepository) ListByTeamIDs(ctx context.Context, teamIDs []int64) ([]*domain.TeamMembership, error) {
	if len(teamIDs) == 0 {
		return []*domain.TeamMembership{}, nil
	}
	placeholders := make([]string, len(teamIDs))
	args := make([]any, len(teamIDs))
	for i, id := range teamIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `
		SELECT team_id, member_email
		FROM team_memberships
		WHERE team_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY team_id, id
	`
	return r.query(ctx, query, args...)
}

func (r *teamMemberRepository) ListAll(ctx context.Context) ([]*domain.TeamMembership, error) {
	query := `
		SELECT team_id, member_email
		FROM team_memberships
		ORDER BY team_id, id
	`
	return r.query(ctx, query)
}

func (r *teamMemberRepository) query(ctx context.Context, query string, args ...any) ([]*domain.TeamMembership, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]*domain.TeamMembership, 0)
	for rows.Next() {
		m := &domain.TeamMembership{}
		if err := rows.Scan(&m.TeamID, &m.MemberEmail); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *teamMemberRepository) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT member_email FROM team_memberships ORDER BY member_email`)
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

func (r *teamMemberRepository) DeleteByTeam(ctx context.Context, teamID int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM team_memberships WHERE team_id = $1`, teamID)
	return err
}
