package postgres

import (
	"context"

	"hackomatic/internal/domain"
)

type voteRepository struct {
	DB DBTX
}

func NewVoteRepository(db DBTX) domain.VoteRepository {
	return &voteRepository{
		DB: db,
	}
}

// ReplaceAllocation must run inside a transaction; otherwise a failed insert
// leaves the voter with a partial allocation.
func (r *voteRepository) ReplaceAllocation(ctx context.Context, voterEmail string, alloc domain.Allocation) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM votes WHERE voter_email = $1`, voterEmail); err != nil {
		return err
	}
	query := `
		INSERT INTO votes (voter_email, team_id, points)
		VALUES ($1, $2, $3)
	`
	for _, teamID := range alloc.TeamIDs() {
		points := alloc[teamID]
		if points == 0 {
			continue
		}
		if _, err := r.DB.ExecContext(ctx, query, voterEmail, teamID, points); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrNotFound
			}
			return err
		}
	}
	return nil
}

func (r *voteRepository) AllocationOf(ctx context.Context, voterEmail string) (domain.Allocation, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT team_id, points FROM votes WHERE voter_email = $1`, voterEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	alloc := make(domain.Allocation)
	for rows.Next() {
		var teamID, points int64
		if err := rows.Scan(&teamID, &points); err != nil {
			return nil, err
		}
		alloc[teamID] = points
	}
	return alloc, rows.Err()
}

func (r *voteRepository) ListAll(ctx context.Context) ([]*domain.Vote, error) {
	query := `
		SELECT voter_email, team_id, points
		FROM votes
		ORDER BY voter_email, team_id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	votes := make([]*domain.Vote, 0)
	for rows.Next() {
		v := &domain.Vote{}
		if err := rows.Scan(&v.VoterEmail, &v.TeamID, &v.Points); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (r *voteRepository) DeleteByTeam(ctx context.Context, teamID int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM votes WHERE team_id = $1`, teamID)
	return err
}
