package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"hackomatic/internal/domain"
)

type teamService struct {
	tx                 domain.Transactor
	maxTeamsPerCreator int
	emailSuffix        string
	contextTimeout     time.Duration
	now                func() time.Time
}

func NewTeamService(tx domain.Transactor, maxTeamsPerCreator int, emailSuffix string, timeout time.Duration) domain.TeamService {
	return &teamService{
		tx:                 tx,
		maxTeamsPerCreator: maxTeamsPerCreator,
		emailSuffix:        emailSuffix,
		contextTimeout:     timeout,
		now:                time.Now,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, user *domain.User, name, description string) (*domain.TeamWithMembers, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, &domain.InvalidInputError{Message: "team name is required"}
	}
	if utf8.RuneCountInString(name) > domain.MaxTeamNameLength {
		return nil, &domain.InvalidInputError{Message: fmt.Sprintf("team name must be at most %d characters", domain.MaxTeamNameLength)}
	}
	if err := checkDescription(description); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var team *domain.Team
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		if err := gate(ctx, store, user, domain.OpCreateTeam); err != nil {
			return err
		}
		if !user.IsAdmin {
			n, err := store.Teams().CountByCreator(ctx, user.Email)
			if err != nil {
				return err
			}
			if n >= s.maxTeamsPerCreator {
				return domain.ErrTeamLimitReached
			}
		}
		team = domain.NewTeam(name, user.Email, description, s.now().UTC())
		if err := store.Teams().Create(ctx, team); err != nil {
			return err
		}
		_, err := store.Members().Add(ctx, team.ID, user.Email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return &domain.TeamWithMembers{
		Team:    team,
		Members: []*domain.TeamMember{s.member(user.Email)},
	}, nil
}

func (s *teamService) JoinTeam(ctx context.Context, user *domain.User, teamID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		if err := gate(ctx, store, user, domain.OpJoinTeam); err != nil {
			return err
		}
		if _, err := store.Teams().GetByID(ctx, teamID); err != nil {
			return err
		}
		_, err := store.Members().Add(ctx, teamID, user.Email)
		return err
	})
	if err != nil {
		return fmt.Errorf("join team: %w", err)
	}
	return nil
}

func (s *teamService) LeaveTeam(ctx context.Context, user *domain.User, teamID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		if err := gate(ctx, store, user, domain.OpLeaveTeam); err != nil {
			return err
		}
		return store.Members().Remove(ctx, teamID, user.Email)
	})
	if err != nil {
		return fmt.Errorf("leave team: %w", err)
	}
	return nil
}

func (s *teamService) EditTeam(ctx context.Context, user *domain.User, teamID int64, description string) (*domain.Team, error) {
	description = strings.TrimSpace(description)
	if err := checkDescription(description); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var team *domain.Team
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		if err := gate(ctx, store, user, domain.OpEditTeam); err != nil {
			return err
		}
		var err error
		if team, err = s.ownedTeam(ctx, store, user, teamID); err != nil {
			return err
		}
		if err := store.Teams().UpdateDescription(ctx, teamID, description); err != nil {
			return err
		}
		team.Description = description
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("edit team: %w", err)
	}
	return team, nil
}

// DeleteTeam removes the team's votes and memberships before the team itself.
func (s *teamService) DeleteTeam(ctx context.Context, user *domain.User, teamID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		if err := gate(ctx, store, user, domain.OpDeleteTeam); err != nil {
			return err
		}
		if _, err := s.ownedTeam(ctx, store, user, teamID); err != nil {
			return err
		}
		if err := store.Votes().DeleteByTeam(ctx, teamID); err != nil {
			return err
		}
		if err := store.Members().DeleteByTeam(ctx, teamID); err != nil {
			return err
		}
		return store.Teams().Delete(ctx, teamID)
	})
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

func (s *teamService) ListTeams(ctx context.Context, page domain.PaginationParams) (*domain.TeamPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	out := &domain.TeamPage{Teams: make([]*domain.TeamWithMembers, 0)}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		teams, total, err := store.Teams().List(ctx, page)
		if err != nil {
			return err
		}
		ids := make([]int64, len(teams))
		for i, t := range teams {
			ids[i] = t.ID
		}
		memberships, err := store.Members().ListByTeamIDs(ctx, ids)
		if err != nil {
			return err
		}
		byTeam := make(map[int64][]*domain.TeamMember, len(teams))
		for _, m := range memberships {
			byTeam[m.TeamID] = append(byTeam[m.TeamID], s.member(m.MemberEmail))
		}
		out.Teams = out.Teams[:0]
		for _, t := range teams {
			members := byTeam[t.ID]
			if members == nil {
				members = []*domain.TeamMember{}
			}
			out.Teams = append(out.Teams, &domain.TeamWithMembers{Team: t, Members: members})
		}
		out.Total = total
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return out, nil
}

func (s *teamService) ownedTeam(ctx context.Context, store domain.Store, user *domain.User, teamID int64) (*domain.Team, error) {
	team, err := store.Teams().GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CreatorEmail != user.Email && !user.IsAdmin {
		return nil, domain.ErrForbidden
	}
	return team, nil
}

func (s *teamService) member(email string) *domain.TeamMember {
	return &domain.TeamMember{
		Email:       email,
		DisplayName: domain.DisplayName(email, s.emailSuffix),
	}
}

func checkDescription(description string) error {
	if utf8.RuneCountInString(description) > domain.MaxTeamDescriptionLength {
		return &domain.InvalidInputError{Message: fmt.Sprintf("description must be at most %d characters", domain.MaxTeamDescriptionLength)}
	}
	return nil
}

// gate checks op against the phase read inside the caller's transaction.
func gate(ctx context.Context, store domain.Store, user *domain.User, op domain.Operation) error {
	phase, err := store.Phases().Current(ctx)
	if err != nil {
		return err
	}
	return domain.CanPerform(phase, op, user.IsAdmin)
}
