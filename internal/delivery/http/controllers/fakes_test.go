package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"hackomatic/internal/delivery/http/helpers"
	"hackomatic/internal/delivery/http/middleware"
	"hackomatic/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const adminEmail = "admin@example.com"

func withUser(req *http.Request, email string) *http.Request {
	return req.WithContext(middleware.SetUser(req.Context(), domain.NewUser(email, adminEmail)))
}

// decodeEnvelope decodes the response envelope and, when dest is non-nil, its data.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if dest != nil {
		require.Nil(t, envelope.Error)
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, dest))
	}
	return envelope
}

// fakePhaseService implements domain.PhaseService for handler tests.
type fakePhaseService struct {
	phase      domain.Phase
	err        error
	history    []*domain.PhaseTransition
	lastTarget domain.Phase
	lastUser   *domain.User
}

func (f *fakePhaseService) Status(_ context.Context, user *domain.User) (*domain.PhaseStatus, error) {
	f.lastUser = user
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PhaseStatus{Phase: f.phase, Permissions: domain.Permissions(f.phase, user.IsAdmin)}, nil
}

func (f *fakePhaseService) History(_ context.Context, user *domain.User) ([]*domain.PhaseTransition, error) {
	f.lastUser = user
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func (f *fakePhaseService) SetPhase(_ context.Context, user *domain.User, target domain.Phase) (*domain.PhaseTransition, error) {
	f.lastUser = user
	f.lastTarget = target
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PhaseTransition{ID: 1, Phase: target, ActorEmail: user.Email}, nil
}

func (f *fakePhaseService) Next(ctx context.Context, user *domain.User) (*domain.PhaseTransition, error) {
	return f.SetPhase(ctx, user, f.phase.Next())
}

func (f *fakePhaseService) Prev(ctx context.Context, user *domain.User) (*domain.PhaseTransition, error) {
	return f.SetPhase(ctx, user, f.phase.Prev())
}

// fakeTeamService implements domain.TeamService for handler tests.
type fakeTeamService struct {
	err             error
	page            *domain.TeamPage
	lastPage        domain.PaginationParams
	lastName        string
	lastDescription string
	lastTeamID      int64
	lastCall        string
}

func (f *fakeTeamService) CreateTeam(_ context.Context, user *domain.User, name, description string) (*domain.TeamWithMembers, error) {
	f.lastCall, f.lastName, f.lastDescription = "create", name, description
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TeamWithMembers{
		Team:    &domain.Team{ID: 7, Name: name, Description: description, CreatorEmail: user.Email},
		Members: []*domain.TeamMember{{Email: user.Email, DisplayName: user.Email}},
	}, nil
}

func (f *fakeTeamService) JoinTeam(_ context.Context, _ *domain.User, teamID int64) error {
	f.lastCall, f.lastTeamID = "join", teamID
	return f.err
}

func (f *fakeTeamService) LeaveTeam(_ context.Context, _ *domain.User, teamID int64) error {
	f.lastCall, f.lastTeamID = "leave", teamID
	return f.err
}

func (f *fakeTeamService) EditTeam(_ context.Context, user *domain.User, teamID int64, description string) (*domain.Team, error) {
	f.lastCall, f.lastTeamID, f.lastDescription = "edit", teamID, description
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Team{ID: teamID, Name: "Alpha", Description: description, CreatorEmail: user.Email}, nil
}

func (f *fakeTeamService) DeleteTeam(_ context.Context, _ *domain.User, teamID int64) error {
	f.lastCall, f.lastTeamID = "delete", teamID
	return f.err
}

func (f *fakeTeamService) ListTeams(_ context.Context, page domain.PaginationParams) (*domain.TeamPage, error) {
	f.lastCall, f.lastPage = "list", page
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

// fakeVotingService implements domain.VotingService for handler tests.
type fakeVotingService struct {
	err       error
	ballot    *domain.Ballot
	results   *domain.Results
	cheaters  []*domain.Cheater
	lastAlloc domain.Allocation
	lastMode  domain.TallyMode
}

func (f *fakeVotingService) SubmitVote(_ context.Context, _ *domain.User, alloc domain.Allocation) (*domain.Ballot, error) {
	f.lastAlloc = alloc
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewBallot(alloc.Normalize(), 100), nil
}

func (f *fakeVotingService) MyBallot(_ context.Context, _ *domain.User) (*domain.Ballot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ballot, nil
}

func (f *fakeVotingService) Tally(_ context.Context, _ *domain.User, mode domain.TallyMode) (*domain.Results, error) {
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeVotingService) ListCheaters(_ context.Context, user *domain.User) ([]*domain.Cheater, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !user.IsAdmin {
		return nil, domain.ErrForbidden
	}
	return f.cheaters, nil
}
