package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackomatic/internal/domain"
)

const testBudget = 100

var admin = &domain.User{Email: "admin@example.com", IsAdmin: true}

type fixture struct {
	tx     *fakeTransactor
	teams  domain.TeamService
	voting domain.VotingService
	phases domain.PhaseService
}

func newFixture() *fixture {
	tx := newFakeTransactor()
	return &fixture{
		tx:     tx,
		teams:  NewTeamService(tx, 1, "@example.com", time.Second),
		voting: NewVotingService(tx, testBudget, discardLogger(), time.Second),
		phases: NewPhaseService(tx, nil, discardLogger(), "", "@example.com", time.Second),
	}
}

func (f *fixture) createTeam(t *testing.T, creator, name string) int64 {
	t.Helper()
	team, err := f.teams.CreateTeam(context.Background(), &domain.User{Email: creator}, name, "")
	require.NoError(t, err)
	return team.ID
}

func (f *fixture) setPhase(t *testing.T, p domain.Phase) {
	t.Helper()
	_, err := f.phases.SetPhase(context.Background(), admin, p)
	require.NoError(t, err)
}

func points(results *domain.Results) map[string]int64 {
	out := make(map[string]int64)
	for _, s := range results.Standings {
		out[s.Name] = s.Points
	}
	return out
}

func TestVoting_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := &domain.User{Email: "v@example.com"}

	a := f.createTeam(t, "a@example.com", "Alpha")
	b := f.createTeam(t, "b@example.com", "Bravo")
	c := f.createTeam(t, "c@example.com", "Charlie")
	require.NoError(t, f.teams.JoinTeam(ctx, v, a))
	f.setPhase(t, domain.PhaseEvaluation)

	_, err := f.voting.SubmitVote(ctx, v, domain.Allocation{a: 5, b: 3, c: 0})
	var rej *domain.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, domain.ReasonSelfVote, rej.Reason)
	assert.Equal(t, a, rej.TeamID)

	ballot, err := f.voting.SubmitVote(ctx, v, domain.Allocation{b: 3, c: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(9), ballot.Cost)
	assert.Equal(t, int64(91), ballot.Remaining)
	assert.Equal(t, domain.Allocation{b: 3}, ballot.Points)

	f.setPhase(t, domain.PhaseRegistration)
	require.NoError(t, f.teams.JoinTeam(ctx, v, b))
	f.setPhase(t, domain.PhaseRevelation)

	results, err := f.voting.Tally(ctx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TallyRevelation, results.Mode)
	assert.Equal(t, int64(0), points(results)["Bravo"])
	assert.Equal(t, 1, results.ExcludedVoters)

	cheaters, err := f.voting.ListCheaters(ctx, admin)
	require.NoError(t, err)
	require.Len(t, cheaters, 1)
	assert.Equal(t, "v@example.com", cheaters[0].Email)
	assert.Equal(t, string(domain.ReasonSelfVote), cheaters[0].Reason)
	assert.True(t, cheaters[0].Excluded)

	f.setPhase(t, domain.PhaseEvaluation)
	ballot, err = f.voting.SubmitVote(ctx, v, domain.Allocation{c: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(16), ballot.Cost)

	f.setPhase(t, domain.PhaseRevelation)
	results, err = f.voting.Tally(ctx, admin, domain.TallyCelebration)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Alpha": 0, "Bravo": 0, "Charlie": 4}, points(results))
	assert.Equal(t, 0, results.ExcludedVoters)
	assert.Equal(t, "Charlie", results.Standings[0].Name)

	cheaters, err = f.voting.ListCheaters(ctx, admin)
	require.NoError(t, err)
	require.Len(t, cheaters, 1, "flags are kept")
	assert.False(t, cheaters[0].Excluded)
}

func TestVoting_SubmitOutsideEvaluation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.createTeam(t, "a@example.com", "Alpha")
	v := &domain.User{Email: "v@example.com"}

	for _, p := range []domain.Phase{domain.PhaseRegistration, domain.PhasePresentation, domain.PhaseRevelation, domain.PhaseCelebration} {
		f.tx.setPhase(p)
		_, err := f.voting.SubmitVote(ctx, v, domain.Allocation{a: 1})
		require.ErrorIs(t, err, domain.ErrPhaseViolation, p)

		// even an invalid allocation is reported as a phase violation
		_, err = f.voting.SubmitVote(ctx, v, domain.Allocation{a: 50})
		require.ErrorIs(t, err, domain.ErrPhaseViolation, p)
	}
	ballot, err := f.voting.MyBallot(ctx, v)
	require.NoError(t, err)
	assert.Empty(t, ballot.Points)
}

func TestVoting_ReplaceAndIdempotence(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.createTeam(t, "a@example.com", "Alpha")
	b := f.createTeam(t, "b@example.com", "Bravo")
	f.tx.setPhase(domain.PhaseEvaluation)
	v := &domain.User{Email: "v@example.com"}

	_, err := f.voting.SubmitVote(ctx, v, domain.Allocation{a: 3})
	require.NoError(t, err)
	_, err = f.voting.SubmitVote(ctx, v, domain.Allocation{a: 0, b: 2})
	require.NoError(t, err)

	ballot, err := f.voting.MyBallot(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, domain.Allocation{b: 2}, ballot.Points)

	_, err = f.voting.SubmitVote(ctx, v, domain.Allocation{a: 6, b: 8})
	require.NoError(t, err)
	first := f.tx.state.clone()
	_, err = f.voting.SubmitVote(ctx, v, domain.Allocation{a: 6, b: 8})
	require.NoError(t, err)
	assert.Equal(t, first.votes, f.tx.state.votes)
	assert.Equal(t, int64(100), storedCost(t, f, v))
}

func storedCost(t *testing.T, f *fixture, v *domain.User) int64 {
	t.Helper()
	ballot, err := f.voting.MyBallot(context.Background(), v)
	require.NoError(t, err)
	return ballot.Cost
}

func TestVoting_RejectionsWriteNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.createTeam(t, "a@example.com", "Alpha")
	b := f.createTeam(t, "b@example.com", "Bravo")
	f.tx.setPhase(domain.PhaseEvaluation)
	v := &domain.User{Email: "v@example.com"}

	_, err := f.voting.SubmitVote(ctx, v, domain.Allocation{a: 1})
	require.NoError(t, err)

	tests := []struct {
		name   string
		alloc  domain.Allocation
		reason domain.RejectionReason
	}{
		{"negative", domain.Allocation{a: -1}, domain.ReasonNegativePoints},
		{"over budget", domain.Allocation{a: 7, b: 8}, domain.ReasonBudgetExceeded},
		{"unknown team", domain.Allocation{999: 1}, domain.ReasonUnknownTeam},
		{"overflow", domain.Allocation{a: domain.MaxPoints + 1}, domain.ReasonOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.voting.SubmitVote(ctx, v, tt.alloc)
			require.ErrorIs(t, err, domain.ErrVoteRejected)
			var rej *domain.Rejection
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tt.reason, rej.Reason)

			ballot, err := f.voting.MyBallot(ctx, v)
			require.NoError(t, err)
			assert.Equal(t, domain.Allocation{a: 1}, ballot.Points)
		})
	}
}

func TestVoting_TallyGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.createTeam(t, "a@example.com", "Alpha")
	viewer := &domain.User{Email: "viewer@example.com"}

	f.tx.setPhase(domain.PhaseRevelation)
	_, err := f.voting.Tally(ctx, viewer, "")
	require.ErrorIs(t, err, domain.ErrPhaseViolation)
	_, err = f.voting.Tally(ctx, admin, "")
	require.NoError(t, err)

	f.tx.setPhase(domain.PhaseCelebration)
	results, err := f.voting.Tally(ctx, viewer, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TallyCelebration, results.Mode)
	require.Len(t, results.Standings, 1)
	assert.Equal(t, "1st", results.Standings[0].Place)

	f.tx.setPhase(domain.PhaseEvaluation)
	_, err = f.voting.Tally(ctx, admin, "")
	require.ErrorIs(t, err, domain.ErrPhaseViolation)
}

func TestVoting_ListCheatersAdminOnly(t *testing.T) {
	f := newFixture()
	_, err := f.voting.ListCheaters(context.Background(), &domain.User{Email: "v@example.com"})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestVoting_StoreUnavailable(t *testing.T) {
	f := newFixture()
	f.tx.err = domain.ErrStoreUnavailable
	_, err := f.voting.SubmitVote(context.Background(), &domain.User{Email: "v@example.com"}, domain.Allocation{1: 1})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
