package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(standings []*Standing) []string {
	out := make([]string, len(standings))
	for i, s := range standings {
		out[i] = s.Name
	}
	return out
}

func TestTally_TieBreakByName(t *testing.T) {
	teams := []*Team{
		{ID: 3, Name: "Charlie"},
		{ID: 2, Name: "Bravo"},
		{ID: 1, Name: "Alpha"},
	}
	votes := []*Vote{
		{VoterEmail: "a@x", TeamID: 1, Points: 6},
		{VoterEmail: "b@x", TeamID: 1, Points: 4},
		{VoterEmail: "a@x", TeamID: 2, Points: 7},
		{VoterEmail: "c@x", TeamID: 2, Points: 3},
		{VoterEmail: "c@x", TeamID: 3, Points: 5},
	}

	rev := Tally(teams, votes, nil, TallyRevelation)
	assert.Equal(t, []string{"Charlie", "Alpha", "Bravo"}, names(rev))
	assert.Equal(t, []int64{5, 10, 10}, []int64{rev[0].Points, rev[1].Points, rev[2].Points})

	cel := Tally(teams, votes, nil, TallyCelebration)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, names(cel))
	assert.Equal(t, 1, cel[0].Rank)
	assert.Equal(t, 1, cel[1].Rank)
	assert.Equal(t, 3, cel[2].Rank)
	assert.Equal(t, "1st", cel[0].Place)
	assert.Equal(t, "3rd", cel[2].Place)
}

func TestTally_RevelationIsReverseOfCelebrationWithoutTies(t *testing.T) {
	teams := []*Team{
		{ID: 1, Name: "delta"},
		{ID: 2, Name: "Echo"},
		{ID: 3, Name: "foxtrot"},
		{ID: 4, Name: "Golf"},
	}
	votes := []*Vote{
		{VoterEmail: "a@x", TeamID: 1, Points: 1},
		{VoterEmail: "a@x", TeamID: 2, Points: 4},
		{VoterEmail: "b@x", TeamID: 3, Points: 2},
		{VoterEmail: "b@x", TeamID: 4, Points: 3},
	}
	rev := names(Tally(teams, votes, nil, TallyRevelation))
	cel := names(Tally(teams, votes, nil, TallyCelebration))
	require.Len(t, rev, 4)
	for i := range rev {
		assert.Equal(t, cel[len(cel)-1-i], rev[i])
	}
}

func TestTally_ExcludesVotersAndKeepsEmptyTeams(t *testing.T) {
	teams := []*Team{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "bravo"}}
	votes := []*Vote{
		{VoterEmail: "honest@x", TeamID: 1, Points: 2},
		{VoterEmail: "cheat@x", TeamID: 2, Points: 9},
	}
	got := Tally(teams, votes, map[string]bool{"cheat@x": true}, TallyCelebration)
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, int64(2), got[0].Points)
	assert.Equal(t, "bravo", got[1].Name)
	assert.Equal(t, int64(0), got[1].Points)
}

func TestTally_CaseInsensitiveNameOrder(t *testing.T) {
	teams := []*Team{{ID: 1, Name: "beta"}, {ID: 2, Name: "Alpha"}, {ID: 3, Name: "alpha"}}
	got := Tally(teams, nil, nil, TallyCelebration)
	assert.Equal(t, []string{"Alpha", "alpha", "beta"}, names(got))
}

func TestParseTallyMode(t *testing.T) {
	m, err := ParseTallyMode("Revelation")
	require.NoError(t, err)
	assert.Equal(t, TallyRevelation, m)

	m, err = ParseTallyMode("")
	require.NoError(t, err)
	assert.Equal(t, TallyMode(""), m)

	_, err = ParseTallyMode("sideways")
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, TallyRevelation, DefaultTallyMode(PhaseRevelation))
	assert.Equal(t, TallyCelebration, DefaultTallyMode(PhaseCelebration))
}
