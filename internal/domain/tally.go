package domain

import (
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// TallyMode selects the ordering of the standings.
type TallyMode string

const (
	// TallyRevelation orders ascending so the winner comes last.
	TallyRevelation TallyMode = "revelation"
	// TallyCelebration orders descending so the winner comes first.
	TallyCelebration TallyMode = "celebration"
)

// ParseTallyMode parses a mode name; empty means "pick by phase".
func ParseTallyMode(s string) (TallyMode, error) {
	switch TallyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case TallyRevelation:
		return TallyRevelation, nil
	case TallyCelebration:
		return TallyCelebration, nil
	}
	return "", invalidInput("unknown results mode %q", s)
}

// DefaultTallyMode is the ordering a results page uses in the given phase.
func DefaultTallyMode(phase Phase) TallyMode {
	if phase == PhaseRevelation {
		return TallyRevelation
	}
	return TallyCelebration
}

// Standing is one team's line in the results.
// swagger:model Standing
type Standing struct {
	TeamID int64  `json:"team_id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
	// Rank is 1 for the most points; tied teams share a rank.
	Rank  int    `json:"rank"`
	Place string `json:"place"`
}

// Results is a computed tally. It is never stored.
// swagger:model Results
type Results struct {
	Phase          Phase       `json:"phase"`
	Mode           TallyMode   `json:"mode"`
	Standings      []*Standing `json:"standings"`
	ExcludedVoters int         `json:"excluded_voters"`
}

// Tally sums points per team over every vote whose voter is not excluded.
// Every team appears, with 0 points if nobody voted for it. Revelation order is
// ascending by points, Celebration descending; both break ties by
// case-insensitive name, then by ID.
func Tally(teams []*Team, votes []*Vote, excluded map[string]bool, mode TallyMode) []*Standing {
	totals := make(map[int64]int64, len(teams))
	for _, v := range votes {
		if excluded[v.VoterEmail] {
			continue
		}
		totals[v.TeamID] += v.Points
	}

	standings := make([]*Standing, 0, len(teams))
	for _, t := range teams {
		standings = append(standings, &Standing{
			TeamID: t.ID,
			Name:   t.Name,
			Points: totals[t.ID],
		})
	}

	byName := func(a, b *Standing) bool {
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.TeamID < b.TeamID
	}

	// Rank on the descending order first, then reorder for the requested mode.
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return byName(a, b)
	})
	for i, s := range standings {
		if i > 0 && standings[i-1].Points == s.Points {
			s.Rank = standings[i-1].Rank
		} else {
			s.Rank = i + 1
		}
		s.Place = humanize.Ordinal(s.Rank)
	}

	if mode == TallyRevelation {
		sort.SliceStable(standings, func(i, j int) bool {
			a, b := standings[i], standings[j]
			if a.Points != b.Points {
				return a.Points < b.Points
			}
			return byName(a, b)
		})
	}
	return standings
}
