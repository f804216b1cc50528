package domain

import (
	"fmt"
	"math"
)

const maxInt64 = math.MaxInt64

// MaxPoints is the largest point value whose square fits in an int64.
const MaxPoints int64 = 3037000499

// RejectionReason says which voting rule an allocation broke.
type RejectionReason string

const (
	ReasonNegativePoints RejectionReason = "negative_points"
	ReasonSelfVote       RejectionReason = "self_vote"
	ReasonUnknownTeam    RejectionReason = "unknown_team"
	ReasonOverflow       RejectionReason = "overflow"
	ReasonBudgetExceeded RejectionReason = "budget_exceeded"
)

// Rejection is the validator's verdict on an invalid allocation. It matches
// ErrVoteRejected with errors.Is.
// swagger:model Rejection
type Rejection struct {
	Reason RejectionReason `json:"reason"`
	TeamID int64           `json:"team_id,omitempty"`
	Cost   int64           `json:"cost,omitempty"`
	Budget int64           `json:"budget,omitempty"`
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonNegativePoints:
		return fmt.Sprintf("points must not be negative (team %d)", r.TeamID)
	case ReasonSelfVote:
		return fmt.Sprintf("you cannot vote for team %d because you are a member", r.TeamID)
	case ReasonUnknownTeam:
		return fmt.Sprintf("team %d does not exist", r.TeamID)
	case ReasonOverflow:
		return fmt.Sprintf("points for team %d are too large", r.TeamID)
	case ReasonBudgetExceeded:
		return fmt.Sprintf("allocation costs %d coins but the budget is %d", r.Cost, r.Budget)
	}
	return string(r.Reason)
}

func (r *Rejection) Unwrap() error {
	return ErrVoteRejected
}

// Validate checks an allocation against the quadratic voting rules, in order:
// no negative points, no points for the voter's own teams, only known teams,
// no overflowing squares, and Σ points² ≤ budget. Zero entries are ignored.
// Teams are visited in ascending ID order so the reported team is stable.
// memberOf holds the voter's current teams; knownTeams may be nil to skip the
// existence check. It returns nil when the allocation is accepted.
func Validate(alloc Allocation, budget int64, memberOf, knownTeams map[int64]bool) *Rejection {
	ids := alloc.TeamIDs()

	for _, id := range ids {
		if alloc[id] < 0 {
			return &Rejection{Reason: ReasonNegativePoints, TeamID: id}
		}
	}
	for _, id := range ids {
		if alloc[id] > 0 && memberOf[id] {
			return &Rejection{Reason: ReasonSelfVote, TeamID: id}
		}
	}
	if knownTeams != nil {
		for _, id := range ids {
			if alloc[id] > 0 && !knownTeams[id] {
				return &Rejection{Reason: ReasonUnknownTeam, TeamID: id}
			}
		}
	}

	var cost int64
	for _, id := range ids {
		sq, ok := square(alloc[id])
		if !ok || cost > maxInt64-sq {
			return &Rejection{Reason: ReasonOverflow, TeamID: id}
		}
		cost += sq
	}
	if cost > budget {
		return &Rejection{Reason: ReasonBudgetExceeded, Cost: cost, Budget: budget}
	}
	return nil
}

func square(points int64) (int64, bool) {
	if points < -MaxPoints || points > MaxPoints {
		return 0, false
	}
	return points * points, true
}
