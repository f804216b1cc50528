package domain

import (
	"context"
	"sort"
)

// Allocation maps team IDs to the points a voter buys for them.
// A team absent from the map has 0 points.
type Allocation map[int64]int64

// TeamIDs returns the allocation's team IDs in ascending order.
func (a Allocation) TeamIDs() []int64 {
	ids := make([]int64, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Normalize returns a copy without zero entries.
func (a Allocation) Normalize() Allocation {
	out := make(Allocation, len(a))
	for id, points := range a {
		if points != 0 {
			out[id] = points
		}
	}
	return out
}

// Cost returns Σ points². ok is false when the sum does not fit in an int64.
func (a Allocation) Cost() (cost int64, ok bool) {
	for _, id := range a.TeamIDs() {
		sq, fits := square(a[id])
		if !fits || cost > maxInt64-sq {
			return 0, false
		}
		cost += sq
	}
	return cost, true
}

// Vote is one (voter, team, points) row of the vote ledger.
// swagger:model Vote
type Vote struct {
	VoterEmail string `json:"voter_email"`
	TeamID     int64  `json:"team_id"`
	Points     int64  `json:"points"`
}

// AllocationsByVoter groups ledger rows into one allocation per voter.
func AllocationsByVoter(votes []*Vote) map[string]Allocation {
	out := make(map[string]Allocation)
	for _, v := range votes {
		a, ok := out[v.VoterEmail]
		if !ok {
			a = make(Allocation)
			out[v.VoterEmail] = a
		}
		a[v.TeamID] = v.Points
	}
	return out
}

// Ballot is a voter's current allocation together with its cost.
// swagger:model Ballot
type Ballot struct {
	Points    Allocation `json:"points"`
	Cost      int64      `json:"cost"`
	Budget    int64      `json:"budget"`
	Remaining int64      `json:"remaining"`
}

// NewBallot prices an allocation that already passed validation.
func NewBallot(points Allocation, budget int64) *Ballot {
	cost, _ := points.Cost()
	return &Ballot{
		Points:    points,
		Cost:      cost,
		Budget:    budget,
		Remaining: budget - cost,
	}
}

// VoteRepository is the vote ledger's storage.
type VoteRepository interface {
	// ReplaceAllocation makes alloc the voter's only stored votes. Zero entries are not stored.
	ReplaceAllocation(ctx context.Context, voterEmail string, alloc Allocation) error
	AllocationOf(ctx context.Context, voterEmail string) (Allocation, error)
	ListAll(ctx context.Context) ([]*Vote, error)
	DeleteByTeam(ctx context.Context, teamID int64) error
}

// VotingService exposes the vote ledger, tally and cheater registry.
type VotingService interface {
	SubmitVote(ctx context.Context, user *User, alloc Allocation) (*Ballot, error)
	MyBallot(ctx context.Context, user *User) (*Ballot, error)
	Tally(ctx context.Context, user *User, mode TallyMode) (*Results, error)
	ListCheaters(ctx context.Context, user *User) ([]*Cheater, error)
}
