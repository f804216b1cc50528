package domain

import (
	"context"
	"time"
)

// Cheater is a voter whose stored allocation broke the rules when it was
// re-checked against current membership. The flag is permanent; Excluded is
// cleared when the voter submits a valid allocation again.
// swagger:model Cheater
type Cheater struct {
	Email     string    `json:"email"`
	Reason    string    `json:"reason"`
	FlaggedAt time.Time `json:"flagged_at"`
	Excluded  bool      `json:"excluded"`
}

// CheaterRepository is the cheater registry.
type CheaterRepository interface {
	// Flag records the voter (or re-marks an existing entry) as excluded.
	Flag(ctx context.Context, email, reason string, at time.Time) error
	// Reinstate clears the excluded mark, keeping the entry. No-op when absent.
	Reinstate(ctx context.Context, email string) error
	ListExcluded(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]*Cheater, error)
}

// RecheckAllocations re-validates every stored allocation against the
// given memberships and budget and returns the voters that now fail, with the
// rejection each one produced.
func RecheckAllocations(allocations map[string]Allocation, memberships []*TeamMembership, budget int64) map[string]*Rejection {
	teamsOf := make(map[string]map[int64]bool)
	for _, m := range memberships {
		if teamsOf[m.MemberEmail] == nil {
			teamsOf[m.MemberEmail] = make(map[int64]bool)
		}
		teamsOf[m.MemberEmail][m.TeamID] = true
	}
	out := make(map[string]*Rejection)
	for voter, alloc := range allocations {
		if rej := Validate(alloc, budget, teamsOf[voter], nil); rej != nil {
			out[voter] = rej
		}
	}
	return out
}
