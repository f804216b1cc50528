package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"hackomatic/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memState is the data of an in-memory store.
type memState struct {
	phases     []*domain.PhaseTransition
	teams      map[int64]*domain.Team
	nextTeamID int64
	members    []*domain.TeamMembership
	votes      map[string]domain.Allocation
	cheaters   map[string]*domain.Cheater
}

func newMemState() *memState {
	return &memState{
		teams:      make(map[int64]*domain.Team),
		nextTeamID: 1,
		votes:      make(map[string]domain.Allocation),
		cheaters:   make(map[string]*domain.Cheater),
	}
}

func (m *memState) clone() *memState {
	c := newMemState()
	c.nextTeamID = m.nextTeamID
	for _, p := range m.phases {
		cp := *p
		c.phases = append(c.phases, &cp)
	}
	for id, t := range m.teams {
		ct := *t
		c.teams[id] = &ct
	}
	for _, mb := range m.members {
		cm := *mb
		c.members = append(c.members, &cm)
	}
	for voter, a := range m.votes {
		ca := make(domain.Allocation, len(a))
		for k, v := range a {
			ca[k] = v
		}
		c.votes[voter] = ca
	}
	for email, ch := range m.cheaters {
		cc := *ch
		c.cheaters[email] = &cc
	}
	return c
}

// fakeTransactor runs each transaction on a copy of the state and publishes
// the copy only on success, so failed transactions leave no trace.
type fakeTransactor struct {
	mu    sync.Mutex
	state *memState
	err   error // if set, WithinTx returns this error without running fn
}

func newFakeTransactor() *fakeTransactor {
	return &fakeTransactor{state: newMemState()}
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store domain.Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	work := f.state.clone()
	if err := fn(ctx, &memStore{s: work}); err != nil {
		return err
	}
	f.state = work
	return nil
}

// setPhase appends a phase directly, bypassing the gate.
func (f *fakeTransactor) setPhase(p domain.Phase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.phases = append(f.state.phases, domain.NewPhaseTransition(p, "setup@example.com", time.Now()))
}

type memStore struct{ s *memState }

func (m *memStore) Phases() domain.PhaseRepository       { return memPhases{m.s} }
func (m *memStore) Teams() domain.TeamRepository         { return memTeams{m.s} }
func (m *memStore) Members() domain.MembershipRepository { return memMembers{m.s} }
func (m *memStore) Votes() domain.VoteRepository         { return memVotes{m.s} }
func (m *memStore) Cheaters() domain.CheaterRepository   { return memCheaters{m.s} }

type memPhases struct{ s *memState }

func (r memPhases) Current(ctx context.Context) (domain.Phase, error) {
	return domain.CurrentPhase(r.s.phases), nil
}

func (r memPhases) Append(ctx context.Context, t *domain.PhaseTransition) error {
	t.ID = int64(len(r.s.phases) + 1)
	cp := *t
	r.s.phases = append(r.s.phases, &cp)
	return nil
}

func (r memPhases) History(ctx context.Context) ([]*domain.PhaseTransition, error) {
	out := make([]*domain.PhaseTransition, len(r.s.phases))
	copy(out, r.s.phases)
	return out, nil
}

type memTeams struct{ s *memState }

func (r memTeams) Create(ctx context.Context, t *domain.Team) error {
	for _, existing := range r.s.teams {
		if existing.Name == t.Name {
			return domain.ErrDuplicateTeamName
		}
	}
	t.ID = r.s.nextTeamID
	r.s.nextTeamID++
	cp := *t
	r.s.teams[t.ID] = &cp
	return nil
}

func (r memTeams) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	t, ok := r.s.teams[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTeams) sorted() []*domain.Team {
	out := make([]*domain.Team, 0, len(r.s.teams))
	for _, t := range r.s.teams {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r memTeams) List(ctx context.Context, page domain.PaginationParams) ([]*domain.Team, int, error) {
	all := r.sorted()
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r memTeams) ListAll(ctx context.Context) ([]*domain.Team, error) {
	return r.sorted(), nil
}

func (r memTeams) CountByCreator(ctx context.Context, creatorEmail string) (int, error) {
	n := 0
	for _, t := range r.s.teams {
		if t.CreatorEmail == creatorEmail {
			n++
		}
	}
	return n, nil
}

func (r memTeams) UpdateDescription(ctx context.Context, id int64, description string) error {
	t, ok := r.s.teams[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Description = description
	return nil
}

func (r memTeams) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.teams[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.teams, id)
	return nil
}

type memMembers struct{ s *memState }

func (r memMembers) Add(ctx context.Context, teamID int64, email string) (bool, error) {
	if _, ok := r.s.teams[teamID]; !ok {
		return false, domain.ErrNotFound
	}
	for _, m := range r.s.members {
		if m.TeamID == teamID && m.MemberEmail == email {
			return false, nil
		}
	}
	r.s.members = append(r.s.members, &domain.TeamMembership{TeamID: teamID, MemberEmail: email})
	return true, nil
}

func (r memMembers) Remove(ctx context.Context, teamID int64, email string) error {
	for i, m := range r.s.members {
		if m.TeamID == teamID && m.MemberEmail == email {
			r.s.members = append(r.s.members[:i], r.s.members[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r memMembers) IsMember(ctx context.Context, email string, teamID int64) (bool, error) {
	for _, m := range r.s.members {
		if m.TeamID == teamID && m.MemberEmail == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memMembers) TeamsOf(ctx context.Context, email string) ([]int64, error) {
	ids := make([]int64, 0)
	for _, m := range r.s.members {
		if m.MemberEmail == email {
			ids = append(ids, m.TeamID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memMembers) ListByTeamIDs(ctx context.Context, teamIDs []int64) ([]*domain.TeamMembership, error) {
	want := make(map[int64]bool, len(teamIDs))
	for _, id := range teamIDs {
		want[id] = true
	}
	out := make([]*domain.TeamMembership, 0)
	for _, m := range r.s.members {
		if want[m.TeamID] {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memMembers) ListAll(ctx context.Context) ([]*domain.TeamMembership, error) {
	out := make([]*domain.TeamMembership, 0, len(r.s.members))
	for _, m := range r.s.members {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r memMembers) ListEmails(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, m := range r.s.members {
		if !seen[m.MemberEmail] {
			seen[m.MemberEmail] = true
			out = append(out, m.MemberEmail)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r memMembers) DeleteByTeam(ctx context.Context, teamID int64) error {
	kept := r.s.members[:0]
	for _, m := range r.s.members {
		if m.TeamID != teamID {
			kept = append(kept, m)
		}
	}
	r.s.members = kept
	return nil
}

type memVotes struct{ s *memState }

func (r memVotes) ReplaceAllocation(ctx context.Context, voterEmail string, alloc domain.Allocation) error {
	stored := alloc.Normalize()
	for id := range stored {
		if _, ok := r.s.teams[id]; !ok {
			return domain.ErrNotFound
		}
	}
	if len(stored) == 0 {
		delete(r.s.votes, voterEmail)
		return nil
	}
	r.s.votes[voterEmail] = stored
	return nil
}

func (r memVotes) AllocationOf(ctx context.Context, voterEmail string) (domain.Allocation, error) {
	out := make(domain.Allocation)
	for id, p := range r.s.votes[voterEmail] {
		out[id] = p
	}
	return out, nil
}

func (r memVotes) ListAll(ctx context.Context) ([]*domain.Vote, error) {
	voters := make([]string, 0, len(r.s.votes))
	for v := range r.s.votes {
		voters = append(voters, v)
	}
	sort.Strings(voters)
	out := make([]*domain.Vote, 0)
	for _, v := range voters {
		a := r.s.votes[v]
		for _, id := range a.TeamIDs() {
			out = append(out, &domain.Vote{VoterEmail: v, TeamID: id, Points: a[id]})
		}
	}
	return out, nil
}

func (r memVotes) DeleteByTeam(ctx context.Context, teamID int64) error {
	for _, a := range r.s.votes {
		delete(a, teamID)
	}
	return nil
}

type memCheaters struct{ s *memState }

func (r memCheaters) Flag(ctx context.Context, email, reason string, at time.Time) error {
	if c, ok := r.s.cheaters[email]; ok {
		if !c.Excluded {
			c.Reason, c.FlaggedAt, c.Excluded = reason, at, true
		}
		return nil
	}
	r.s.cheaters[email] = &domain.Cheater{Email: email, Reason: reason, FlaggedAt: at, Excluded: true}
	return nil
}

func (r memCheaters) Reinstate(ctx context.Context, email string) error {
	if c, ok := r.s.cheaters[email]; ok {
		c.Excluded = false
	}
	return nil
}

func (r memCheaters) ListExcluded(ctx context.Context) ([]string, error) {
	out := make([]string, 0)
	for email, c := range r.s.cheaters {
		if c.Excluded {
			out = append(out, email)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r memCheaters) List(ctx context.Context) ([]*domain.Cheater, error) {
	out := make([]*domain.Cheater, 0, len(r.s.cheaters))
	for _, c := range r.s.cheaters {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
