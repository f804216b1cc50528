package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"hackomatic/internal/domain"
)

type votingService struct {
	tx             domain.Transactor
	budget         int64
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewVotingService returns the vote ledger and tally service; budget is the
// number of coins each voter may spend.
func NewVotingService(tx domain.Transactor, budget int64, logger *slog.Logger, timeout time.Duration) domain.VotingService {
	return &votingService{
		tx:             tx,
		budget:         budget,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// SubmitVote replaces the voter's allocation. The gate, the membership read,
// validation and the write share one transaction, so nothing is stored unless
// every check passes. A valid submission lifts an earlier exclusion.
func (s *votingService) SubmitVote(ctx context.Context, user *domain.User, alloc domain.Allocation) (*domain.Ballot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stored := alloc.Normalize()
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		if err := gate(ctx, store, user, domain.OpCastVote); err != nil {
			return err
		}
		own, err := store.Members().TeamsOf(ctx, user.Email)
		if err != nil {
			return err
		}
		teams, err := store.Teams().ListAll(ctx)
		if err != nil {
			return err
		}
		memberOf := make(map[int64]bool, len(own))
		for _, id := range own {
			memberOf[id] = true
		}
		known := make(map[int64]bool, len(teams))
		for _, t := range teams {
			known[t.ID] = true
		}
		if rej := domain.Validate(alloc, s.budget, memberOf, known); rej != nil {
			return rej
		}
		if err := store.Votes().ReplaceAllocation(ctx, user.Email, stored); err != nil {
			return err
		}
		return store.Cheaters().Reinstate(ctx, user.Email)
	})
	if err != nil {
		return nil, fmt.Errorf("submit vote: %w", err)
	}
	return domain.NewBallot(stored, s.budget), nil
}

func (s *votingService) MyBallot(ctx context.Context, user *domain.User) (*domain.Ballot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var alloc domain.Allocation
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		var err error
		alloc, err = store.Votes().AllocationOf(ctx, user.Email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read ballot: %w", err)
	}
	return domain.NewBallot(alloc, s.budget), nil
}

// Tally re-checks every stored allocation against current membership, flags
// the voters that now fail, and computes the standings without them.
func (s *votingService) Tally(ctx context.Context, user *domain.User, mode domain.TallyMode) (*domain.Results, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	results := &domain.Results{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		phase, err := store.Phases().Current(ctx)
		if err != nil {
			return err
		}
		if err := domain.CanPerform(phase, domain.ResultsOperation(user.IsAdmin), user.IsAdmin); err != nil {
			return err
		}
		votes, err := store.Votes().ListAll(ctx)
		if err != nil {
			return err
		}
		memberships, err := store.Members().ListAll(ctx)
		if err != nil {
			return err
		}
		if err := s.flagCheaters(ctx, store, domain.RecheckAllocations(domain.AllocationsByVoter(votes), memberships, s.budget)); err != nil {
			return err
		}
		excludedEmails, err := store.Cheaters().ListExcluded(ctx)
		if err != nil {
			return err
		}
		excluded := make(map[string]bool, len(excludedEmails))
		for _, e := range excludedEmails {
			excluded[e] = true
		}
		teams, err := store.Teams().ListAll(ctx)
		if err != nil {
			return err
		}

		if mode == "" {
			mode = domain.DefaultTallyMode(phase)
		}
		results.Phase = phase
		results.Mode = mode
		results.Standings = domain.Tally(teams, votes, excluded, mode)
		results.ExcludedVoters = len(excluded)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tally: %w", err)
	}
	return results, nil
}

func (s *votingService) flagCheaters(ctx context.Context, store domain.Store, rejections map[string]*domain.Rejection) error {
	voters := make([]string, 0, len(rejections))
	for v := range rejections {
		voters = append(voters, v)
	}
	sort.Strings(voters)
	at := s.now().UTC()
	for _, voter := range voters {
		rej := rejections[voter]
		if err := store.Cheaters().Flag(ctx, voter, string(rej.Reason), at); err != nil {
			return err
		}
		s.logger.WarnContext(ctx, "allocation failed recheck", "voter", voter, "reason", rej.Reason)
	}
	return nil
}

func (s *votingService) ListCheaters(ctx context.Context, user *domain.User) ([]*domain.Cheater, error) {
	if !user.IsAdmin {
		return nil, domain.ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var cheaters []*domain.Cheater
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		var err error
		cheaters, err = store.Cheaters().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list cheaters: %w", err)
	}
	return cheaters, nil
}
