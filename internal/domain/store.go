package domain

import "context"

// Store groups the repositories that share one transaction.
type Store interface {
	Phases() PhaseRepository
	Teams() TeamRepository
	Members() MembershipRepository
	Votes() VoteRepository
	Cheaters() CheaterRepository
}

// Transactor runs fn inside a single store transaction. The transaction commits
// when fn returns nil and rolls back otherwise. Implementations may re-run fn
// when the store reports a transient conflict, so fn must not have side
// effects outside the store.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
