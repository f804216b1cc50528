package domain

import (
	"context"
	"strings"
	"time"
)

// Phase is one of the five stages of the event.
type Phase string

const (
	PhaseRegistration Phase = "registration"
	PhasePresentation Phase = "presentation"
	PhaseEvaluation   Phase = "evaluation"
	PhaseRevelation   Phase = "revelation"
	PhaseCelebration  Phase = "celebration"
)

// Phases lists every phase in event order.
var Phases = []Phase{
	PhaseRegistration,
	PhasePresentation,
	PhaseEvaluation,
	PhaseRevelation,
	PhaseCelebration,
}

// InitialPhase is the phase of an event whose phase log is still empty.
const InitialPhase = PhaseRegistration

// ParsePhase accepts a phase name case-insensitively.
func ParsePhase(name string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", invalidInput("unknown phase %q", name)
	}
	return p, nil
}

// Valid reports whether p is one of the five phase names.
func (p Phase) Valid() bool {
	return p.index() >= 0
}

func (p Phase) String() string {
	return string(p)
}

func (p Phase) index() int {
	for i, q := range Phases {
		if q == p {
			return i
		}
	}
	return -1
}

// Next returns the following phase; Celebration stays Celebration.
func (p Phase) Next() Phase {
	i := p.index()
	if i < 0 || i == len(Phases)-1 {
		return PhaseCelebration
	}
	return Phases[i+1]
}

// Prev returns the preceding phase; Registration stays Registration.
func (p Phase) Prev() Phase {
	i := p.index()
	if i <= 0 {
		return PhaseRegistration
	}
	return Phases[i-1]
}

// PhaseTransition is one entry of the append-only phase log.
// swagger:model PhaseTransition
type PhaseTransition struct {
	ID         int64     `json:"id"`
	Phase      Phase     `json:"phase"`
	ActorEmail string    `json:"actor_email"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPhaseTransition returns a log entry. ID is set by the repository on append.
func NewPhaseTransition(phase Phase, actorEmail string, createdAt time.Time) *PhaseTransition {
	return &PhaseTransition{
		Phase:      phase,
		ActorEmail: actorEmail,
		CreatedAt:  createdAt,
	}
}

// CurrentPhase folds the log: the latest entry wins, an empty log is InitialPhase.
func CurrentPhase(log []*PhaseTransition) Phase {
	if len(log) == 0 {
		return InitialPhase
	}
	return log[len(log)-1].Phase
}

// PhaseRepository is the phase store. Entries are appended, never edited.
type PhaseRepository interface {
	// Current returns the latest phase, or InitialPhase when the log is empty.
	Current(ctx context.Context) (Phase, error)
	Append(ctx context.Context, t *PhaseTransition) error
	// History returns the log oldest first.
	History(ctx context.Context) ([]*PhaseTransition, error)
}

// PhaseStatus is what clients need to gate their affordances.
type PhaseStatus struct {
	Phase       Phase              `json:"phase"`
	Permissions map[Operation]bool `json:"permissions"`
}

// PhaseService manages the event phase.
type PhaseService interface {
	Status(ctx context.Context, user *User) (*PhaseStatus, error)
	History(ctx context.Context, user *User) ([]*PhaseTransition, error)
	SetPhase(ctx context.Context, user *User, target Phase) (*PhaseTransition, error)
	Next(ctx context.Context, user *User) (*PhaseTransition, error)
	Prev(ctx context.Context, user *User) (*PhaseTransition, error)
}
