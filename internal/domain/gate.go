package domain

// Operation is a request kind the phase gate decides on.
type Operation string

const (
	OpCreateTeam        Operation = "create_team"
	OpJoinTeam          Operation = "join_team"
	OpLeaveTeam         Operation = "leave_team"
	OpEditTeam          Operation = "edit_team"
	OpDeleteTeam        Operation = "delete_team"
	OpCastVote          Operation = "cast_vote"
	OpViewResultsAdmin  Operation = "view_results_admin"
	OpViewResultsPublic Operation = "view_results_public"
	OpAdvancePhase      Operation = "advance_phase"
)

// Operations lists every operation known to the gate.
var Operations = []Operation{
	OpCreateTeam,
	OpJoinTeam,
	OpLeaveTeam,
	OpEditTeam,
	OpDeleteTeam,
	OpCastVote,
	OpViewResultsAdmin,
	OpViewResultsPublic,
	OpAdvancePhase,
}

func (o Operation) String() string {
	return string(o)
}

// policy maps each phase-restricted operation to the phases that allow it.
var policy = map[Operation][]Phase{
	OpCreateTeam:        {PhaseRegistration},
	OpJoinTeam:          {PhaseRegistration},
	OpLeaveTeam:         {PhaseRegistration},
	OpEditTeam:          {PhaseRegistration},
	OpDeleteTeam:        {PhaseRegistration},
	OpCastVote:          {PhaseEvaluation},
	OpViewResultsAdmin:  {PhaseRevelation, PhaseCelebration},
	OpViewResultsPublic: {PhaseCelebration},
}

// CanPerform decides whether op may run in phase. It returns nil when allowed,
// ErrForbidden when AdvancePhase is attempted by a non-admin, and a
// *PhaseViolationError otherwise. AdvancePhase is never phase-restricted.
func CanPerform(phase Phase, op Operation, isAdmin bool) error {
	if op == OpAdvancePhase {
		if !isAdmin {
			return ErrForbidden
		}
		return nil
	}
	for _, p := range policy[op] {
		if p == phase {
			return nil
		}
	}
	return &PhaseViolationError{Phase: phase, Operation: op}
}

// Permissions evaluates every operation for the given phase and viewer.
func Permissions(phase Phase, isAdmin bool) map[Operation]bool {
	out := make(map[Operation]bool, len(Operations))
	for _, op := range Operations {
		out[op] = CanPerform(phase, op, isAdmin) == nil
	}
	return out
}

// ResultsOperation is the gate operation that guards the results view for the viewer.
func ResultsOperation(isAdmin bool) Operation {
	if isAdmin {
		return OpViewResultsAdmin
	}
	return OpViewResultsPublic
}
