package http

import (
	"net/http"
	"strings"

	"hackomatic/internal/delivery/http/controllers"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Phase  *controllers.PhaseController
	Team   *controllers.TeamController
	Vote   *controllers.VoteController
	Health *controllers.HealthController
}

// NewRouter initializes the HTTP router with all application routes.
// Every API route is wrapped with requireUser; /healthz and /swagger/ are public.
func NewRouter(c Controllers, requireUser func(http.HandlerFunc) http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()

	// Identity and phase
	mux.HandleFunc("GET /me", requireUser(c.Phase.GetMe))
	mux.HandleFunc("GET /phase", requireUser(c.Phase.GetPhase))
	mux.HandleFunc("PUT /phase", requireUser(c.Phase.SetPhase))
	mux.HandleFunc("GET /phase/history", requireUser(c.Phase.GetHistory))
	mux.HandleFunc("POST /phase/next", requireUser(c.Phase.NextPhase))
	mux.HandleFunc("POST /phase/prev", requireUser(c.Phase.PrevPhase))

	// Teams
	mux.HandleFunc("GET /teams", requireUser(c.Team.ListTeams))
	mux.HandleFunc("POST /teams", requireUser(c.Team.CreateTeam))
	mux.HandleFunc("PATCH /teams/{teamID}", requireUser(c.Team.EditTeam))
	mux.HandleFunc("DELETE /teams/{teamID}", requireUser(c.Team.DeleteTeam))
	mux.HandleFunc("POST /teams/{teamID}/members", requireUser(c.Team.JoinTeam))
	mux.HandleFunc("DELETE /teams/{teamID}/members", requireUser(c.Team.LeaveTeam))

	// Votes and results
	mux.HandleFunc("GET /votes/me", requireUser(c.Vote.GetMyBallot))
	mux.HandleFunc("PUT /votes/me", requireUser(c.Vote.SubmitVote))
	mux.HandleFunc("GET /results", requireUser(c.Vote.GetResults))
	mux.HandleFunc("GET /cheaters", requireUser(c.Vote.ListCheaters))

	mux.HandleFunc("GET /healthz", c.Health.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// WithPrefix mounts h under prefix, e.g. "/hackomatic". An empty prefix returns h.
func WithPrefix(prefix string, h http.Handler) http.Handler {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return h
	}
	mux := http.NewServeMux()
	mux.Handle(prefix+"/", http.StripPrefix(prefix, h))
	return mux
}
