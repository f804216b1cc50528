package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"hackomatic/internal/delivery/http/helpers"
	"hackomatic/internal/domain"
)

// SubmitVoteRequest is the request body for PUT /votes/me. Keys are team IDs;
// teams left out get 0 points. An empty object withdraws every vote.
type SubmitVoteRequest struct {
	Points map[string]int64 `json:"points"`
}

// Validate implements Validator.
func (s SubmitVoteRequest) Validate() []string {
	if s.Points == nil {
		return []string{"points is required"}
	}
	return nil
}

// Allocation converts the request keys to team IDs.
func (s SubmitVoteRequest) Allocation() (domain.Allocation, error) {
	alloc := make(domain.Allocation, len(s.Points))
	for key, points := range s.Points {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid team id %q", key)
		}
		if _, dup := alloc[id]; dup {
			return nil, fmt.Errorf("team %d appears more than once", id)
		}
		alloc[id] = points
	}
	return alloc, nil
}

// BallotSuccessResponse is the success response envelope for /votes/me (200).
type BallotSuccessResponse struct {
	Data  domain.Ballot     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ResultsSuccessResponse is the success response envelope for GET /results (200).
type ResultsSuccessResponse struct {
	Data  domain.Results    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CheatersSuccessResponse is the success response envelope for GET /cheaters (200).
type CheatersSuccessResponse struct {
	Data  []domain.Cheater  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type VoteController struct {
	Logger  *slog.Logger
	Service domain.VotingService
}

func NewVoteController(logger *slog.Logger, svc domain.VotingService) *VoteController {
	return &VoteController{
		Logger:  logger,
		Service: svc,
	}
}

// GetMyBallot godoc
// @Summary Get my ballot
// @Description Returns the caller's stored allocation, its cost and the remaining budget.
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.BallotSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /votes/me [get]
func (c *VoteController) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	ballot, err := c.Service.MyBallot(r.Context(), user)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ballot)
}

// SubmitVote godoc
// @Summary Submit my allocation
// @Description Evaluation only. Replaces the caller's whole allocation. Each point for a team costs points squared coins.
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ballot body SubmitVoteRequest true "Points per team ID"
// @Success 200 {object} controllers.BallotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: phase_violation"
// @Failure 422 {object} helpers.APIResponse "error.code: vote_rejected; error.details.reason names the rule"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /votes/me [put]
func (c *VoteController) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req SubmitVoteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	alloc, err := req.Allocation()
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	ballot, err := c.Service.SubmitVote(r.Context(), user, alloc)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ballot)
}

// GetResults godoc
// @Summary Get the results
// @Description Admins may view results from Revelation on, everyone else in Celebration. Revelation mode lists the winner last, celebration mode first.
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param mode query string false "revelation or celebration (default depends on the phase)"
// @Success 200 {object} controllers.ResultsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: phase_violation"
// @Router /results [get]
func (c *VoteController) GetResults(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseTallyMode(r.URL.Query().Get("mode"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	results, err := c.Service.Tally(r.Context(), user, mode)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, results)
}

// ListCheaters godoc
// @Summary List flagged voters
// @Description Admin only.
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.CheatersSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /cheaters [get]
func (c *VoteController) ListCheaters(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	cheaters, err := c.Service.ListCheaters(r.Context(), user)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, cheaters)
}
