package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"hackomatic/internal/delivery/http/helpers"
	"hackomatic/internal/domain"
)

// CreateTeamRequest is the request body for POST /teams.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate implements Validator.
func (c CreateTeamRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// EditTeamRequest is the request body for PATCH /teams/{teamID}.
type EditTeamRequest struct {
	Description string `json:"description"`
}

// ListTeamsResponse is the response body for GET /teams.
type ListTeamsResponse struct {
	Teams      []*domain.TeamWithMembers `json:"teams"`
	Pagination helpers.PaginationMeta    `json:"pagination"`
}

// ListTeamsSuccessResponse is the success response envelope for GET /teams (200).
type ListTeamsSuccessResponse struct {
	Data  ListTeamsResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// TeamSuccessResponse is the success response envelope for POST /teams (201).
type TeamSuccessResponse struct {
	Data  *domain.TeamWithMembers `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// StatusResponse reports the outcome of an operation without a resource body.
type StatusResponse struct {
	Status string `json:"status"`
}

type TeamController struct {
	Logger  *slog.Logger
	Service domain.TeamService
}

func NewTeamController(logger *slog.Logger, svc domain.TeamService) *TeamController {
	return &TeamController{
		Logger:  logger,
		Service: svc,
	}
}

// ListTeams godoc
// @Summary List teams
// @Description Returns teams ordered by name, each with its members in join order.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListTeamsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /teams [get]
func (c *TeamController) ListTeams(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	params := helpers.ParsePagination(r)
	page, err := c.Service.ListTeams(r.Context(), params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListTeamsResponse{
		Teams:      page.Teams,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, page.Total),
	})
}

// CreateTeam godoc
// @Summary Create a team
// @Description Registration only. The creator joins the team automatically.
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param team body CreateTeamRequest true "Team"
// @Success 201 {object} controllers.TeamSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_team_name, team_limit_reached or phase_violation"
// @Router /teams [post]
func (c *TeamController) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	team, err := c.Service.CreateTeam(r.Context(), user, req.Name, req.Description)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, team)
}

// EditTeam godoc
// @Summary Edit a team description
// @Description Registration only. Only the creator or the admin may edit.
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamID path int true "Team ID"
// @Param team body EditTeamRequest true "New description"
// @Success 200 {object} helpers.APIResponse "data contains the team"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /teams/{teamID} [patch]
func (c *TeamController) EditTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamIDFromPath(w, r)
	if !ok {
		return
	}
	var req EditTeamRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	team, err := c.Service.EditTeam(r.Context(), user, teamID, req.Description)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, team)
}

// DeleteTeam godoc
// @Summary Delete a team
// @Description Registration only. Only the creator or the admin may delete. Votes for the team are removed too.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param teamID path int true "Team ID"
// @Success 200 {object} helpers.APIResponse "data.status is deleted"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /teams/{teamID} [delete]
func (c *TeamController) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	c.membershipAction(w, r, c.Service.DeleteTeam, "deleted")
}

// JoinTeam godoc
// @Summary Join a team
// @Description Registration only. Joining a team twice is a no-op.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param teamID path int true "Team ID"
// @Success 200 {object} helpers.APIResponse "data.status is joined"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: phase_violation"
// @Router /teams/{teamID}/members [post]
func (c *TeamController) JoinTeam(w http.ResponseWriter, r *http.Request) {
	c.membershipAction(w, r, c.Service.JoinTeam, "joined")
}

// LeaveTeam godoc
// @Summary Leave a team
// @Description Registration only.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param teamID path int true "Team ID"
// @Success 200 {object} helpers.APIResponse "data.status is left"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: phase_violation"
// @Router /teams/{teamID}/members [delete]
func (c *TeamController) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	c.membershipAction(w, r, c.Service.LeaveTeam, "left")
}

func (c *TeamController) membershipAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, user *domain.User, teamID int64) error, status string) {
	teamID, ok := teamIDFromPath(w, r)
	if !ok {
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := action(r.Context(), user, teamID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: status})
}

func teamIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("teamID"), 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid teamID")
		return 0, false
	}
	return id, true
}
