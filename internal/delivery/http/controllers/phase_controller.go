package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"hackomatic/internal/delivery/http/helpers"
	"hackomatic/internal/delivery/http/middleware"
	"hackomatic/internal/domain"
)

// SetPhaseRequest is the request body for PUT /phase.
type SetPhaseRequest struct {
	Phase string `json:"phase"`
}

// Validate implements Validator.
func (s SetPhaseRequest) Validate() []string {
	if s.Phase == "" {
		return []string{"phase is required"}
	}
	return nil
}

// MeResponse is the response body for GET /me.
type MeResponse struct {
	Email       string                    `json:"email"`
	DisplayName string                    `json:"display_name"`
	IsAdmin     bool                      `json:"is_admin"`
	Phase       domain.Phase              `json:"phase"`
	Permissions map[domain.Operation]bool `json:"permissions"`
}

// MeSuccessResponse is the success response envelope for GET /me (200).
type MeSuccessResponse struct {
	Data  MeResponse        `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// PhaseStatusSuccessResponse is the success response envelope for GET /phase (200).
type PhaseStatusSuccessResponse struct {
	Data  domain.PhaseStatus `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// PhaseTransitionSuccessResponse is the success response envelope for phase changes (200).
type PhaseTransitionSuccessResponse struct {
	Data  domain.PhaseTransition `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// PhaseHistorySuccessResponse is the success response envelope for GET /phase/history (200).
type PhaseHistorySuccessResponse struct {
	Data  []domain.PhaseTransition `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

type PhaseController struct {
	Logger      *slog.Logger
	Service     domain.PhaseService
	EmailSuffix string
}

func NewPhaseController(logger *slog.Logger, svc domain.PhaseService, emailSuffix string) *PhaseController {
	return &PhaseController{
		Logger:      logger,
		Service:     svc,
		EmailSuffix: emailSuffix,
	}
}

// GetMe godoc
// @Summary Get the current user
// @Description Returns the caller's identity, admin flag, the current phase and what the caller may do in it.
// @Tags phase
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MeSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /me [get]
func (c *PhaseController) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	status, err := c.Service.Status(r.Context(), user)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MeResponse{
		Email:       user.Email,
		DisplayName: domain.DisplayName(user.Email, c.EmailSuffix),
		IsAdmin:     user.IsAdmin,
		Phase:       status.Phase,
		Permissions: status.Permissions,
	})
}

// GetPhase godoc
// @Summary Get the current phase
// @Tags phase
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.PhaseStatusSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /phase [get]
func (c *PhaseController) GetPhase(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	status, err := c.Service.Status(r.Context(), user)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}

// GetHistory godoc
// @Summary Get the phase log
// @Description Admin only. Returns every phase change, oldest first.
// @Tags phase
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.PhaseHistorySuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /phase/history [get]
func (c *PhaseController) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	history, err := c.Service.History(r.Context(), user)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, history)
}

// SetPhase godoc
// @Summary Set the phase
// @Description Admin only. Moves the event to any phase; participants are notified by email.
// @Tags phase
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SetPhaseRequest true "Target phase"
// @Success 200 {object} controllers.PhaseTransitionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /phase [put]
func (c *PhaseController) SetPhase(w http.ResponseWriter, r *http.Request) {
	var req SetPhaseRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	target, err := domain.ParsePhase(req.Phase)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	transition, err := c.Service.SetPhase(r.Context(), user, target)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, transition)
}

// NextPhase godoc
// @Summary Advance to the next phase
// @Description Admin only. Celebration stays Celebration.
// @Tags phase
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.PhaseTransitionSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /phase/next [post]
func (c *PhaseController) NextPhase(w http.ResponseWriter, r *http.Request) {
	c.step(w, r, c.Service.Next)
}

// PrevPhase godoc
// @Summary Go back to the previous phase
// @Description Admin only. Registration stays Registration.
// @Tags phase
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.PhaseTransitionSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /phase/prev [post]
func (c *PhaseController) PrevPhase(w http.ResponseWriter, r *http.Request) {
	c.step(w, r, c.Service.Prev)
}

func (c *PhaseController) step(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, user *domain.User) (*domain.PhaseTransition, error)) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	transition, err := move(r.Context(), user)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, transition)
}

// requireUser returns the identity set by middleware.RequireUser, writing 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return nil, false
	}
	return user, true
}
