package controllers

import (
	"log/slog"
	"net/http"

	"groupevents/internal/delivery/http/helpers"
	"groupevents/internal/domain"
)

type ParticipantController struct {
	Logger     *slog.Logger
	Membership domain.MembershipService
	Query      domain.QueryService
}

func NewParticipantController(logger *slog.Logger, membership domain.MembershipService, query domain.QueryService) *ParticipantController {
	return &ParticipantController{
		Logger:     logger,
		Membership: membership,
		Query:      query,
	}
}

// CreateParticipantRequest is the request body for POST /participants.
type CreateParticipantRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=256"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// ParticipantSuccessResponse is the success envelope for endpoints returning one participant.
type ParticipantSuccessResponse struct {
	Data  *domain.Participant `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ParticipantsSuccessResponse is the success envelope for endpoints returning participants.
type ParticipantsSuccessResponse struct {
	Data  []*domain.Participant `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// GroupsSuccessResponse is the success envelope for endpoints returning groups.
type GroupsSuccessResponse struct {
	Data  []*domain.Group   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateParticipant godoc
// @Summary Register a participant
// @Description Creates a participant. Username and email are unique; the password is stored only as a salted hash.
// @Tags participants
// @Accept json
// @Produce json
// @Param body body controllers.CreateParticipantRequest true "Participant fields"
// @Success 201 {object} controllers.ParticipantSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_input"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_participant"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /participants [post]
func (c *ParticipantController) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req CreateParticipantRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, err := c.Membership.CreateParticipant(r.Context(), domain.CreateParticipantInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, p)
}

// GetParticipant godoc
// @Summary Get a participant
// @Tags participants
// @Produce json
// @Param participantID path string true "Participant ID"
// @Success 200 {object} controllers.ParticipantSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /participants/{participantID} [get]
func (c *ParticipantController) GetParticipant(w http.ResponseWriter, r *http.Request) {
	p, err := c.Query.GetParticipant(r.Context(), r.PathValue("participantID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// ParticipantGroups godoc
// @Summary List the groups a participant belongs to
// @Tags participants
// @Produce json
// @Param participantID path string true "Participant ID"
// @Success 200 {object} controllers.GroupsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /participants/{participantID}/groups [get]
func (c *ParticipantController) ParticipantGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := c.Query.ParticipantGroups(r.Context(), r.PathValue("participantID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(groups))
}

// ParticipantEvents godoc
// @Summary List the events a participant is registered for
// @Tags participants
// @Produce json
// @Param participantID path string true "Participant ID"
// @Success 200 {object} controllers.EventsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /participants/{participantID}/events [get]
func (c *ParticipantController) ParticipantEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Query.ParticipantEvents(r.Context(), r.PathValue("participantID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(events))
}
