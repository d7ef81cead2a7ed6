package controllers

import (
	"log/slog"
	"net/http"

	"groupevents/internal/delivery/http/helpers"
	"groupevents/internal/domain"
)

type EventController struct {
	Logger     *slog.Logger
	Membership domain.MembershipService
	Query      domain.QueryService
}

func NewEventController(logger *slog.Logger, membership domain.MembershipService, query domain.QueryService) *EventController {
	return &EventController{
		Logger:     logger,
		Membership: membership,
		Query:      query,
	}
}

// EventSuccessResponse is the success envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventsSuccessResponse is the success envelope for endpoints returning events.
type EventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Query.GetEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// EventGroup godoc
// @Summary Get the group organizing an event
// @Description Returns null data when the organizing group no longer exists.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.GroupSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/group [get]
func (c *EventController) EventGroup(w http.ResponseWriter, r *http.Request) {
	group, err := c.Query.EventGroup(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, group)
}

// EventParticipants godoc
// @Summary List an event's registered participants
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.ParticipantsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/participants [get]
func (c *EventController) EventParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := c.Query.EventParticipants(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(participants))
}

// RegisterForEvent godoc
// @Summary Register a participant for an event
// @Description The participant must be a member of the group organizing the event.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param body body controllers.ParticipantRefRequest true "Registering participant"
// @Success 200 {object} controllers.ParticipantSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: not_group_member"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_registered"
// @Failure 500 {object} helpers.APIResponse "error.code: partial_write"
// @Router /events/{eventID}/registrations [post]
func (c *EventController) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	var req ParticipantRefRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, err := c.Membership.RegisterForEvent(r.Context(), r.PathValue("eventID"), req.ParticipantID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}
