package controllers

import (
	"log/slog"
	"net/http"

	"groupevents/internal/delivery/http/helpers"
	"groupevents/internal/domain"
)

type GroupController struct {
	Logger     *slog.Logger
	Membership domain.MembershipService
	Query      domain.QueryService
}

func NewGroupController(logger *slog.Logger, membership domain.MembershipService, query domain.QueryService) *GroupController {
	return &GroupController{
		Logger:     logger,
		Membership: membership,
		Query:      query,
	}
}

// CreateGroupRequest is the request body for POST /groups.
type CreateGroupRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// GroupSuccessResponse is the success envelope for endpoints returning one group.
type GroupSuccessResponse struct {
	Data  *domain.Group     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListGroupsData is the data payload for GET /groups.
type ListGroupsData struct {
	Items      []*domain.Group        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListGroupsSuccessResponse is the success envelope for GET /groups.
type ListGroupsSuccessResponse struct {
	Data  ListGroupsData    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateGroup godoc
// @Summary Create a group
// @Description Creates a group with a unique title.
// @Tags groups
// @Accept json
// @Produce json
// @Param body body controllers.CreateGroupRequest true "Group title"
// @Success 201 {object} controllers.GroupSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_input"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_group"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /groups [post]
func (c *GroupController) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	group, err := c.Membership.CreateGroup(r.Context(), req.Title)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, group)
}

// ListGroups godoc
// @Summary List groups
// @Description Returns groups ordered by title, paginated.
// @Tags groups
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListGroupsSuccessResponse
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /groups [get]
func (c *GroupController) ListGroups(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	groups, total, err := c.Query.ListGroups(r.Context(), params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if groups == nil {
		groups = []*domain.Group{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListGroupsData{
		Items:      groups,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetGroup godoc
// @Summary Get a group
// @Tags groups
// @Produce json
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.GroupSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /groups/{groupID} [get]
func (c *GroupController) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := c.Query.GetGroup(r.Context(), r.PathValue("groupID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, group)
}

// GroupEvents godoc
// @Summary List a group's events
// @Tags groups
// @Produce json
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.EventsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID}/events [get]
func (c *GroupController) GroupEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Query.GroupEvents(r.Context(), r.PathValue("groupID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(events))
}

// GroupParticipants godoc
// @Summary List a group's members
// @Tags groups
// @Produce json
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.ParticipantsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID}/participants [get]
func (c *GroupController) GroupParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := c.Query.GroupParticipants(r.Context(), r.PathValue("groupID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(participants))
}

// GroupInvitations godoc
// @Summary List a group's invitations
// @Tags groups
// @Produce json
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.InvitationsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID}/invitations [get]
func (c *GroupController) GroupInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := c.Query.GroupInvitations(r.Context(), r.PathValue("groupID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(invitations))
}

// CreateEventRequest is the request body for POST /groups/{groupID}/events.
type CreateEventRequest struct {
	Title    string        `json:"title" validate:"required,max=200"`
	Date     *helpers.Date `json:"date,omitempty" swaggertype:"string" example:"2024-05-01"`
	Location string        `json:"location,omitempty" validate:"max=500"`
}

// CreateEvent godoc
// @Summary Create an event for a group
// @Description Creates an event organized by the group. Titles are unique within a group.
// @Tags groups
// @Accept json
// @Produce json
// @Param groupID path string true "Group ID"
// @Param body body controllers.CreateEventRequest true "Event fields"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_input"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_event"
// @Failure 500 {object} helpers.APIResponse "error.code: partial_write"
// @Router /groups/{groupID}/events [post]
func (c *GroupController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Membership.CreateEvent(r.Context(), domain.CreateEventInput{
		Title:    req.Title,
		GroupID:  r.PathValue("groupID"),
		Date:     req.Date.TimePtr(),
		Location: req.Location,
	})
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// InviteRequest is the request body for POST /groups/{groupID}/invitations.
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// InviteToGroup godoc
// @Summary Invite an email address to a group
// @Description Records the invitation and sends an invitation email. Delivery failures do not fail the request.
// @Tags groups
// @Accept json
// @Produce json
// @Param groupID path string true "Group ID"
// @Param body body controllers.InviteRequest true "Invitee email"
// @Success 201 {object} controllers.InvitationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_input"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_invited"
// @Failure 500 {object} helpers.APIResponse "error.code: partial_write"
// @Router /groups/{groupID}/invitations [post]
func (c *GroupController) InviteToGroup(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := c.Membership.InviteToGroup(r.Context(), r.PathValue("groupID"), req.Email)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// ParticipantRefRequest names a participant acting on a group or event.
type ParticipantRefRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

// JoinGroup godoc
// @Summary Join a group
// @Description Adds an invited participant to the group's members.
// @Tags groups
// @Accept json
// @Produce json
// @Param groupID path string true "Group ID"
// @Param body body controllers.ParticipantRefRequest true "Joining participant"
// @Success 200 {object} controllers.ParticipantSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: never_invited or not_invited_to_this_group"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_member"
// @Failure 500 {object} helpers.APIResponse "error.code: partial_write"
// @Router /groups/{groupID}/members [post]
func (c *GroupController) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req ParticipantRefRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, err := c.Membership.JoinGroup(r.Context(), r.PathValue("groupID"), req.ParticipantID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
