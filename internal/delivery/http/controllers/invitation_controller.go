package controllers

import (
	"log/slog"
	"net/http"

	"groupevents/internal/delivery/http/helpers"
	"groupevents/internal/domain"
)

type InvitationController struct {
	Logger *slog.Logger
	Query  domain.QueryService
}

func NewInvitationController(logger *slog.Logger, query domain.QueryService) *InvitationController {
	return &InvitationController{Logger: logger, Query: query}
}

// InvitationSuccessResponse is the success envelope for endpoints returning one invitation.
type InvitationSuccessResponse struct {
	Data  *domain.Invitation `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// InvitationsSuccessResponse is the success envelope for endpoints returning invitations.
type InvitationsSuccessResponse struct {
	Data  []*domain.Invitation `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// GetInvitationByEmail godoc
// @Summary Look up the invitation for an email address
// @Tags invitations
// @Produce json
// @Param email query string true "Invitee email"
// @Success 200 {object} controllers.InvitationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: invalid_input"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /invitations [get]
func (c *InvitationController) GetInvitationByEmail(w http.ResponseWriter, r *http.Request) {
	inv, err := c.Query.GetInvitationByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// InvitationGroups godoc
// @Summary List the groups that sent an invitation
// @Tags invitations
// @Produce json
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} controllers.GroupsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /invitations/{invitationID}/groups [get]
func (c *InvitationController) InvitationGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := c.Query.InvitationGroups(r.Context(), r.PathValue("invitationID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(groups))
}
