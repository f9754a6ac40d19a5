package handlers

import (
	"net/http"

	"stockledger/internal/common"
	"stockledger/internal/middleware"
	"stockledger/internal/services"

	"github.com/labstack/echo/v4"
)

type MembershipHandlers struct {
	membershipService services.MembershipService
}

func NewMembershipHandlers(membershipService services.MembershipService) *MembershipHandlers {
	return &MembershipHandlers{membershipService: membershipService}
}

type InvitationTokenRequest struct {
	Token string `json:"token"`
}

// Invite creates a pending invitation in the caller's tenant.
func (h *MembershipHandlers) Invite(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	var req services.InviteRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	req.TenantID = tc.TenantID
	req.InvitedBy = tc.UserID

	invitation, err := h.membershipService.Invite(c.Request().Context(), &req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusCreated, invitation)
}

func (h *MembershipHandlers) ListPending(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	invitations, err := h.membershipService.ListPending(c.Request().Context(), tc.TenantID)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"invitations": invitations})
}

func (h *MembershipHandlers) Revoke(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	id, err := common.ValidateUUID(c.Param("id"), "invitation_id")
	if err != nil {
		return common.SendValidationError(c, "invitation_id", err.Error())
	}

	if err := h.membershipService.Revoke(c.Request().Context(), tc.TenantID, id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Accept joins the caller to the inviting tenant. No tenant header is needed.
func (h *MembershipHandlers) Accept(c echo.Context) error {
	caller, ok := middleware.CallerFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req InvitationTokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	membership, err := h.membershipService.Accept(c.Request().Context(), &services.AcceptInvitationRequest{
		Token:  req.Token,
		UserID: caller.UserID,
		Email:  caller.Email,
	})
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, membership)
}

func (h *MembershipHandlers) Reject(c echo.Context) error {
	caller, ok := middleware.CallerFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req InvitationTokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	if err := h.membershipService.Reject(c.Request().Context(), req.Token, caller); err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "rejected"})
}
