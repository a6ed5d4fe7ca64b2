package users

import (
	"context"
	"net/http"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"

	"github.com/gin-gonic/gin"
)

var (
	validRoles    = map[string]bool{api.RoleClient: true, api.RoleFranchisee: true, api.RoleAdmin: true}
	validStatuses = map[string]bool{StatusActive: true, StatusPending: true, StatusInactive: true}
)

type Handler struct {
	service Service
	errors  *apperrors.ErrorHandler
}

func NewHandler(service Service, errHandler *apperrors.ErrorHandler) *Handler {
	return &Handler{service: service, errors: errHandler}
}

// List handles GET /api/users?role=&status=
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{Role: c.Query("role"), Status: c.Query("status")}
	if filter.Role != "" && !validRoles[filter.Role] {
		h.errors.Respond(c, apperrors.NewValidationError("Invalid role filter", filter.Role))
		return
	}
	if filter.Status != "" && !validStatuses[filter.Status] {
		h.errors.Respond(c, apperrors.NewValidationError("Invalid status filter", filter.Status))
		return
	}

	users, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) Approve(c *gin.Context) {
	h.changeStatus(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.changeStatus(c, h.service.Reject)
}

func (h *Handler) changeStatus(c *gin.Context, fn func(ctx context.Context, id int64) (*User, error)) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	user, err := fn(c.Request.Context(), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
