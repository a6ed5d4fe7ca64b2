package franchises

import (
	"context"
	"net/http"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"

	"github.com/gin-gonic/gin"
)

var validStatuses = map[string]bool{StatusPending: true, StatusActive: true, StatusRejected: true}

type Handler struct {
	service Service
	errors  *apperrors.ErrorHandler
}

func NewHandler(service Service, errHandler *apperrors.ErrorHandler) *Handler {
	return &Handler{service: service, errors: errHandler}
}

// List handles GET /api/franchises. Admins see every franchise, franchisees their own.
func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !validStatuses[status] {
		h.errors.Respond(c, apperrors.NewValidationError("Invalid status filter", status))
		return
	}

	franchises, err := h.service.List(c.Request.Context(), api.MustPrincipal(c), status)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, franchises)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateFranchiseRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	f, err := h.service.Create(c.Request.Context(), api.MustPrincipal(c), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	f, err := h.service.Get(c.Request.Context(), api.MustPrincipal(c), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	var req UpdateFranchiseRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	f, err := h.service.Update(c.Request.Context(), api.MustPrincipal(c), id, req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *Handler) decide(c *gin.Context, fn func(ctx context.Context, id int64) (*Franchise, error)) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	f, err := fn(c.Request.Context(), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}
