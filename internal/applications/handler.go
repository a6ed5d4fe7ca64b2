package applications

import (
	"context"
	"net/http"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	errors  *apperrors.ErrorHandler
}

func NewHandler(service Service, errHandler *apperrors.ErrorHandler) *Handler {
	return &Handler{service: service, errors: errHandler}
}

// Submit handles the public POST /api/franchise-applications.
func (h *Handler) Submit(c *gin.Context) {
	var req CreateApplicationRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	a, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !lifecycle.Known(status) {
		h.errors.Respond(c, apperrors.NewValidationError("Invalid status filter", status))
		return
	}

	list, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

type decideFunc func(ctx context.Context, reviewer api.Principal, id int64, notes *string) (*Application, error)

func (h *Handler) decide(c *gin.Context, fn decideFunc) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	// The body is optional; an empty one carries no notes.
	var req DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := api.BindJSON(c, &req); err != nil {
			h.errors.Respond(c, err)
			return
		}
	}

	a, err := fn(c.Request.Context(), api.MustPrincipal(c), id, req.Notes)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
