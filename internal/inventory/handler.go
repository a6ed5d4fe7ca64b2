package inventory

import (
	"net/http"
	"strconv"

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

// List handles GET /api/inventory?franchiseId=&lowStock=true.
func (h *Handler) List(c *gin.Context) {
	franchiseID, err := api.QueryID(c, "franchiseId")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	filter := ListFilter{FranchiseID: franchiseID}
	if raw := c.Query("lowStock"); raw != "" {
		low, err := strconv.ParseBool(raw)
		if err != nil {
			h.errors.Respond(c, apperrors.NewValidationError("Invalid lowStock filter", raw))
			return
		}
		filter.LowStock = low
	}

	items, err := h.service.List(c.Request.Context(), api.MustPrincipal(c), filter)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Upsert handles POST /api/inventory, creating or replacing the row for the
// product and franchise pair.
func (h *Handler) Upsert(c *gin.Context) {
	var req UpsertRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	item, err := h.service.Upsert(c.Request.Context(), api.MustPrincipal(c), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	var req UpdateRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	item, err := h.service.Update(c.Request.Context(), api.MustPrincipal(c), id, req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) Adjust(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	var req AdjustRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	item, err := h.service.Adjust(c.Request.Context(), api.MustPrincipal(c), id, req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
