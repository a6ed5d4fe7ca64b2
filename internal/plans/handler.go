package plans

import (
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

// ListPlans handles GET /api/plans. Inactive plans are listed only for admins
// asking with ?all=true.
func (h *Handler) ListPlans(c *gin.Context) {
	principal, ok := api.PrincipalFrom(c)
	includeInactive := ok && principal.IsAdmin() && c.Query("all") == "true"

	plans, err := h.service.ListPlans(c.Request.Context(), includeInactive)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *Handler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	plan, err := h.service.CreatePlan(c.Request.Context(), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *Handler) UpdatePlan(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	var req UpdatePlanRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	plan, err := h.service.UpdatePlan(c.Request.Context(), id, req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	up, err := h.service.Subscribe(c.Request.Context(), api.MustPrincipal(c), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, up)
}

// ActivePlan handles GET /api/user-plans/active. No subscription is a 200
// with a null userPlan.
func (h *Handler) ActivePlan(c *gin.Context) {
	up, err := h.service.ActivePlan(c.Request.Context(), api.MustPrincipal(c).UserID)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userPlan": up})
}
