package appointments

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

func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !lifecycle.Known(status) {
		h.errors.Respond(c, apperrors.NewValidationError("Invalid status filter", status))
		return
	}

	appointments, err := h.service.List(c.Request.Context(), api.MustPrincipal(c), status)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	a, err := h.service.Create(c.Request.Context(), api.MustPrincipal(c), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	a, err := h.service.Get(c.Request.Context(), api.MustPrincipal(c), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	var req UpdateAppointmentRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	a, err := h.service.Update(c.Request.Context(), api.MustPrincipal(c), id, req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
