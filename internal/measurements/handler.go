package measurements

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

// Create handles POST /api/measurements. The analysis never fails the
// request: it degrades to the static review instead.
func (h *Handler) Create(c *gin.Context) {
	var req CreateMeasurementRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	sub, err := h.service.Create(c.Request.Context(), api.MustPrincipal(c), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) AnalyzeImage(c *gin.Context) {
	var req AnalyzeImageRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, h.service.AnalyzeImage(c.Request.Context(), req.ImageBase64))
}

func (h *Handler) Reanalyze(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	sub, err := h.service.Reanalyze(c.Request.Context(), api.MustPrincipal(c), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) List(c *gin.Context) {
	userID, err := api.QueryID(c, "userId")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	list, err := h.service.List(c.Request.Context(), api.MustPrincipal(c), userID)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := api.ParseID(c, "id")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	m, err := h.service.Get(c.Request.Context(), api.MustPrincipal(c), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
