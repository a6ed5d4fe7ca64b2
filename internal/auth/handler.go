package auth

import (
	"net/http"

	"optical-franchise/internal/api"
	"optical-franchise/internal/common/config"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/common/metrics"
	"optical-franchise/internal/users"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	users  users.Service
	store  *Store
	cookie config.SessionConfig
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(userService users.Service, store *Store, cookie config.SessionConfig, errHandler *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		users:  userService,
		store:  store,
		cookie: cookie,
		errors: errHandler,
		logger: log,
	}
}

type sessionResponse struct {
	User *users.User `json:"user"`
}

// Register handles POST /api/auth/register. Active accounts are signed in.
func (h *Handler) Register(c *gin.Context) {
	var req users.RegisterRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	if user.Status == users.StatusActive {
		if err := h.startSession(c, user); err != nil {
			h.errors.Respond(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, sessionResponse{User: user})
}

func (h *Handler) Login(c *gin.Context) {
	var req users.LoginRequest
	if err := api.BindJSON(c, &req); err != nil {
		h.errors.Respond(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		metrics.SessionLogins.WithLabelValues("rejected").Inc()
		h.errors.Respond(c, err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		h.errors.Respond(c, err)
		return
	}
	metrics.SessionLogins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, sessionResponse{User: user})
}

func (h *Handler) Logout(c *gin.Context) {
	principal := api.MustPrincipal(c)
	if err := h.store.Delete(c.Request.Context(), principal.UserID, principal.SessionID); err != nil {
		h.errors.Respond(c, apperrors.NewExternalServiceError("redis", err))
		return
	}
	h.clearCookie(c)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "logged out"})
}

// LogoutAll ends every session of the caller, on every device.
func (h *Handler) LogoutAll(c *gin.Context) {
	principal := api.MustPrincipal(c)
	removed, err := h.store.DeleteAll(c.Request.Context(), principal.UserID)
	if err != nil {
		h.errors.Respond(c, apperrors.NewExternalServiceError("redis", err))
		return
	}
	h.logger.Info("All sessions revoked", map[string]interface{}{
		"userId":   principal.UserID,
		"sessions": removed,
	})
	h.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out everywhere", "sessions": removed})
}

func (h *Handler) Me(c *gin.Context) {
	principal := api.MustPrincipal(c)
	user, err := h.users.GetByID(c.Request.Context(), principal.UserID)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{User: user})
}

func (h *Handler) startSession(c *gin.Context, user *users.User) error {
	session, err := h.store.Create(c.Request.Context(), user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return apperrors.NewExternalServiceError("redis", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, session.CookieValue(), int(h.store.TTL().Seconds()), "/", h.cookie.Domain, h.cookie.Secure, true)
	return nil
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
}
