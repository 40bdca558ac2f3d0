package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/anamnese-api/internal/middleware"
	"github.com/jwalitptl/anamnese-api/internal/model"
	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
	"github.com/jwalitptl/anamnese-api/pkg/httputil"
)

const sessionHeader = "X-Session-ID"

// Service is the subset of the auth service the handler needs.
type Service interface {
	middleware.Authenticator
	ExchangeSession(ctx context.Context, sessionID string) (*model.SessionData, error)
	Logout(ctx context.Context, token string) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/session-data", h.SessionData)
		auth.GET("/me", middleware.RequireAuth(h.svc), h.Me)
		auth.POST("/logout", h.Logout)
	}
}

// SessionData exchanges the provider session id for a local session token.
func (h *Handler) SessionData(c *gin.Context) {
	data, err := h.svc.ExchangeSession(c.Request.Context(), c.GetHeader(sessionHeader))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, data)
}

func (h *Handler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}
	httputil.RespondWithSuccess(c, user)
}

// Logout never fails for a missing or unknown session.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	httputil.RespondWithMessage(c, "Logged out")
}
