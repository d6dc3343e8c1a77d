package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/transport/http/session"
	"github.com/aldergrove/cms-auth/internal/usecase"
)

// AuthHandler exposes the password login and logout endpoints.
type AuthHandler struct {
	guard            *usecase.LoginGuard
	twoFactorEnabled bool
	logger           *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(guard *usecase.LoginGuard, twoFactorEnabled bool, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{guard: guard, twoFactorEnabled: twoFactorEnabled, logger: log}
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	chain = append(chain, h.login)
	r.POST("/login", chain...)

	r.POST("/logout", h.logout)
	r.GET("/me", h.me)
}

// login authenticates with email and password. When the two factor flow is
// enabled, direct password login is closed and clients must walk the
// step endpoints instead.
func (h *AuthHandler) login(c *gin.Context) {
	if h.twoFactorEnabled {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "two factor login required"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sess, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	person, err := h.guard.Attempt(c.Request.Context(), sess, req.Email, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		case errors.Is(err, usecase.ErrPersonBanned):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "account disabled"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, PersonResponse{ID: person.ID, Email: person.Email})
}

// logout revokes the session's login record and clears the session. Logging
// out an anonymous session succeeds quietly.
func (h *AuthHandler) logout(c *gin.Context) {
	sess, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	if err := h.guard.Logout(c.Request.Context(), sess, false); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "logged out"})
}

// me resolves the current session to a person.
func (h *AuthHandler) me(c *gin.Context) {
	sess, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	person, err := h.guard.User(c.Request.Context(), sess)
	if err != nil {
		h.logger.Error("resolve session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	if person == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	c.JSON(http.StatusOK, PersonResponse{ID: person.ID, Email: person.Email})
}
