package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/transport/http/session"
	"github.com/aldergrove/cms-auth/internal/usecase"
)

// TwoFactorHandler exposes the three step email code login flow.
type TwoFactorHandler struct {
	twoFactor *usecase.TwoFactorService
	logger    *zap.Logger
}

// NewTwoFactorHandler constructs a TwoFactorHandler.
func NewTwoFactorHandler(twoFactor *usecase.TwoFactorService, log *zap.Logger) *TwoFactorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TwoFactorHandler{twoFactor: twoFactor, logger: log}
}

// RegisterRoutes binds the step endpoints, applying optional middleware
// ahead of the final step.
func (h *TwoFactorHandler) RegisterRoutes(r *gin.RouterGroup, completeMiddlewares ...gin.HandlerFunc) {
	r.POST("/login2fa/step1", h.start)
	r.POST("/login2fa/step2", h.verify)

	chain := append([]gin.HandlerFunc{}, completeMiddlewares...)
	chain = append(chain, h.complete)
	r.POST("/login2fa/step3", chain...)
}

// start mails a verification code to the email.
func (h *TwoFactorHandler) start(c *gin.Context) {
	var req twoFactorStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.twoFactor.StartChallenge(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, usecase.ErrUnknownEmail) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "unknown email"})
			return
		}
		h.logger.Error("start two factor challenge failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "code sent"})
}

// verify checks the submitted code. Expired codes and an exhausted attempt
// cap both answer with a fresh code already on its way.
func (h *TwoFactorHandler) verify(c *gin.Context) {
	var req twoFactorVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.twoFactor.VerifyCode(c.Request.Context(), req.Email, req.Code)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, StatusResponse{Status: "code verified"})
	case errors.Is(err, usecase.ErrCodeMismatch):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "verification code does not match"})
	case errors.Is(err, usecase.ErrCodeExpired):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "verification code expired, a new code was sent"})
	case errors.Is(err, usecase.ErrAttemptsExceeded):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many attempts, a new code was sent"})
	default:
		h.logger.Error("verify two factor code failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// complete re-verifies code and password together and establishes the
// session. A code that stopped matching sends the client back to step one.
func (h *TwoFactorHandler) complete(c *gin.Context) {
	var req twoFactorCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sess, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	person, err := h.twoFactor.CompleteLogin(c.Request.Context(), sess, req.Email, req.Code, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrLoginAborted):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "login aborted, restart from step one"})
		case errors.Is(err, usecase.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		case errors.Is(err, usecase.ErrPersonBanned):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "account disabled"})
		default:
			h.logger.Error("complete two factor login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, PersonResponse{ID: person.ID, Email: person.Email})
}
