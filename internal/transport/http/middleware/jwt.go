package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/usecase"
)

const (
	authorizationHeader    = "Authorization"
	requestingDomainHeader = "RequestingDomain"
	bearerPrefix           = "Bearer "

	// ClaimsContextKey is where the middleware stores accepted token claims.
	ClaimsContextKey = "token_claims"
)

type tokenErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// JWTAuthOptions carries the optional collaborators of the middleware.
type JWTAuthOptions struct {
	Events  port.EventPublisher
	Metrics *HTTPMetrics
	Logger  *zap.Logger
}

// JWTAuth guards API routes with the cross-domain token checks. Every
// rejection answers 403 with the failed claim; the claim reported for a
// missing or replayed token is deliberately "signature" so callers learn
// nothing about why a stolen token stopped working.
func JWTAuth(validator *usecase.TokenValidator, opts JWTAuthOptions) gin.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			rejectToken(c, usecase.ClaimSignature, opts, log)
			return
		}

		claims, err := validator.Validate(c.Request.Context(), raw)
		if err != nil {
			var vErr *usecase.ValidationError
			if errors.As(err, &vErr) {
				rejectToken(c, vErr.Claim, opts, log)
				return
			}

			log.Error("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

func rejectToken(c *gin.Context, claim string, opts JWTAuthOptions, log *zap.Logger) {
	requesting := c.GetHeader(requestingDomainHeader)

	log.Warn("token rejected",
		zap.String("claim", claim),
		zap.String("requesting_domain", requesting),
	)

	if opts.Metrics != nil {
		opts.Metrics.ObserveTokenRejection(claim)
	}
	if opts.Events != nil {
		opts.Events.PublishTokenRejected(c.Request.Context(), domain.TokenRejectedEvent{
			RequestingDomain: requesting,
			Claim:            claim,
			RejectedAt:       time.Now().UTC(),
		})
	}

	c.AbortWithStatusJSON(http.StatusForbidden, tokenErrorResponse{
		Error:  "invalid token",
		Reason: claim + " claim is invalid",
	})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}
