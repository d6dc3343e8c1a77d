package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aldergrove/cms-auth/internal/transport/http/middleware"
)

// TokenHandler exposes introspection of the accepted cross-domain token.
type TokenHandler struct{}

// NewTokenHandler constructs a TokenHandler.
func NewTokenHandler() *TokenHandler {
	return &TokenHandler{}
}

// RegisterRoutes binds token routes.
func (h *TokenHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/token", h.introspect)
}

// introspect echoes the claims of the token that passed validation. Front
// end domains call it to confirm their key and clock are in order.
func (h *TokenHandler) introspect(c *gin.Context) {
	value, ok := c.Get(middleware.ClaimsContextKey)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	claims, ok := value.(*jwt.RegisteredClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	resp := gin.H{
		"iss": claims.Issuer,
		"aud": claims.Audience,
		"jti": claims.ID,
	}
	if claims.IssuedAt != nil {
		resp["iat"] = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		resp["exp"] = claims.ExpiresAt.Unix()
	}

	c.JSON(http.StatusOK, resp)
}
