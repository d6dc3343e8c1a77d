package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/infra/config"
	appLogger "github.com/aldergrove/cms-auth/internal/infra/logger"
)

// IPWhitelist rejects requests from addresses outside the configured list
// with 401. Disabled whitelisting passes everything through.
func IPWhitelist(cfg config.FirewallSettings, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	allowed := make(map[string]struct{}, len(cfg.WhitelistIPs))
	for _, ip := range cfg.WhitelistIPs {
		if parsed := net.ParseIP(ip); parsed != nil {
			allowed[parsed.String()] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if !cfg.WhitelistEnabled {
			c.Next()
			return
		}

		clientIP := net.ParseIP(c.ClientIP())
		if clientIP != nil {
			if _, ok := allowed[clientIP.String()]; ok {
				c.Next()
				return
			}
		}

		log.Warn("request blocked by IP whitelist",
			zap.String("client_ip", appLogger.MaskIP(c.ClientIP())),
		)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}
