package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/aldergrove/cms-auth/internal/infra/config"
)

func whitelistRouter(t *testing.T, cfg config.FirewallSettings) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(IPWhitelist(cfg, zaptest.NewLogger(t)))
	r.GET("/admin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestIPWhitelistAllowsListedAddress(t *testing.T) {
	router := whitelistRouter(t, config.FirewallSettings{
		WhitelistEnabled: true,
		WhitelistIPs:     []string{"203.0.113.5"},
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.RemoteAddr = "203.0.113.5:4567"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestIPWhitelistRejectsUnlistedAddress(t *testing.T) {
	router := whitelistRouter(t, config.FirewallSettings{
		WhitelistEnabled: true,
		WhitelistIPs:     []string{"203.0.113.5"},
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.RemoteAddr = "198.51.100.7:4567"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestIPWhitelistDisabledPassesThrough(t *testing.T) {
	router := whitelistRouter(t, config.FirewallSettings{WhitelistEnabled: false})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.RemoteAddr = "198.51.100.7:4567"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
