package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/infra/security"
	"github.com/aldergrove/cms-auth/internal/repository"
	redisrepo "github.com/aldergrove/cms-auth/internal/repository/redis"
)

const (
	contextKey = "browser_session"

	sessionIDBytes = 32
)

// Store manages cookie-backed browser sessions whose state lives in Redis.
// Only the opaque session ID crosses the wire.
type Store struct {
	repo   *redisrepo.SessionRepository
	cfg    config.SessionSettings
	logger *zap.Logger
}

// NewStore constructs a session Store.
func NewStore(repo *redisrepo.SessionRepository, cfg config.SessionSettings, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{repo: repo, cfg: cfg, logger: log}
}

// Middleware loads the request's session from its cookie and binds it to the
// Gin context for handlers and the guard.
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := &Session{c: c, store: s}

		if id, err := c.Cookie(s.cfg.CookieName); err == nil && id != "" {
			sess.id = id
			state, err := s.repo.Get(c.Request.Context(), id)
			switch {
			case err == nil:
				sess.state = state
			case errors.Is(err, repository.ErrNotFound):
				// Cookie outlived its server side state; an anonymous
				// session with a stale ID behaves the same as no cookie.
			default:
				s.logger.Warn("load session failed", zap.Error(err))
			}
		}

		c.Set(contextKey, sess)
		c.Next()
	}
}

// FromContext returns the request's session. The middleware must have run.
func FromContext(c *gin.Context) (port.Session, bool) {
	value, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	sess, ok := value.(*Session)
	return sess, ok
}

// Session is the per-request view of one browser session.
type Session struct {
	c     *gin.Context
	store *Store
	id    string
	state *redisrepo.SessionState
}

var _ port.Session = (*Session)(nil)

// Credentials returns the person and login token bound at login time.
func (s *Session) Credentials() (int64, string, bool) {
	if s.state == nil {
		return 0, "", false
	}
	return s.state.PersonID, s.state.LoginToken, true
}

// SetCredentials binds a person and login token to the session. The session
// ID is rotated so a pre-login cookie cannot be fixated onto the
// authenticated session.
func (s *Session) SetCredentials(personID int64, loginToken string) error {
	newID, err := security.GenerateSessionID(sessionIDBytes)
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}

	ctx := s.c.Request.Context()
	if s.id != "" {
		if err := s.store.repo.Delete(ctx, s.id); err != nil {
			return err
		}
	}

	state := &redisrepo.SessionState{PersonID: personID, LoginToken: loginToken}
	if err := s.store.repo.Put(ctx, newID, state); err != nil {
		return err
	}

	s.id = newID
	s.state = state
	s.writeCookie(newID, int(s.store.cfg.TTL.Seconds()))
	return nil
}

// Clear drops the session state and expires the cookie.
func (s *Session) Clear() error {
	if s.id != "" {
		if err := s.store.repo.Delete(s.c.Request.Context(), s.id); err != nil {
			return err
		}
	}

	s.id = ""
	s.state = nil
	s.writeCookie("", -1)
	return nil
}

func (s *Session) writeCookie(value string, maxAge int) {
	http.SetCookie(s.c.Writer, &http.Cookie{
		Name:     s.store.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.store.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
