package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/infra/logger"
	"github.com/aldergrove/cms-auth/internal/infra/security"
	"github.com/aldergrove/cms-auth/internal/repository"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// login response cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrPersonBanned rejects a login attempt by a banned account.
var ErrPersonBanned = errors.New("person is banned")

// systemAccountID is the audit identity stamped on rows the service itself
// creates.
const systemAccountID = 1

// LoginGuard authenticates people against the persons table and tracks live
// sessions through server side login records. A session is authenticated only
// while its login record exists; deleting the record logs the person out
// everywhere the token is presented.
type LoginGuard struct {
	cfg      *config.AppConfig
	persons  port.PersonRepository
	logins   port.LoginRepository
	events   port.EventPublisher
	logger   *zap.Logger
	verify   func(password, encoded string) (bool, error)
	newToken func() (string, error)
	now      func() time.Time
}

// NewLoginGuard constructs a LoginGuard.
func NewLoginGuard(
	cfg *config.AppConfig,
	persons port.PersonRepository,
	logins port.LoginRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *LoginGuard {
	return &LoginGuard{
		cfg:     cfg,
		persons: persons,
		logins:  logins,
		events:  events,
		logger:  log,
		verify:  security.VerifyPassword,
		newToken: func() (string, error) {
			return security.GenerateLoginToken(domain.LoginTokenLength)
		},
		now: time.Now,
	}
}

// WithClock overrides the guard's time source.
func (g *LoginGuard) WithClock(now func() time.Time) *LoginGuard {
	g.now = now
	return g
}

// WithTokenSource overrides the login token generator.
func (g *LoginGuard) WithTokenSource(newToken func() (string, error)) *LoginGuard {
	g.newToken = newToken
	return g
}

// Attempt verifies the supplied credentials and, when they hold, establishes
// a session. Unknown email and wrong password are indistinguishable to the
// caller.
func (g *LoginGuard) Attempt(ctx context.Context, sess port.Session, email, password, ip string) (*domain.Person, error) {
	person, err := g.persons.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			g.publishLoginFailed(ctx, email, ip, "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup person: %w", err)
	}

	ok, err := g.verify(password, person.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		g.publishLoginFailed(ctx, email, ip, "wrong password")
		return nil, ErrInvalidCredentials
	}

	if person.Banned {
		g.publishLoginFailed(ctx, email, ip, "banned")
		return nil, ErrPersonBanned
	}

	if err := g.Login(ctx, sess, person, ip, false); err != nil {
		return nil, err
	}
	return person, nil
}

// Login establishes an authenticated session for an already verified person:
// a fresh opaque token is persisted as a login record and bound to the
// browser session. viaTwoFactor marks sessions established through the email
// code flow.
func (g *LoginGuard) Login(ctx context.Context, sess port.Session, person *domain.Person, ip string, viaTwoFactor bool) error {
	token, err := g.newToken()
	if err != nil {
		return fmt.Errorf("generate login token: %w", err)
	}

	now := g.now().UTC()
	login := &domain.Login{
		PersonID:  person.ID,
		Token:     token,
		UUID:      uuid.NewString(),
		CreatedAt: now,
		CreatedBy: systemAccountID,
		UpdatedAt: now,
		UpdatedBy: systemAccountID,
	}
	if err := g.logins.Create(ctx, login); err != nil {
		return fmt.Errorf("create login record: %w", err)
	}

	if err := sess.SetCredentials(person.ID, token); err != nil {
		return fmt.Errorf("bind session: %w", err)
	}

	g.logger.Info("login succeeded",
		zap.String("email", logger.MaskEmail(person.Email)),
		zap.Int64("person_id", person.ID),
	)
	if g.events != nil {
		g.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
			PersonID:   person.ID,
			Email:      person.Email,
			LoginUUID:  login.UUID,
			LoggedInAt: now,
			IPAddress:  ip,
			TwoFactor:  viaTwoFactor,
		})
	}
	return nil
}

// User resolves the session to an authenticated person, or to nil when the
// session is anonymous. The checks run in a fixed order: the emergency ban
// switch forces a logout before anything else; an individually banned person
// is anonymous without their session being mutated; a missing login record
// means the session was revoked; and a session that survives every check has
// its login record's activity timestamp refreshed.
func (g *LoginGuard) User(ctx context.Context, sess port.Session) (*domain.Person, error) {
	if g.cfg.Login.BanAllUsers {
		if err := g.Logout(ctx, sess, true); err != nil {
			return nil, err
		}
		return nil, nil
	}

	personID, token, ok := sess.Credentials()
	if !ok {
		return nil, nil
	}

	person, err := g.persons.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup person: %w", err)
	}
	if person.Banned {
		return nil, nil
	}

	login, err := g.logins.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup login record: %w", err)
	}
	if login.PersonID != personID {
		return nil, nil
	}

	if err := g.logins.Touch(ctx, token, personID, g.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("touch login record: %w", err)
	}

	return person, nil
}

// Check reports whether the session resolves to an authenticated person.
func (g *LoginGuard) Check(ctx context.Context, sess port.Session) (bool, error) {
	person, err := g.User(ctx, sess)
	if err != nil {
		return false, err
	}
	return person != nil, nil
}

// Logout deletes the session's login record and clears the session. A login
// record that is already gone is not an error.
func (g *LoginGuard) Logout(ctx context.Context, sess port.Session, forced bool) error {
	personID, token, ok := sess.Credentials()
	if ok {
		if err := g.logins.DeleteByToken(ctx, token); err != nil {
			return fmt.Errorf("delete login record: %w", err)
		}
	}
	if err := sess.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	if ok && g.events != nil {
		reason := "user initiated"
		if forced {
			reason = "forced"
		}
		g.events.PublishLogout(ctx, domain.LogoutEvent{
			PersonID:    personID,
			LoggedOutAt: g.now().UTC(),
			Forced:      forced,
			Reason:      reason,
		})
	}
	return nil
}

// BanPersonLogins revokes every live session belonging to one person. Used
// when an administrator bans an account and its sessions must die now, not
// at the next inactivity sweep.
func (g *LoginGuard) BanPersonLogins(ctx context.Context, personID int64) error {
	if err := g.logins.DeleteByPerson(ctx, personID); err != nil {
		return fmt.Errorf("delete person logins: %w", err)
	}
	return nil
}

func (g *LoginGuard) publishLoginFailed(ctx context.Context, email, ip, reason string) {
	g.logger.Warn("login failed",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("ip", logger.MaskIP(ip)),
		zap.String("reason", reason),
	)
	if g.events != nil {
		g.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
			Email:     email,
			FailedAt:  g.now().UTC(),
			IPAddress: ip,
			Reason:    reason,
		})
	}
}
