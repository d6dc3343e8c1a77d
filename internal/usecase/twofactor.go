package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/infra/logger"
	"github.com/aldergrove/cms-auth/internal/infra/security"
	"github.com/aldergrove/cms-auth/internal/repository"
)

var (
	// ErrUnknownEmail rejects a challenge for an email with no account.
	ErrUnknownEmail = errors.New("unknown email")
	// ErrCodeMismatch means the submitted code does not match the issued one.
	ErrCodeMismatch = errors.New("verification code does not match")
	// ErrCodeExpired means the issued code aged out; a fresh one was mailed.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrAttemptsExceeded means the attempt cap was hit; a fresh code was mailed.
	ErrAttemptsExceeded = errors.New("too many verification attempts")
	// ErrLoginAborted means the final step no longer matches the challenge
	// state and the flow must restart from the beginning.
	ErrLoginAborted = errors.New("login flow aborted")
)

// TwoFactorService drives the three step email code login flow: issue a code
// to a known email, verify the code under an attempt cap and lifetime, then
// re-verify everything together with the password before the session is
// established.
type TwoFactorService struct {
	cfg     *config.AppConfig
	persons port.PersonRepository
	codes   port.TwoFactorRepository
	mailer  port.CodeMailer
	guard   *LoginGuard
	logger  *zap.Logger
	verify  func(password, encoded string) (bool, error)
	newCode func() (string, error)
	now     func() time.Time
}

// NewTwoFactorService constructs a TwoFactorService.
func NewTwoFactorService(
	cfg *config.AppConfig,
	persons port.PersonRepository,
	codes port.TwoFactorRepository,
	mailer port.CodeMailer,
	guard *LoginGuard,
	log *zap.Logger,
) *TwoFactorService {
	return &TwoFactorService{
		cfg:     cfg,
		persons: persons,
		codes:   codes,
		mailer:  mailer,
		guard:   guard,
		logger:  log,
		verify:  security.VerifyPassword,
		newCode: func() (string, error) {
			return security.GenerateTwoFactorCode(domain.TwoFactorCodeLength)
		},
		now: time.Now,
	}
}

// WithClock overrides the service's time source.
func (s *TwoFactorService) WithClock(now func() time.Time) *TwoFactorService {
	s.now = now
	return s
}

// WithCodeSource overrides the verification code generator.
func (s *TwoFactorService) WithCodeSource(newCode func() (string, error)) *TwoFactorService {
	s.newCode = newCode
	return s
}

// StartChallenge issues a fresh verification code to the email, replacing any
// code already outstanding for it. The email must belong to a known person.
func (s *TwoFactorService) StartChallenge(ctx context.Context, email string) error {
	if _, err := s.persons.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownEmail
		}
		return fmt.Errorf("lookup person: %w", err)
	}
	return s.issueCode(ctx, email)
}

// VerifyCode checks the submitted code against the outstanding challenge. The
// attempt counter is incremented before any check, so an expired code or an
// exhausted cap still consumes the attempt. Both of those outcomes replace
// the challenge with a freshly mailed code. A missing challenge only earns a
// fresh code when the email belongs to a known person; the caller still sees
// the expired outcome either way, so the response does not reveal which
// emails are registered.
func (s *TwoFactorService) VerifyCode(ctx context.Context, email, code string) error {
	attempts, err := s.codes.IncrementAttempts(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if issueErr := s.reissueForKnownPerson(ctx, email); issueErr != nil {
				return issueErr
			}
			return ErrCodeExpired
		}
		return fmt.Errorf("increment attempts: %w", err)
	}

	if attempts > s.cfg.TwoFactor.MaxAttempts {
		if err := s.issueCode(ctx, email); err != nil {
			return err
		}
		return ErrAttemptsExceeded
	}

	rec, err := s.codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if issueErr := s.issueCode(ctx, email); issueErr != nil {
				return issueErr
			}
			return ErrCodeExpired
		}
		return fmt.Errorf("get verification code: %w", err)
	}

	if rec.Expired(s.now().UTC(), s.cfg.TwoFactor.CodeTTL) {
		if err := s.issueCode(ctx, email); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	if rec.Code != code {
		return ErrCodeMismatch
	}
	return nil
}

// CompleteLogin re-verifies the code together with the password and, when
// everything still holds, consumes the challenge and establishes the session.
// A code that no longer matches at this stage aborts the flow outright
// instead of counting as another verification attempt.
func (s *TwoFactorService) CompleteLogin(ctx context.Context, sess port.Session, email, code, password, ip string) (*domain.Person, error) {
	person, err := s.persons.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLoginAborted
		}
		return nil, fmt.Errorf("lookup person: %w", err)
	}

	ok, err := s.verify(password, person.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	rec, err := s.codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLoginAborted
		}
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	if rec.Code != code {
		return nil, ErrLoginAborted
	}

	if person.Banned {
		return nil, ErrPersonBanned
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		return nil, fmt.Errorf("delete verification code: %w", err)
	}

	if err := s.guard.Login(ctx, sess, person, ip, true); err != nil {
		return nil, err
	}
	return person, nil
}

// reissueForKnownPerson issues a fresh code only when the email has an
// account behind it. An unknown email is a silent no-op so that posting
// arbitrary addresses to the verification step neither stores challenge
// records nor sends mail.
func (s *TwoFactorService) reissueForKnownPerson(ctx context.Context, email string) error {
	if _, err := s.persons.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup person: %w", err)
	}
	return s.issueCode(ctx, email)
}

func (s *TwoFactorService) issueCode(ctx context.Context, email string) error {
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	rec := &domain.TwoFactorCode{
		Email:     email,
		Code:      code,
		Attempts:  0,
		CreatedAt: s.now().UTC(),
	}
	if err := s.codes.Replace(ctx, rec); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	if err := s.mailer.SendTwoFactorCode(ctx, email, code); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}

	s.logger.Info("two factor code issued", zap.String("email", logger.MaskEmail(email)))
	return nil
}
