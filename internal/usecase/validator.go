package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/repository"
)

// Claim names reported to callers when validation rejects a token. Replayed
// tokens are deliberately reported as a signature failure so the response
// does not confirm to a caller that a previously captured token was genuine.
const (
	ClaimSignature = "signature"
	ClaimIss       = "iss"
	ClaimAud       = "aud"
	ClaimExp       = "exp"
	ClaimIat       = "iat"
	ClaimJti       = "jti"
)

// ValidationError reports which claim check rejected a token. Claim is the
// wire-facing claim name; Cause carries the internal diagnostic for logs.
type ValidationError struct {
	Claim string
	Cause string
}

func (e *ValidationError) Error() string {
	if e.Cause != "" {
		return fmt.Sprintf("%s claim is invalid: %s", e.Claim, e.Cause)
	}
	return fmt.Sprintf("%s claim is invalid", e.Claim)
}

// TokenValidator performs the ordered claim checks on an incoming cross
// domain JWT and records accepted tokens so replays are rejected.
type TokenValidator struct {
	cfg      *config.AppConfig
	resolver *KeyResolver
	domains  port.InstalledDomainRepository
	tokens   port.TokenRecordRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewTokenValidator constructs a TokenValidator.
func NewTokenValidator(
	cfg *config.AppConfig,
	resolver *KeyResolver,
	domains port.InstalledDomainRepository,
	tokens port.TokenRecordRepository,
	logger *zap.Logger,
) *TokenValidator {
	return &TokenValidator{
		cfg:      cfg,
		resolver: resolver,
		domains:  domains,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the validator's time source.
func (v *TokenValidator) WithClock(now func() time.Time) *TokenValidator {
	v.now = now
	return v
}

// Validate runs the full ordered check sequence against tokenString. The
// signature is verified against the key registered for the domain the iss
// claim names, which binds the signature to the claimed issuer: a token
// signed with one domain's key cannot name another domain as issuer. The
// checks run strictly in order and the first failure is the one reported:
// replay, signature, iss, aud, exp, iat, jti. On success the token is
// recorded atomically; losing the recording race to a concurrent request
// carrying the same token is itself a replay rejection.
//
// All temporal checks compare against a single instant captured at entry,
// truncated to whole seconds to match the second-granularity claims.
func (v *TokenValidator) Validate(ctx context.Context, tokenString string) (*jwt.RegisteredClaims, error) {
	now := v.now().UTC().Truncate(time.Second)

	seen, err := v.tokens.Exists(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("check token record: %w", err)
	}
	if seen {
		return nil, &ValidationError{Claim: ClaimSignature, Cause: "token already used"}
	}

	claims, err := v.verifySignature(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	issuer := domain.StripScheme(claims.Issuer)
	if issuer == "" {
		return nil, &ValidationError{Claim: ClaimIss}
	}
	if _, err := v.domains.GetEnabledByTitle(ctx, issuer); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Claim: ClaimIss}
		}
		return nil, fmt.Errorf("lookup issuer domain: %w", err)
	}

	if !v.audienceMatches(claims.Audience) {
		return nil, &ValidationError{Claim: ClaimAud}
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, &ValidationError{Claim: ClaimExp}
	}

	if claims.IssuedAt == nil || now.After(claims.IssuedAt.Time.Add(v.cfg.JWT.IatWindow)) {
		return nil, &ValidationError{Claim: ClaimIat}
	}

	if claims.ID == "" {
		return nil, &ValidationError{Claim: ClaimJti}
	}

	if err := v.tokens.Record(ctx, tokenString, now); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ValidationError{Claim: ClaimSignature, Cause: "token already used"}
		}
		return nil, fmt.Errorf("record token: %w", err)
	}

	return claims, nil
}

// verifySignature resolves the signing key registered for the iss claim's
// domain and checks the HMAC against it. The token is parsed without claim
// validation because every claim check belongs to Validate's ordered
// sequence, not to the parser.
func (v *TokenValidator) verifySignature(ctx context.Context, tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	var resolveErr error
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) {
			key, err := v.resolver.ResolveKey(ctx, claims.Issuer)
			if err != nil {
				resolveErr = err
				return nil, err
			}
			return []byte(key), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		if resolveErr != nil {
			if errors.Is(resolveErr, ErrKeyNotFound) {
				return nil, &ValidationError{Claim: ClaimSignature, Cause: "no signing key for issuer"}
			}
			return nil, fmt.Errorf("resolve signing key: %w", resolveErr)
		}
		return nil, &ValidationError{Claim: ClaimSignature}
	}
	return claims, nil
}

func (v *TokenValidator) audienceMatches(audience jwt.ClaimStrings) bool {
	own := domain.StripScheme(v.cfg.App.DomainName)
	for _, aud := range audience {
		if domain.StripScheme(aud) == own {
			return true
		}
	}
	return false
}
