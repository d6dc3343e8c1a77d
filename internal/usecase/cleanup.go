package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
)

// CleanupService removes rows the auth flow no longer needs: token records
// whose JWTs can no longer pass the issued-at check, and login records idle
// past the inactivity window.
type CleanupService struct {
	cfg    *config.AppConfig
	tokens port.TokenRecordRepository
	logins port.LoginRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewCleanupService constructs a CleanupService.
func NewCleanupService(
	cfg *config.AppConfig,
	tokens port.TokenRecordRepository,
	logins port.LoginRepository,
	log *zap.Logger,
) *CleanupService {
	return &CleanupService{
		cfg:    cfg,
		tokens: tokens,
		logins: logins,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the service's time source.
func (s *CleanupService) WithClock(now func() time.Time) *CleanupService {
	s.now = now
	return s
}

// DeleteExpiredTokenRecords removes token records older than the retention
// window. The window must outlive the issued-at acceptance window, otherwise
// a replayed token could be accepted after its record was swept.
func (s *CleanupService) DeleteExpiredTokenRecords(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.JWT.RetentionWindow)
	deleted, err := s.tokens.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired token records: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("swept token records",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}

// DeleteInactiveLogins revokes login records with no activity inside the
// inactivity window, logging those people out everywhere.
func (s *CleanupService) DeleteInactiveLogins(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.Login.InactivityWindow)
	deleted, err := s.logins.DeleteInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete inactive logins: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("swept inactive logins",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}
