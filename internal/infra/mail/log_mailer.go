package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/logger"
)

// LogMailer logs codes instead of delivering them. Useful for development
// environments without a Resend API key.
type LogMailer struct {
	logger *zap.Logger
}

var _ port.CodeMailer = (*LogMailer)(nil)

// NewLogMailer constructs a LogMailer.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

// SendTwoFactorCode logs the code. The code itself is logged unmasked on
// purpose, it is how developers complete the flow locally.
func (m *LogMailer) SendTwoFactorCode(_ context.Context, email, code string) error {
	m.logger.Info("two factor code (dev mail)",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("code", code),
	)
	return nil
}
