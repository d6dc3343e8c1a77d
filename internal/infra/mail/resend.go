package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/infra/logger"
)

// ResendMailer delivers two-factor codes through the Resend API.
type ResendMailer struct {
	client *resend.Client
	cfg    config.MailSettings
	logger *zap.Logger
}

var _ port.CodeMailer = (*ResendMailer)(nil)

// NewResendMailer constructs a ResendMailer.
func NewResendMailer(cfg config.MailSettings, log *zap.Logger) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(cfg.ResendAPIKey),
		cfg:    cfg,
		logger: log,
	}
}

// SendTwoFactorCode mails the verification code to the address.
func (m *ResendMailer) SendTwoFactorCode(ctx context.Context, email, code string) error {
	params := &resend.SendEmailRequest{
		From:    m.cfg.From,
		To:      []string{email},
		Subject: "Your login verification code",
		Html:    twoFactorCodeTemplate(code),
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send two factor email: %w", err)
	}

	m.logger.Info("two factor email sent",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("message_id", sent.Id),
	)
	return nil
}

func twoFactorCodeTemplate(code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Login verification</h2>
  <p>Enter this code to continue signing in:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 4px;">%s</p>
  <p>If you did not request this code you can ignore this email.</p>
</body>
</html>`, code)
}
