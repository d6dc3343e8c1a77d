package port

import "context"

// CodeMailer delivers two-factor challenge codes out of band.
type CodeMailer interface {
	SendTwoFactorCode(ctx context.Context, email, code string) error
}
