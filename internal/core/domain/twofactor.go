package domain

import "time"

// TwoFactorCodeLength is the length of the random lowercase challenge code.
const TwoFactorCodeLength = 7

// TwoFactorCode is the ephemeral challenge issued during the 2FA login flow.
// One code exists per email at a time; issuing a new one replaces any prior
// code for that address.
type TwoFactorCode struct {
	Email     string
	Code      string
	Attempts  int
	CreatedAt time.Time
}

// Expired reports whether the code is older than the configured lifetime at
// the supplied moment.
func (c TwoFactorCode) Expired(at time.Time, lifetime time.Duration) bool {
	return c.CreatedAt.Add(lifetime).Before(at)
}
