package domain

import "time"

// LoginTokenLength is the length of the opaque token minted for each login.
const LoginTokenLength = 40

// Login represents one authenticated browser session for one person. A person
// may hold several concurrent rows (multi-device); a session is live exactly
// as long as its row exists, so deleting the row logs that session out no
// matter what the session cookie says.
type Login struct {
	ID        int64
	PersonID  int64
	Token     string
	UUID      string
	CreatedAt time.Time
	CreatedBy int64
	UpdatedAt time.Time
	UpdatedBy int64
}

// InactiveSince reports whether the login has seen no activity since the
// supplied cutoff and is therefore eligible for expiry deletion.
func (l Login) InactiveSince(cutoff time.Time) bool {
	return l.UpdatedAt.Before(cutoff)
}
