package domain

import "time"

// LoginSucceededEvent represents the payload for auth.login.succeeded messages.
type LoginSucceededEvent struct {
	EventID    string
	PersonID   int64
	Email      string
	LoginUUID  string
	LoggedInAt time.Time
	IPAddress  string
	TwoFactor  bool
}

// LoginFailedEvent represents the payload for auth.login.failed messages.
type LoginFailedEvent struct {
	EventID   string
	Email     string
	FailedAt  time.Time
	IPAddress string
	Reason    string
}

// LogoutEvent represents the payload for auth.logout messages.
type LogoutEvent struct {
	EventID     string
	PersonID    int64
	LoggedOutAt time.Time
	// Forced is true when the logout was not user initiated, e.g. the
	// emergency ban flag evicted the session.
	Forced bool
	Reason string
}

// TokenRejectedEvent represents the payload for auth.token.rejected messages.
type TokenRejectedEvent struct {
	EventID          string
	RequestingDomain string
	Claim            string
	RejectedAt       time.Time
}
