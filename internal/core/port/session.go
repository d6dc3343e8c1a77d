package port

// Session is the per-request browser session the guard reads and writes. The
// HTTP layer supplies an implementation backed by a cookie plus a server-side
// store; the guard never touches cookies directly.
type Session interface {
	// Credentials returns the person id and login token stored at login
	// time. ok is false for anonymous sessions.
	Credentials() (personID int64, loginToken string, ok bool)

	// SetCredentials stores the person id and login token.
	SetCredentials(personID int64, loginToken string) error

	// Clear drops everything stored in the session.
	Clear() error
}
