package domain

import "time"

// Person is an admin-backend account (one row in personbydomains). Only the
// fields the authentication core reads are modelled.
type Person struct {
	ID           int64
	Email        string
	PasswordHash string
	Banned       bool
	CreatedAt    time.Time
}
