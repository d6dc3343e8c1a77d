package domain

import "time"

// TokenRecord stores a validated JWT verbatim. The record exists solely for
// replay prevention: a token string that is already on file can never
// validate again, however far its exp claim lies in the future.
type TokenRecord struct {
	ID        int64
	JWT       string
	CreatedAt time.Time
}
