package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	lowerAlnum   = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateLoginToken returns a random alphanumeric string of the given
// length, used as the opaque token on logins ledger rows.
func GenerateLoginToken(length int) (string, error) {
	return randomString(length, alphanumeric)
}

// GenerateTwoFactorCode returns a random lowercase alphanumeric challenge
// code of the given length.
func GenerateTwoFactorCode(length int) (string, error) {
	return randomString(length, lowerAlnum)
}

// GenerateSessionID returns a base64 URL-safe random string using the
// specified number of random bytes, used as the browser session identifier.
func GenerateSessionID(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func randomString(length int, charset string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random string: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = charset[int(b)%len(charset)]
	}

	return string(out), nil
}
