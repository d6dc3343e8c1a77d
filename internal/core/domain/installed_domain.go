package domain

import "strings"

// InstalledDomain is a registered participant in the multi-domain family,
// identified by its bare hostname. Domains are provisioned during installation
// and are read-only at runtime.
type InstalledDomain struct {
	ID      int64
	Title   string
	Enabled bool
}

// SigningKey is the symmetric HMAC key a front-end domain signs its tokens
// with. At most one enabled key is authoritative per domain; rotation disables
// the old row and enables a new one.
type SigningKey struct {
	ID                int64
	InstalledDomainID int64
	Key               string
	Enabled           bool
}

// StripScheme removes a leading http:// or https:// so domain comparisons
// always happen on bare hostnames.
func StripScheme(url string) string {
	url = strings.TrimSpace(url)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return url
}
