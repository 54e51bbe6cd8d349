// Package tenant derives the partition key that scopes every document access.
package tenant

import (
	"fmt"
	"strings"

	"github.com/jonathan/adwriter/internal/types"
)

// DefaultKey is returned when no authenticated identity is present. It exists
// for pre-authentication code paths only and must never be used to read or
// write real tenant data.
const DefaultKey = "default"

// Resolve returns the partition key for the authenticated identity.
// The key is derived from the subject claim and sanitized so it is safe to
// use as a directory name in the file-backed store.
func Resolve(claims *types.IdentityClaims) string {
	if claims == nil || strings.TrimSpace(claims.Subject) == "" {
		return DefaultKey
	}
	return Sanitize(claims.Subject)
}

// Sanitize maps an arbitrary subject identifier onto the restricted
// partition-key alphabet [a-z0-9._-]. The mapping is injective: bytes
// outside [a-z0-9.-] are escaped as '_' plus two hex digits, and '_' itself
// is always escaped, so two distinct subjects can never share a partition.
func Sanitize(subject string) string {
	var b strings.Builder
	b.Grow(len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	key := b.String()
	switch key {
	case "":
		return DefaultKey
	case ".", "..":
		// Never emit a relative path component as a key.
		return strings.ReplaceAll(key, ".", "_2e")
	}
	return key
}
