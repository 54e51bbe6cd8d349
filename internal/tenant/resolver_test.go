package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/adwriter/internal/types"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		claims   *types.IdentityClaims
		expected string
	}{
		{"nil claims", nil, DefaultKey},
		{"empty subject", &types.IdentityClaims{Subject: ""}, DefaultKey},
		{"whitespace subject", &types.IdentityClaims{Subject: "   "}, DefaultKey},
		{"plain subject", &types.IdentityClaims{Subject: "alice"}, "alice"},
		{"uppercase escaped", &types.IdentityClaims{Subject: "Alice"}, "_41lice"},
		{"oid style subject", &types.IdentityClaims{Subject: "00000000-0000-0000-aaaa-bbbbccccdddd"}, "00000000-0000-0000-aaaa-bbbbccccdddd"},
		{"email style subject", &types.IdentityClaims{Subject: "alice@example.com"}, "alice_40example.com"},
		{"path separators escaped", &types.IdentityClaims{Subject: "a/../b"}, "a_2f.._2fb"},
		{"escape char escaped", &types.IdentityClaims{Subject: "a_b"}, "a_5fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.claims))
		})
	}
}

// Distinct subjects must never share a partition key.
func TestSanitizeIsInjective(t *testing.T) {
	pairs := [][2]string{
		{"UserA", "usera"},
		{"user|1", "user-1"},
		{"user_1", "user-1"},
		{"a b", "a-b"},
		{"..", "_2e_2e"},
	}
	for _, p := range pairs {
		assert.NotEqual(t, Sanitize(p[0]), Sanitize(p[1]),
			"subjects %q and %q collided", p[0], p[1])
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	claims := &types.IdentityClaims{Subject: "User|With|Pipes"}
	assert.Equal(t, Resolve(claims), Resolve(claims))
}
