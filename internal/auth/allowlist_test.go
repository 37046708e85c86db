package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowlistMembership(t *testing.T) {
	a := newAllowlist("10.0.0.0/8, 192.168.1.5", "", true, true, false)

	tests := []struct {
		name string
		peer string
		want bool
	}{
		{name: "cidr member", peer: "10.1.2.3:5000", want: true},
		{name: "bare ip widened to host prefix", peer: "192.168.1.5:443", want: true},
		{name: "adjacent address", peer: "192.168.1.6:443", want: false},
		{name: "outside all networks", peer: "8.8.8.8:53", want: false},
		{name: "unparseable peer", peer: "not-an-address", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, a.Allows(tt.peer, ""))
		})
	}
}

func TestAllowlistDisabled(t *testing.T) {
	a := newAllowlist("10.0.0.0/8", "", false, true, false)
	require.False(t, a.Allows("10.1.2.3:5000", ""))
}

func TestAllowlistEmptyNeverAllows(t *testing.T) {
	a := newAllowlist("", "", true, true, false)
	require.False(t, a.Allows("10.1.2.3:5000", ""))
}

func TestAllowlistProductionRequiresExplicitConfig(t *testing.T) {
	// Enabled but not explicitly configured: disabled in production,
	// honored elsewhere.
	prod := newAllowlist("10.0.0.0/8", "", true, false, true)
	require.False(t, prod.Allows("10.1.2.3:5000", ""))

	dev := newAllowlist("10.0.0.0/8", "", true, false, false)
	require.True(t, dev.Allows("10.1.2.3:5000", ""))

	prodConfigured := newAllowlist("10.0.0.0/8", "", true, true, true)
	require.True(t, prodConfigured.Allows("10.1.2.3:5000", ""))
}

func TestAllowlistForwardedFor(t *testing.T) {
	a := newAllowlist("203.0.113.0/24", "172.16.0.0/12", true, true, false)

	t.Run("trusted proxy uses first forwarded hop", func(t *testing.T) {
		require.True(t, a.Allows("172.16.0.1:8080", "203.0.113.9, 10.0.0.1"))
	})
	t.Run("untrusted peer ignores forwarded header", func(t *testing.T) {
		require.False(t, a.Allows("8.8.8.8:53", "203.0.113.9"))
	})
	t.Run("trusted proxy with non-member hop", func(t *testing.T) {
		require.False(t, a.Allows("172.16.0.1:8080", "198.51.100.7"))
	})
	t.Run("no forwarded header falls back to peer", func(t *testing.T) {
		require.False(t, a.Allows("172.16.0.1:8080", ""))
	})
}

func TestAllowlistMalformedEntriesSkipped(t *testing.T) {
	a := newAllowlist("garbage, 10.0.0.0/8, 300.300.300.300", "", true, true, false)
	require.True(t, a.Allows("10.9.9.9:1", ""))
	require.False(t, a.Allows("11.0.0.1:1", ""))
}

func TestAllowlistIPv6(t *testing.T) {
	a := newAllowlist("2001:db8::/32", "", true, true, false)
	require.True(t, a.Allows("[2001:db8::1]:443", ""))
	require.False(t, a.Allows("[2001:db9::1]:443", ""))
}
