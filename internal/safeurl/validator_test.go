package safeurl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testDeniedNetworks = []string{
	"169.254.169.254/32",
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(testDeniedNetworks, zap.NewNop())
	require.NoError(t, err)
	return v
}

func TestValidateRejectsMalformedInput(t *testing.T) {
	v := newTestValidator(t)

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no scheme", "example.com"},
		{"ftp scheme", "ftp://example.com"},
		{"file scheme", "file:///etc/passwd"},
		{"scheme without host", "http://"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tc.raw)
			var invalid *InvalidURLError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestValidateRejectsBlockedAddresses(t *testing.T) {
	v := newTestValidator(t)

	cases := []struct {
		name string
		raw  string
	}{
		{"loopback", "http://127.0.0.1/"},
		{"metadata endpoint", "http://169.254.169.254/latest/meta-data/"},
		{"private class A", "http://10.0.0.1/"},
		{"private class B", "http://172.16.5.5/"},
		{"private class C", "http://192.168.1.1/admin"},
		{"link local", "http://169.254.1.1/"},
		{"ipv6 loopback", "http://[::1]/"},
		{"unspecified", "http://0.0.0.0/"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tc.raw)
			var unsafe *UnsafeTargetError
			assert.ErrorAs(t, err, &unsafe)
		})
	}
}

func TestValidateAllowsPublicAddresses(t *testing.T) {
	v := newTestValidator(t)

	validated, err := v.Validate(context.Background(), "  https://8.8.8.8/path  ")
	require.NoError(t, err)
	assert.Equal(t, "https://8.8.8.8/path", validated)
}

func TestValidateAllowsUnresolvableHostname(t *testing.T) {
	// Unresolved names are unknown, not provably unsafe. This leniency is
	// deliberate and must not regress into a rejection.
	v := newTestValidator(t)

	raw := "https://definitely-not-a-real-host-sitelens.invalid/"
	validated, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, raw, validated)
}

func TestValidateRejectsLoopbackHostname(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(context.Background(), "http://localhost:8080/")
	var unsafe *UnsafeTargetError
	if !errors.As(err, &unsafe) {
		t.Skipf("localhost did not resolve to a blocked address: %v", err)
	}
	assert.Equal(t, "localhost", unsafe.Host)
}

func TestNewRejectsInvalidDenyList(t *testing.T) {
	_, err := New([]string{"not-a-cidr"}, zap.NewNop())
	assert.Error(t, err)
}

func TestDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/path", "example.com"},
		{"https://Example.COM", "example.com"},
		{"http://sub.shop.example.com", "sub.shop.example.com"},
		{"https://www.example.com:8443/x", "example.com"},
	}

	for _, tc := range cases {
		got, err := Domain(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := Domain("://bad")
	assert.Error(t, err)
}
