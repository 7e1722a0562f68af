package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeFeatureURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/survey", "/survey"},
		{"/survey?utm=123", "/survey"},
		{"/survey#section", "/survey"},
		{"/survey?a=1&b=2#frag", "/survey"},
		{"http://example.com/app?q=x", "http://example.com/app"},
		{"http://example.com/app#x?y", "http://example.com/app"},
	}
	for _, tc := range cases {
		got, err := NormalizeFeatureURL(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeFeatureURLInvalid(t *testing.T) {
	_, err := NormalizeFeatureURL("http://exa mple.com/%zz")
	require.Error(t, err)
}
