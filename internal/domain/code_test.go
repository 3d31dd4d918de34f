package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[LoungeCode]bool)
	for i := 0; i < 500; i++ {
		code := GenerateCode()
		require.Len(t, string(code), CodeLength)
		for _, r := range string(code) {
			require.Contains(t, codeAlphabet, string(r), "code %s uses a character outside the alphabet", code)
		}
		require.NotContains(t, string(code), "0")
		require.NotContains(t, string(code), "O")
		require.NotContains(t, string(code), "I")
		require.NotContains(t, string(code), "L")
		require.NotContains(t, string(code), "1")
		seen[code] = true
	}
	// 500 draws from 31^6 should essentially never collide down to one.
	require.Greater(t, len(seen), 490)
}

func TestNormalizeCode(t *testing.T) {
	require.Equal(t, LoungeCode("AB2CD3"), NormalizeCode("  ab2cd3 "))
	require.Equal(t, LoungeCode("AB2CD3"), NormalizeCode(strings.ToLower("AB2CD3")))
}
