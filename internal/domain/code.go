package domain

import (
	"crypto/rand"
	"strings"
)

// codeAlphabet skips 0/O/1/I/L so codes survive being read aloud.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	CodeLength   = 6
)

// GenerateCode returns a random share code. Uniqueness among active
// lounges is the manager's job; this only picks characters.
func GenerateCode() LoungeCode {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand on a supported platform does not fail.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return LoungeCode(buf)
}

// NormalizeCode canonicalizes user input before lookup. Stored codes are
// already canonical.
func NormalizeCode(raw string) LoungeCode {
	return LoungeCode(strings.ToUpper(strings.TrimSpace(raw)))
}
