// Package domain contains entities without behavior, just meta-data
// and the validation needed to construct them.
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const MaxDisplayNameLen = 64

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

type UserID string

// User is the identity the engine consumes; issuance happens elsewhere.
type User struct {
	ID           UserID `json:"id"`
	DisplayName  string `json:"displayName"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(displayName, profileImage string) (*User, error) {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) == 0 {
		return nil, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	return &User{
		ID:           UserID(uuid.NewString()),
		DisplayName:  displayName,
		ProfileImage: profileImage,
	}, nil
}
