package app

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/loungefm/loungefm/internal/domain"
)

var ErrInvalidToken = errors.New("invalid credential token")

// Authenticator validates the credential token presented at connection
// establishment. Identity issuance lives outside this system; the token
// already carries the resolved display attributes.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl}
}

// GenerateToken mints a token for the given identity. The server itself
// only needs this for tests and local setups.
func (a *Authenticator) GenerateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  string(user.ID),
		"name": user.DisplayName,
		"img":  user.ProfileImage,
		"iat":  now.Unix(),
		"exp":  now.Add(a.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken returns the identity carried by a valid token.
func (a *Authenticator) ParseToken(tokenStr string) (*domain.User, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	img, _ := claims["img"].(string)
	return &domain.User{ID: domain.UserID(sub), DisplayName: name, ProfileImage: img}, nil
}
