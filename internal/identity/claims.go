package identity

import (
	"campaign-session/internal/entity"

	"github.com/golang-jwt/jwt/v5"
)

type idTokenClaims struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture"`
	PhoneNumber string `json:"phone_number"`
	jwt.RegisteredClaims
}

// decodeIDToken reads claims without checking the signature. The token came
// straight from the token endpoint over TLS in the same exchange.
func decodeIDToken(raw string) (*idTokenClaims, error) {
	claims := &idTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// fill only sets fields the userinfo response left empty.
func (c *idTokenClaims) fill(identity *entity.ExternalIdentity) {
	if identity.UID == "" {
		identity.UID = c.Subject
	}
	if identity.Email == "" {
		identity.Email = c.Email
	}
	if identity.DisplayName == "" {
		identity.DisplayName = c.Name
	}
	if identity.PhotoURL == "" {
		identity.PhotoURL = c.Picture
	}
	if identity.PhoneNumber == "" {
		identity.PhoneNumber = c.PhoneNumber
	}
}
