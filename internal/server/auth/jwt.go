// Package auth signs and verifies access tokens (JWT, HS256).
//
// Tokens carry only a random ID and their validity window; the account a
// token belongs to is resolved from the access-token store.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

type Signer struct {
	secret []byte
	clock  clockwork.Clock
}

func NewSigner(secret []byte, clock clockwork.Clock) *Signer {
	return &Signer{secret: secret, clock: clock}
}

// GenerateToken returns a signed token valid until expiresAt.
func (s *Signer) GenerateToken(expiresAt time.Time) (string, error) {
	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(s.clock.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	return token.SignedString(s.secret)
}

// Verify checks the signature and expiry of tokenString.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification common.ErrInvalidToken.
func (s *Signer) Verify(tokenString string) error {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}

	if !token.Valid || claims.ID == "" {
		return common.ErrInvalidToken
	}

	return nil
}
