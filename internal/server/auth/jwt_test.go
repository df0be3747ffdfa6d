package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify_Success(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSigner([]byte("super-secret"), clock)

	tok, err := s.GenerateToken(clock.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.NoError(t, s.Verify(tok))
}

func TestGenerateToken_PayloadHoldsNoAccount(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSigner([]byte("k"), clock)

	tok, err := s.GenerateToken(clock.Now().Add(time.Hour))
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"jti", "iat", "exp"}, keys)
}

func TestGenerateToken_Unique(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSigner([]byte("k"), clock)

	a, err := s.GenerateToken(clock.Now().Add(time.Hour))
	require.NoError(t, err)
	b, err := s.GenerateToken(clock.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_Expired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSigner([]byte("secret"), clock)

	tok, err := s.GenerateToken(clock.Now().Add(time.Minute))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	assert.ErrorIs(t, s.Verify(tok), common.ErrTokenExpired)
}

func TestVerify_Invalid(t *testing.T) {
	clock := clockwork.NewFakeClock()
	right := NewSigner([]byte("right-secret"), clock)
	wrong := NewSigner([]byte("wrong-secret"), clock)

	tok, err := right.GenerateToken(clock.Now().Add(time.Hour))
	require.NoError(t, err)

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		s     *Signer
		token string
	}{
		{name: "wrong secret", s: wrong, token: tok},
		{name: "malformed", s: right, token: "not.a.jwt"},
		{name: "alg none", s: right, token: noneTok},
		{name: "missing id", s: right, token: noID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.s.Verify(tt.token), common.ErrInvalidToken)
		})
	}
}
