package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	s := NewService("secret", time.Hour)

	token, expiresIn, err := s.GenerateAccessToken("dev-1", "laptop")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := s.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", claims.DeviceID)
	assert.Equal(t, "laptop", claims.DeviceName)
	assert.Equal(t, "dev-1", claims.Subject)
}

func TestService_Rejects(t *testing.T) {
	s := NewService("secret", time.Hour)
	valid, _, err := s.GenerateAccessToken("dev-1", "")
	require.NoError(t, err)

	expired := NewService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.GenerateAccessToken("dev-1", "")
	require.NoError(t, err)

	foreign, _, err := NewService("other", time.Hour).GenerateAccessToken("dev-1", "")
	require.NoError(t, err)

	none, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{DeviceID: "dev-1"}).
		SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "expired", token: old},
		{name: "wrong secret", token: foreign},
		{name: "alg none", token: none},
		{name: "truncated", token: valid[:len(valid)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
