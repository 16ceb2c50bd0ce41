package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAPIKey(t *testing.T) {
	hash, err := HashAPIKey("secret-key")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-key", hash)

	other, err := HashAPIKey("secret-key")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "bcrypt salts every hash")

	_, err = HashAPIKey("")
	assert.Error(t, err)
}

func TestVerifyAPIKey(t *testing.T) {
	hash, err := HashAPIKey("secret-key")
	require.NoError(t, err)

	tests := []struct {
		wantErr error
		name    string
		key     string
		hash    string
	}{
		{name: "match", key: "secret-key", hash: hash},
		{name: "mismatch", key: "other", hash: hash, wantErr: ErrInvalidAPIKey},
		{name: "empty key", key: "", hash: hash, wantErr: ErrInvalidAPIKey},
		{name: "empty hash", key: "secret-key", hash: "", wantErr: ErrInvalidAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAPIKey(tt.key, tt.hash)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// не bcrypt хеш
	err = VerifyAPIKey("secret-key", "plain")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAPIKey)
}

func TestKeyRing(t *testing.T) {
	ring, err := NewKeyRing("first", "", "second")
	require.NoError(t, err)
	assert.Equal(t, 2, ring.Len())

	assert.NoError(t, ring.Verify("first"))
	assert.NoError(t, ring.Verify("second"))
	assert.ErrorIs(t, ring.Verify("third"), ErrInvalidAPIKey)

	_, err = NewKeyRing("", "")
	assert.Error(t, err)
}
