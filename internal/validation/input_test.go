package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateServerURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{name: "valid http", url: "http://localhost:8080"},
		{name: "valid https with path", url: "https://sync.example.com/postboy"},
		{name: "invalid - empty", url: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "invalid - scheme", url: "ftp://example.com", wantErr: true, errMsg: "http or https"},
		{name: "invalid - no scheme", url: "example.com", wantErr: true, errMsg: "http or https"},
		{name: "invalid - no host", url: "http://", wantErr: true, errMsg: "host"},
		{name: "invalid - query", url: "http://example.com?a=1", wantErr: true, errMsg: "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServerURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid", key: "pb_0123456789abcdef0123"},
		{name: "valid - min length", key: strings.Repeat("k", MinAPIKeyLen)},
		{name: "invalid - empty", key: "", wantErr: true},
		{name: "invalid - short", key: "pb_short", wantErr: true},
		{name: "invalid - whitespace", key: "pb_0123456789 abcdef", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateItemID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "uuid", id: "0b6f3a52-6c2e-4a57-9a3b-7b1d5f1e2c4d"},
		{name: "dotted", id: "users.get:v2"},
		{name: "invalid - empty", id: "", wantErr: true},
		{name: "invalid - slash", id: "a/b", wantErr: true},
		{name: "invalid - too long", id: strings.Repeat("a", 129), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItemID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, ValidateInterval(0))
	assert.NoError(t, ValidateInterval(300))
	assert.Error(t, ValidateInterval(MaxAutoSyncInterval+1))
}
