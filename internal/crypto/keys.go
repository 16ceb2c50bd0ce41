package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// APIKeySize - размер случайной части ключа в байтах
const APIKeySize = 32

// GenerateAPIKey генерирует криптографически случайный API ключ
func GenerateAPIKey() (string, error) {
	buf := make([]byte, APIKeySize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return "pb_" + base64.RawURLEncoding.EncodeToString(buf), nil
}
