package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidAPIKey is returned when a key matches no stored hash
var ErrInvalidAPIKey = errors.New("invalid api key")

// HashAPIKey хеширует API ключ с использованием bcrypt
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("api key cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey проверяет, соответствует ли ключ сохраненному хешу
func VerifyAPIKey(key, hash string) error {
	if key == "" || hash == "" {
		return ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidAPIKey
		}
		return fmt.Errorf("failed to verify api key: %w", err)
	}
	return nil
}

// KeyRing хранит bcrypt хеши допустимых API ключей.
// Открытые ключи в памяти не держатся.
type KeyRing struct {
	hashes []string
}

// NewKeyRing hashes every non-empty key
func NewKeyRing(keys ...string) (*KeyRing, error) {
	ring := &KeyRing{}
	for _, key := range keys {
		if key == "" {
			continue
		}
		hash, err := HashAPIKey(key)
		if err != nil {
			return nil, err
		}
		ring.hashes = append(ring.hashes, hash)
	}
	if len(ring.hashes) == 0 {
		return nil, fmt.Errorf("at least one api key is required")
	}
	return ring, nil
}

// Verify returns ErrInvalidAPIKey unless key matches one of the hashes
func (r *KeyRing) Verify(key string) error {
	for _, hash := range r.hashes {
		err := VerifyAPIKey(key, hash)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrInvalidAPIKey) {
			return err
		}
	}
	return ErrInvalidAPIKey
}

// Len returns the number of keys in the ring
func (r *KeyRing) Len() int {
	return len(r.hashes)
}
