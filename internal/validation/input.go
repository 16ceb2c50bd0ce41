// Package validation проверяет пользовательский ввод CLI до записи в конфиг
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ItemIDPattern допустимый идентификатор сущности: буквы, цифры, '-', '_', '.', ':'
var ItemIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]{1,128}$`)

const (
	// MinAPIKeyLen минимальная длина API ключа
	MinAPIKeyLen = 16
	// MaxAutoSyncInterval верхняя граница интервала автосинхронизации, сутки
	MaxAutoSyncInterval = 24 * 60 * 60
)

// ValidateServerURL проверяет адрес сервера синхронизации
// Допускаются только http и https с непустым хостом
func ValidateServerURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("server url cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url must use http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("server url must include a host")
	}

	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("server url must not contain query or fragment")
	}

	return nil
}

// ValidateAPIKey проверяет API ключ
// Минимум 16 символов, без пробелов
func ValidateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("api key cannot be empty")
	}

	if len(key) < MinAPIKeyLen {
		return fmt.Errorf("api key must be at least %d characters long", MinAPIKeyLen)
	}

	if strings.ContainsAny(key, " \t\r\n") {
		return fmt.Errorf("api key must not contain whitespace")
	}

	return nil
}

// ValidateItemID проверяет идентификатор сущности
func ValidateItemID(id string) error {
	if id == "" {
		return fmt.Errorf("item id cannot be empty")
	}

	if !ItemIDPattern.MatchString(id) {
		return fmt.Errorf("item id can only contain letters, numbers, '.', '_', ':' and '-' (up to 128)")
	}

	return nil
}

// ValidateInterval проверяет интервал автосинхронизации в секундах, 0 выключает
func ValidateInterval(seconds uint64) error {
	if seconds > MaxAutoSyncInterval {
		return fmt.Errorf("auto-sync interval must not exceed %d seconds", MaxAutoSyncInterval)
	}
	return nil
}
