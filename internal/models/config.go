package models

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// SyncMode режим синхронизации
type SyncMode string

const (
	ModeOffline      SyncMode = "offline"       // ModeOffline только локально
	ModeOnlineAuto   SyncMode = "online_auto"   // ModeOnlineAuto автоматическая синхронизация
	ModeOnlineManual SyncMode = "online_manual" // ModeOnlineManual только по запросу
	ModeHybrid       SyncMode = "hybrid"        // ModeHybrid локально, периодическая синхронизация
)

// ParseSyncMode parses a mode name. Short CLI aliases are accepted.
func ParseSyncMode(s string) (SyncMode, error) {
	switch s {
	case "offline":
		return ModeOffline, nil
	case "online", "online_auto", "auto":
		return ModeOnlineAuto, nil
	case "manual", "online_manual":
		return ModeOnlineManual, nil
	case "hybrid":
		return ModeHybrid, nil
	default:
		return "", fmt.Errorf("unknown sync mode %q", s)
	}
}

// ConflictStrategy стратегия разрешения конфликтов
type ConflictStrategy string

const (
	StrategyLocalWins     ConflictStrategy = "local_wins"
	StrategyRemoteWins    ConflictStrategy = "remote_wins"
	StrategyLastWriteWins ConflictStrategy = "last_write_wins"
	StrategyManual        ConflictStrategy = "manual"
)

// ParseConflictStrategy parses a strategy name
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch cs := ConflictStrategy(s); cs {
	case StrategyLocalWins, StrategyRemoteWins, StrategyLastWriteWins, StrategyManual:
		return cs, nil
	default:
		return "", fmt.Errorf("unknown conflict strategy %q", s)
	}
}

// DefaultAutoSyncInterval is used by OnlineSyncConfig, in seconds
const DefaultAutoSyncInterval = 300

// SyncConfig настройки синхронизации. Хранится одной записью.
type SyncConfig struct {
	LastSync         *time.Time       `json:"last_sync,omitempty"`
	Mode             SyncMode         `json:"mode"`
	ServerURL        string           `json:"server_url,omitempty"`
	APIKey           string           `json:"api_key,omitempty"`
	DeviceID         string           `json:"device_id"`
	ConflictStrategy ConflictStrategy `json:"conflict_strategy"`
	AutoSyncInterval uint64           `json:"auto_sync_interval"` // AutoSyncInterval в секундах, 0 = выключено
}

// DefaultSyncConfig returns the offline defaults with a fresh device id
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Mode:             ModeOffline,
		DeviceID:         uuid.New().String(),
		AutoSyncInterval: 0,
		ConflictStrategy: StrategyLastWriteWins,
	}
}

// OnlineSyncConfig returns an auto-syncing config for the given server
func OnlineSyncConfig(serverURL, apiKey string) SyncConfig {
	cfg := DefaultSyncConfig()
	cfg.Mode = ModeOnlineAuto
	cfg.ServerURL = serverURL
	cfg.APIKey = apiKey
	cfg.AutoSyncInterval = DefaultAutoSyncInterval
	return cfg
}

// IsOnline reports whether the mode talks to a remote
func (c *SyncConfig) IsOnline() bool {
	switch c.Mode {
	case ModeOnlineAuto, ModeOnlineManual, ModeHybrid:
		return true
	default:
		return false
	}
}

// AutoSyncEnabled is true only for an online mode with a positive interval
func (c *SyncConfig) AutoSyncEnabled() bool {
	return c.IsOnline() && c.AutoSyncInterval > 0
}

// Interval returns AutoSyncInterval as a duration
func (c *SyncConfig) Interval() time.Duration {
	return time.Duration(c.AutoSyncInterval) * time.Second
}

// IsConfigured reports whether server URL and credential are present
func (c *SyncConfig) IsConfigured() bool {
	return c.ServerURL != "" && c.APIKey != ""
}

// MarkSynced records a successful sync
func (c *SyncConfig) MarkSynced(at time.Time) {
	at = at.UTC()
	c.LastSync = &at
}

// GoOffline switches to offline and clears server credentials
func (c *SyncConfig) GoOffline() {
	c.Mode = ModeOffline
	c.ServerURL = ""
	c.APIKey = ""
}

// Validate checks the config before it is saved
func (c *SyncConfig) Validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("device id is empty")
	}
	if _, err := ParseSyncMode(string(c.Mode)); err != nil {
		return err
	}
	if _, err := ParseConflictStrategy(string(c.ConflictStrategy)); err != nil {
		return err
	}
	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil {
			return fmt.Errorf("invalid server url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("server url must use http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("server url has no host")
		}
	}
	return nil
}
