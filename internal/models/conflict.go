package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/postboy/internal/syncerr"
)

// ConflictInfo описывает расхождение локальной и удаленной версии одной сущности.
// Оба снимка хранятся как есть для ручного просмотра.
type ConflictInfo struct {
	LocalTimestamp  time.Time       `json:"local_timestamp"`
	RemoteTimestamp time.Time       `json:"remote_timestamp"`
	CreatedAt       time.Time       `json:"created_at"`
	ConflictID      string          `json:"conflict_id"`
	ItemType        ItemType        `json:"item_type"`
	ItemID          string          `json:"item_id"`
	ItemName        string          `json:"item_name"`
	ChangeID        string          `json:"change_id"` // ChangeID локальное изменение, вызвавшее конфликт
	LocalValue      json.RawMessage `json:"local_value"`
	RemoteValue     json.RawMessage `json:"remote_value"`
	LocalVersion    int64           `json:"local_version"`
	RemoteVersion   int64           `json:"remote_version"`
}

// NewConflictInfo builds a conflict from the local change and the remote
// state of the same item. Equal versions are not a conflict and are rejected.
func NewConflictInfo(local, remote Change, itemName string) (ConflictInfo, error) {
	if local.Key() != remote.Key() {
		return ConflictInfo{}, syncerr.Errorf(syncerr.KindInvalidData, "conflict",
			"local %s and remote %s refer to different items", local.Key(), remote.Key())
	}
	if local.Version == remote.Version {
		return ConflictInfo{}, syncerr.Errorf(syncerr.KindInvalidData, "conflict",
			"versions of %s are equal (%d), nothing diverged", local.Key(), local.Version)
	}

	if itemName == "" {
		itemName = remote.ItemName()
	}

	return ConflictInfo{
		ConflictID:      uuid.New().String(),
		ItemType:        local.ItemType,
		ItemID:          local.ItemID,
		ItemName:        itemName,
		ChangeID:        local.ChangeID,
		LocalVersion:    local.Version,
		RemoteVersion:   remote.Version,
		LocalValue:      snapshot(local.Data),
		RemoteValue:     snapshot(remote.Data),
		LocalTimestamp:  local.Timestamp,
		RemoteTimestamp: remote.Timestamp,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Key returns the item key of the conflicting item
func (c *ConflictInfo) Key() ItemKey {
	return ItemKey{Type: c.ItemType, ID: c.ItemID}
}

// snapshot keeps deletes visible as JSON null
func snapshot(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return cloneRaw(data)
}

// ConflictChoice выбор стороны при разрешении конфликта
type ConflictChoice string

const (
	ChoiceLocal  ConflictChoice = "local"
	ChoiceRemote ConflictChoice = "remote"
	ChoiceMerged ConflictChoice = "merged"
)

// ParseConflictChoice parses local, remote or merged
func ParseConflictChoice(s string) (ConflictChoice, error) {
	switch c := ConflictChoice(s); c {
	case ChoiceLocal, ChoiceRemote, ChoiceMerged:
		return c, nil
	default:
		return "", syncerr.Errorf(syncerr.KindInvalidData, "parse", "unknown conflict choice %q", s)
	}
}

// ConflictResolution решение по одному конфликту.
// Value заполняется только для ChoiceMerged.
type ConflictResolution struct {
	ConflictID string          `json:"conflict_id"`
	Choice     ConflictChoice  `json:"choice"`
	Value      json.RawMessage `json:"value,omitempty"`
}

// KeepLocal resolves the conflict in favor of the local snapshot
func KeepLocal(conflictID string) ConflictResolution {
	return ConflictResolution{ConflictID: conflictID, Choice: ChoiceLocal}
}

// KeepRemote resolves the conflict in favor of the remote snapshot
func KeepRemote(conflictID string) ConflictResolution {
	return ConflictResolution{ConflictID: conflictID, Choice: ChoiceRemote}
}

// Merged resolves the conflict with an explicit replacement payload
func Merged(conflictID string, value json.RawMessage) ConflictResolution {
	return ConflictResolution{ConflictID: conflictID, Choice: ChoiceMerged, Value: cloneRaw(value)}
}

// Validate checks the resolution before it is sent to a provider
func (r *ConflictResolution) Validate() error {
	if r.ConflictID == "" {
		return syncerr.Errorf(syncerr.KindInvalidData, "resolve", "conflict id is empty")
	}
	switch r.Choice {
	case ChoiceLocal, ChoiceRemote:
		return nil
	case ChoiceMerged:
		if len(r.Value) == 0 || !json.Valid(r.Value) {
			return syncerr.Errorf(syncerr.KindInvalidData, "resolve",
				"merged resolution for %s needs a valid JSON value", r.ConflictID)
		}
		return nil
	default:
		return syncerr.Errorf(syncerr.KindInvalidData, "resolve", "unknown conflict choice %q", r.Choice)
	}
}
