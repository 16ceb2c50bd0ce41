package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/postboy/internal/syncerr"
)

// ItemType тип синхронизируемой сущности
type ItemType string

const (
	ItemTypeCollection  ItemType = "collection"
	ItemTypeFolder      ItemType = "folder"
	ItemTypeRequest     ItemType = "request"
	ItemTypeEnvironment ItemType = "environment"
)

// ItemTypes lists every synchronizable item type in display order
var ItemTypes = []ItemType{
	ItemTypeCollection,
	ItemTypeFolder,
	ItemTypeRequest,
	ItemTypeEnvironment,
}

func (t ItemType) String() string {
	return string(t)
}

// Valid reports whether t is one of the known item types
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeCollection, ItemTypeFolder, ItemTypeRequest, ItemTypeEnvironment:
		return true
	default:
		return false
	}
}

// ParseItemType parses the lowercase item type name
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.Valid() {
		return "", syncerr.Errorf(syncerr.KindInvalidData, "parse", "unknown item type %q", s)
	}
	return t, nil
}

// Operation тип изменения сущности
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

func (o Operation) String() string {
	return string(o)
}

// Valid reports whether o is create, update or delete
func (o Operation) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	default:
		return false
	}
}

// ParseOperation parses the lowercase operation name
func ParseOperation(s string) (Operation, error) {
	o := Operation(s)
	if !o.Valid() {
		return "", syncerr.Errorf(syncerr.KindInvalidData, "parse", "unknown operation %q", s)
	}
	return o, nil
}

// ItemKey identifies an item across types. At most one pending change
// exists per key.
type ItemKey struct {
	Type ItemType
	ID   string
}

func (k ItemKey) String() string {
	return string(k.Type) + "/" + k.ID
}

// Change описывает одно изменение (create/update/delete) одной сущности.
// После создания запись не меняется, кроме флага Synced.
type Change struct {
	Timestamp time.Time       `json:"timestamp"` // Timestamp время создания изменения
	ChangeID  string          `json:"change_id"` // ChangeID уникальный идентификатор изменения (UUID), не совпадает с ItemID
	ItemType  ItemType        `json:"item_type"` // ItemType тип сущности
	ItemID    string          `json:"item_id"`   // ItemID идентификатор сущности
	Operation Operation       `json:"operation"` // Operation create/update/delete
	Data      json.RawMessage `json:"data"`      // Data снимок сущности, nil для delete
	Version   int64           `json:"version"`   // Version монотонная версия сущности, 1 при создании
	Synced    bool            `json:"synced"`    // Synced true после подтверждения сервером
}

// NewCreateChange creates a change for a newly created item with version 1
func NewCreateChange(itemType ItemType, itemID string, data json.RawMessage) Change {
	return newChange(itemType, itemID, OperationCreate, 1, data)
}

// NewUpdateChange creates an update change with an explicit version
func NewUpdateChange(itemType ItemType, itemID string, version int64, data json.RawMessage) Change {
	return newChange(itemType, itemID, OperationUpdate, version, data)
}

// NewDeleteChange creates a delete change. Delete changes carry no payload.
func NewDeleteChange(itemType ItemType, itemID string, version int64) Change {
	return newChange(itemType, itemID, OperationDelete, version, nil)
}

// NewChange creates a change for any operation. Delete drops the payload.
func NewChange(itemType ItemType, itemID string, op Operation, version int64, data json.RawMessage) Change {
	if op == OperationDelete {
		data = nil
	}
	return newChange(itemType, itemID, op, version, data)
}

func newChange(itemType ItemType, itemID string, op Operation, version int64, data json.RawMessage) Change {
	return Change{
		ChangeID:  uuid.New().String(),
		ItemType:  itemType,
		ItemID:    itemID,
		Operation: op,
		Version:   version,
		Data:      cloneRaw(data),
		Timestamp: time.Now().UTC(),
		Synced:    false,
	}
}

// Key returns the dedup key of the change
func (c *Change) Key() ItemKey {
	return ItemKey{Type: c.ItemType, ID: c.ItemID}
}

// MarkSynced flags the change as acknowledged by the remote
func (c *Change) MarkSynced() {
	c.Synced = true
}

// Validate checks that the change can be queued and transmitted
func (c *Change) Validate() error {
	if c.ChangeID == "" {
		return syncerr.Errorf(syncerr.KindInvalidData, "validate", "change id is empty")
	}
	if !c.ItemType.Valid() {
		return syncerr.Errorf(syncerr.KindInvalidData, "validate", "unknown item type %q", c.ItemType)
	}
	if c.ItemID == "" {
		return syncerr.Errorf(syncerr.KindInvalidData, "validate", "item id is empty")
	}
	if !c.Operation.Valid() {
		return syncerr.Errorf(syncerr.KindInvalidData, "validate", "unknown operation %q", c.Operation)
	}
	if c.Version < 1 {
		return syncerr.Errorf(syncerr.KindInvalidData, "validate", "version must be at least 1, got %d", c.Version)
	}

	if c.Operation == OperationDelete {
		if len(c.Data) > 0 && !isJSONNull(c.Data) {
			return syncerr.Errorf(syncerr.KindInvalidData, "validate", "delete change must not carry a payload")
		}
		return nil
	}

	if len(c.Data) == 0 || !json.Valid(c.Data) {
		return syncerr.Errorf(syncerr.KindInvalidData, "validate", "payload of %s must be valid JSON", c.Key())
	}

	return nil
}

// Clone создает глубокую копию изменения
func (c *Change) Clone() Change {
	clone := *c
	clone.Data = cloneRaw(c.Data)
	return clone
}

// ItemName extracts a human-readable name from the payload's "name" field.
// Falls back to the item key.
func (c *Change) ItemName() string {
	if len(c.Data) > 0 {
		var named struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(c.Data, &named); err == nil && named.Name != "" {
			return named.Name
		}
	}
	return c.Key().String()
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s v%d (%s)", c.Operation, c.Key(), c.Version, c.ChangeID)
}

func cloneRaw(data json.RawMessage) json.RawMessage {
	if data == nil {
		return nil
	}
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}

func isJSONNull(data json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
