package models

import "time"

// ResultKind исход обмена с провайдером
type ResultKind string

const (
	ResultOffline  ResultKind = "offline"  // ResultOffline нечего синхронизировать (offline режим)
	ResultSuccess  ResultKind = "success"  // ResultSuccess изменения приняты
	ResultConflict ResultKind = "conflict" // ResultConflict найдены конфликты версий, ничего не применено
)

// SyncResult is the outcome of a push exchange. Timestamp and counters are
// set for ResultSuccess; Conflicts only for ResultConflict.
type SyncResult struct {
	Timestamp     time.Time      `json:"timestamp,omitzero"`
	Kind          ResultKind     `json:"kind"`
	Conflicts     []ConflictInfo `json:"conflicts,omitempty"`
	ChangesPushed int            `json:"changes_pushed"`
	ChangesPulled int            `json:"changes_pulled"`
}

// OfflineResult is returned by providers that do not talk to a remote
func OfflineResult() SyncResult {
	return SyncResult{Kind: ResultOffline}
}

// SuccessResult reports an accepted exchange
func SuccessResult(timestamp time.Time, pushed, pulled int) SyncResult {
	return SyncResult{
		Kind:          ResultSuccess,
		Timestamp:     timestamp,
		ChangesPushed: pushed,
		ChangesPulled: pulled,
	}
}

// ConflictResult reports version mismatches that need resolution
func ConflictResult(conflicts []ConflictInfo) SyncResult {
	return SyncResult{
		Kind:      ResultConflict,
		Conflicts: conflicts,
	}
}
