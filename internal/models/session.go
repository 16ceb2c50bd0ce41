package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionState состояние сессии синхронизации
type SessionState string

const (
	StateCreated   SessionState = "created"
	StatePushing   SessionState = "pushing"
	StatePulling   SessionState = "pulling"
	StateResolving SessionState = "resolving"
	StateCompleted SessionState = "completed"
)

// transitions lists the legal edges of the session state machine
var transitions = map[SessionState][]SessionState{
	StateCreated:   {StatePushing, StatePulling, StateCompleted},
	StatePushing:   {StatePulling, StateResolving, StateCompleted},
	StateResolving: {StatePushing, StatePulling, StateCompleted},
	StatePulling:   {StateCompleted},
}

// SessionOutcome итог завершенной сессии
type SessionOutcome string

const (
	OutcomeOffline  SessionOutcome = "offline"
	OutcomeSuccess  SessionOutcome = "success"
	OutcomeConflict SessionOutcome = "conflict"
	OutcomeFailed   SessionOutcome = "failed"
)

// SyncSession записывает одну попытку синхронизации
type SyncSession struct {
	StartedAt     time.Time            `json:"started_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	SessionID     string               `json:"session_id"`
	State         SessionState         `json:"state"`
	Outcome       SessionOutcome       `json:"outcome,omitempty"`
	Error         string               `json:"error,omitempty"`
	ChangesPushed []Change             `json:"changes_pushed"`
	ChangesPulled []Change             `json:"changes_pulled"`
	Conflicts     []ConflictInfo       `json:"conflicts"`
	Resolutions   []ConflictResolution `json:"resolutions,omitempty"`
}

// NewSyncSession creates a session in the Created state
func NewSyncSession(startedAt time.Time) *SyncSession {
	return &SyncSession{
		SessionID:     uuid.New().String(),
		StartedAt:     startedAt,
		State:         StateCreated,
		ChangesPushed: []Change{},
		ChangesPulled: []Change{},
		Conflicts:     []ConflictInfo{},
	}
}

// Transition moves the session to next. Completion goes through Complete.
func (s *SyncSession) Transition(next SessionState) error {
	if next == StateCompleted {
		return fmt.Errorf("use Complete to finish session %s", s.SessionID)
	}
	return s.transition(next)
}

func (s *SyncSession) transition(next SessionState) error {
	for _, allowed := range transitions[s.State] {
		if allowed == next {
			s.State = next
			return nil
		}
	}
	return fmt.Errorf("illegal session transition %s -> %s", s.State, next)
}

// RecordPushed appends acknowledged changes in push order
func (s *SyncSession) RecordPushed(changes ...Change) {
	s.ChangesPushed = append(s.ChangesPushed, changes...)
}

// RecordPulled appends remote changes in pull order
func (s *SyncSession) RecordPulled(changes ...Change) {
	s.ChangesPulled = append(s.ChangesPulled, changes...)
}

// RecordConflicts appends detected conflicts
func (s *SyncSession) RecordConflicts(conflicts ...ConflictInfo) {
	s.Conflicts = append(s.Conflicts, conflicts...)
}

// RecordResolutions appends applied resolutions
func (s *SyncSession) RecordResolutions(resolutions ...ConflictResolution) {
	s.Resolutions = append(s.Resolutions, resolutions...)
}

// Complete sets the completion time exactly once. The completion time is
// forced strictly after StartedAt.
func (s *SyncSession) Complete(at time.Time, outcome SessionOutcome) error {
	if s.CompletedAt != nil {
		return fmt.Errorf("session %s already completed", s.SessionID)
	}
	if err := s.transition(StateCompleted); err != nil {
		return err
	}

	if !at.After(s.StartedAt) {
		at = s.StartedAt.Add(time.Nanosecond)
	}
	s.CompletedAt = &at
	s.Outcome = outcome

	return nil
}

// Fail completes the session with OutcomeFailed and records err
func (s *SyncSession) Fail(at time.Time, err error) error {
	if err != nil {
		s.Error = err.Error()
	}
	return s.Complete(at, OutcomeFailed)
}

// IsComplete reports whether Complete was called
func (s *SyncSession) IsComplete() bool {
	return s.CompletedAt != nil
}

// Duration returns completed - started once the session is complete
func (s *SyncSession) Duration() (time.Duration, bool) {
	if s.CompletedAt == nil {
		return 0, false
	}
	return s.CompletedAt.Sub(s.StartedAt), true
}
