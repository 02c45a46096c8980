package models

import "time"

// SnapshotVersion is the current persisted schema version.
const SnapshotVersion = 1

// SessionSnapshot is the persisted form of a wizard session. isDirty is
// runtime state and never persisted.
type SessionSnapshot struct {
	Version                  int              `json:"version"`
	CurrentStep              Step             `json:"currentStep"`
	FormData                 ApplicationDraft `json:"formData"`
	LastSaved                *time.Time       `json:"lastSaved,omitempty"`
	HasSubmittedSuccessfully bool             `json:"hasSubmittedSuccessfully"`
}

// NewSessionSnapshot returns the empty session every first visit starts from.
func NewSessionSnapshot() SessionSnapshot {
	return SessionSnapshot{
		Version:     SnapshotVersion,
		CurrentStep: StepPersonalInfo,
	}
}

// Clone deep-copies the snapshot.
func (s SessionSnapshot) Clone() SessionSnapshot {
	out := s
	out.FormData = s.FormData.Clone()
	if s.LastSaved != nil {
		t := *s.LastSaved
		out.LastSaved = &t
	}
	return out
}
