package model

import "time"

// ChangeKind names what changed upstream of the engine.
type ChangeKind string

const (
	// ChangeCatalog means pets were added, removed or edited.
	ChangeCatalog ChangeKind = "catalog_changed"
	// ChangePreferences means a user edited their preferences.
	ChangePreferences ChangeKind = "preferences_changed"
	// ChangeHistory means a user liked or disliked a pet.
	ChangeHistory ChangeKind = "history_changed"
)

// ChangeEvent notifies the engine that ranked lists may be outdated.
type ChangeEvent struct {
	EventID   string     `json:"event_id" validate:"required,max=128"`
	Kind      ChangeKind `json:"kind" validate:"required,oneof=catalog_changed preferences_changed history_changed"`
	UserID    string     `json:"user_id,omitempty" validate:"required_unless=Kind catalog_changed,max=128"`
	Timestamp time.Time  `json:"ts"`
}

// Global reports whether the event concerns every user.
func (e ChangeEvent) Global() bool { return e.Kind == ChangeCatalog }
