package match

import (
	"time"

	"github.com/okian/pawmatch/internal/domain/model"
)

// State is the lifecycle state of one user's ranked list.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// session is guarded by Assembler.mu.
type session struct {
	state State
	// generation is bumped by every invalidation. A cycle may only publish
	// while the generation it started with is current.
	generation uint64
	list       *model.RankedList
	// prefsUpdated is the preference edit time the published list was built
	// against.
	prefsUpdated time.Time
	err          error
}

// ScoreStatus answers a single-pet query. When Pending is true no score is
// available yet and a loading cycle has been started.
type ScoreStatus struct {
	PetID   string            `json:"pet_id"`
	Score   float64           `json:"score,omitempty"`
	Origin  model.ScoreOrigin `json:"origin,omitempty"`
	Pending bool              `json:"pending"`
}
