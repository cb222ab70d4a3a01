package control

import (
	"sync/atomic"
	"time"

	"vulnboard/internal/dashboard"
	"vulnboard/internal/wizard"
)

// State is the snapshot served by GET /api/state. Only the running screen
// is set.
type State struct {
	Screen    string           `json:"screen"`
	Dashboard *dashboard.State `json:"dashboard,omitempty"`
	Wizard    *wizard.State    `json:"wizard,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Store holds the last published State. The UI goroutine publishes, HTTP
// handlers read.
type Store struct {
	v atomic.Pointer[State]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Publish replaces the stored snapshot.
func (s *Store) Publish(st State) {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	s.v.Store(&st)
}

// Load returns the last snapshot, or nil before the first Publish.
func (s *Store) Load() *State {
	return s.v.Load()
}
