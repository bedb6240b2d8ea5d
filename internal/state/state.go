package state

import (
	"sync"
	"time"
)

type Phase int

const (
	BOOTING Phase = iota
	// EMPTY means the server has no frame; the placeholder is on screen.
	EMPTY
	SHOWING
	ERROR
)

func (p Phase) String() string {
	switch p {
	case BOOTING:
		return "BOOTING"
	case EMPTY:
		return "EMPTY"
	case SHOWING:
		return "SHOWING"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

type State struct {
	Phase Phase
	// ETag is the tag of the frame currently on screen.
	ETag        string
	LastChecked time.Time
	LastChanged time.Time
	Err         string
}

type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Phase: BOOTING}}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

func (store *Store) SetPhase(phase Phase) {
	store.mu.Lock()
	store.state.Phase = phase
	store.mu.Unlock()
}

// MarkChecked records a successful poll that changed nothing.
func (store *Store) MarkChecked(at time.Time) {
	store.mu.Lock()
	store.state.LastChecked = at
	store.state.Err = ""
	if store.state.Phase == ERROR {
		if store.state.ETag != "" {
			store.state.Phase = SHOWING
		} else {
			store.state.Phase = EMPTY
		}
	}
	store.mu.Unlock()
}

// MarkShown records a new frame on screen.
func (store *Store) MarkShown(etag string, at time.Time) {
	store.mu.Lock()
	store.state.Phase = SHOWING
	store.state.ETag = etag
	store.state.LastChecked = at
	store.state.LastChanged = at
	store.state.Err = ""
	store.mu.Unlock()
}

// MarkEmpty records that the server has nothing stored.
func (store *Store) MarkEmpty(at time.Time) {
	store.mu.Lock()
	if store.state.Phase != EMPTY {
		store.state.LastChanged = at
	}
	store.state.Phase = EMPTY
	store.state.ETag = ""
	store.state.LastChecked = at
	store.state.Err = ""
	store.mu.Unlock()
}

// MarkError keeps the current frame and tag but flags the failure.
func (store *Store) MarkError(err error, at time.Time) {
	store.mu.Lock()
	store.state.Phase = ERROR
	store.state.LastChecked = at
	if err != nil {
		store.state.Err = err.Error()
	}
	store.mu.Unlock()
}
