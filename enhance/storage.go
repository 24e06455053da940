package enhance

import (
	"encoding/json"
	"errors"
	"io"
	"log"
)

// ErrNotFound is returned by a Backend when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a byte-level key-value store in the spirit of browser local
// storage. Implementations may fail at any time.
type Backend interface {
	GetItem(key string) ([]byte, error)
	SetItem(key string, value []byte) error
}

// Storage persists checklist state. It never surfaces backend failures:
// unreadable or malformed values read as absent, failed writes are dropped.
type Storage struct {
	backend Backend
	logger  *log.Logger
}

// NewStorage wraps backend. A nil backend behaves as disabled storage.
func NewStorage(backend Backend, logger *log.Logger) *Storage {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Storage{backend: backend, logger: logger}
}

// Load returns the mapping stored under key. ok is false when nothing
// usable is stored.
func (s *Storage) Load(key string) (map[string]bool, bool) {
	if s == nil || s.backend == nil {
		return nil, false
	}
	raw, err := s.backend.GetItem(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Printf("STORE get %s: %v", key, err)
		}
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}
	var state map[string]bool
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Printf("STORE malformed value under %s: %v", key, err)
		return nil, false
	}
	if state == nil {
		return nil, false
	}
	return state, true
}

// Save writes state under key and reports whether the write succeeded.
func (s *Storage) Save(key string, state map[string]bool) bool {
	if s == nil || s.backend == nil {
		return false
	}
	if state == nil {
		state = map[string]bool{}
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return false
	}
	if err := s.backend.SetItem(key, raw); err != nil {
		s.logger.Printf("STORE set %s: %v", key, err)
		return false
	}
	return true
}
