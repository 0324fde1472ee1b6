package dialog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownDialog is returned when no definition is registered under a name.
	ErrUnknownDialog = errors.New("dialog: unknown dialog")
	// ErrSetFrozen is returned by Add once the set belongs to an Engine.
	ErrSetFrozen     = errors.New("dialog: set is frozen")
)

// Set is the registry of dialog definitions. It is built at startup and
// frozen once handed to an Engine.
type Set struct {
	mu     sync.RWMutex
	defs   map[string]Definition
	frozen bool
}

// NewSet returns an empty, unfrozen registry.
func NewSet() *Set {
	return &Set{defs: make(map[string]Definition)}
}

// Add registers def. Names must be unique and every step must be runnable.
func (s *Set) Add(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return errors.New("dialog: definition name must not be empty")
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("dialog %q: at least one step is required", name)
	}
	for i, st := range def.Steps {
		if st.Run == nil {
			return fmt.Errorf("dialog %q step %d: run function is required", name, i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrSetFrozen
	}
	if _, ok := s.defs[name]; ok {
		return fmt.Errorf("dialog %q: already registered", name)
	}
	def.Name = name
	def.Steps = append([]NamedStep(nil), def.Steps...)
	s.defs[name] = def
	return nil
}

// Get returns the definition registered under name.
func (s *Set) Get(name string) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[name]
	return d, ok
}

func (s *Set) freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}
