package atom

import (
	"errors"
	"sync"
)

// ErrDefaultInUse is returned by SetDefault once Default has been called.
var ErrDefaultInUse = errors.New("atom: default store already in use")

var (
	defaultOnce    sync.Once
	defaultMu      sync.Mutex
	defaultStore   *Store
	defaultPending *Store
	defaultStarted bool
)

// Default returns the process-wide store used by the package-level
// constructors and by UnmarshalText. It is created on first use.
func Default() *Store {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()

		defaultStarted = true
		if defaultPending != nil {
			defaultStore = defaultPending
			return
		}
		defaultStore = NewStore()
	})
	return defaultStore
}

// SetDefault installs s as the process-wide store. It must be called before
// anything uses Default, typically from main.
func SetDefault(s *Store) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStarted {
		return ErrDefaultInUse
	}
	defaultPending = s
	return nil
}

// New returns Default().New(text).
func New(text string) Atom {
	return Default().New(text)
}

// NewBytes returns Default().NewBytes(b).
func NewBytes(b []byte) Atom {
	return Default().NewBytes(b)
}

// Intern returns Default().Intern(text).
func Intern(text string) Atom {
	return Default().Intern(text)
}
