package cmdtable

import (
	stderrors "errors"
	"strings"
	"sync"

	"github.com/wippyai/mci-runtime/errors"
)

// CoreType names the universal table every verb lookup falls back to.
const CoreType = "core"

// ErrNotFound is returned by a Source that has no table for a device type.
var ErrNotFound = stderrors.New("command table not found")

// Source supplies encoded command tables by device type.
type Source interface {
	Load(deviceType string) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(deviceType string) ([]byte, error)

func (f SourceFunc) Load(deviceType string) ([]byte, error) {
	return f(deviceType)
}

// Layered tries each source in order and returns the first table found.
func Layered(sources ...Source) Source {
	return SourceFunc(func(deviceType string) ([]byte, error) {
		for _, s := range sources {
			if s == nil {
				continue
			}
			data, err := s.Load(deviceType)
			if err == nil {
				return data, nil
			}
			if !stderrors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		return nil, ErrNotFound
	})
}

// Store caches decoded tables for the life of the process. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	source Source
	tables map[string]*Table
}

// NewStore creates a store over src. A nil src serves the built-in tables.
func NewStore(src Source) *Store {
	if src == nil {
		src = Builtin()
	}
	return &Store{
		source: src,
		tables: make(map[string]*Table),
	}
}

// Get returns the table for deviceType, loading and validating it on first use.
// Construction happens under the store lock so no caller ever observes a
// partially built table. Failed loads are not cached.
func (s *Store) Get(deviceType string) (*Table, error) {
	key := strings.ToLower(deviceType)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[key]; ok {
		return t, nil
	}
	data, err := s.source.Load(key)
	if err != nil {
		e := errors.New(errors.PhaseTable, errors.KindInvalidCommandTable).
			Path(key).
			Cause(err).
			Detail("cannot load command table").
			Build()
		return nil, e
	}
	t, err := Decode(key, data)
	if err != nil {
		return nil, err
	}
	s.tables[key] = t
	return t, nil
}

// Lookup returns the table for deviceType when one exists, and nil when the
// source has none. Any other failure is returned.
func (s *Store) Lookup(deviceType string) (*Table, error) {
	t, err := s.Get(deviceType)
	if err != nil && stderrors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return t, err
}

// Core returns the universal table.
func (s *Store) Core() (*Table, error) {
	return s.Get(CoreType)
}

// Cached returns the device types decoded so far.
func (s *Store) Cached() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tables))
	for k := range s.tables {
		out = append(out, k)
	}
	return out
}

// Custom decodes a table supplied by a driver. Driver tables are owned by the
// session that loaded them and are not cached.
func Custom(deviceType string, data []byte) (*Table, error) {
	return Decode(strings.ToLower(deviceType), data)
}
