package hal

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/ledsnake/internal/config"
)

// ErrUnknownBackend is returned by Open for a name nobody registered.
var ErrUnknownBackend = errors.New("hal: unknown backend")

// Backend opens a Board. Backends register themselves in init() functions, so the CLI
// can discover them without hardcoded dependencies.
type Backend interface {
	// Name is the identifier used on the command line (e.g. "term", "headless").
	Name() string

	// Description is a one-line summary for `ledsnake backends`.
	Description() string

	// Open builds a board from the host configuration.
	Open(cfg config.Config) (*Board, error)
}

// BackendInfo contains metadata about a registered backend.
type BackendInfo struct {
	Name        string
	Description string
}

var (
	backends = make(map[string]Backend)
	mu       sync.RWMutex
)

// Register adds a backend to the registry.
// Panics if a backend with the same name is already registered.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := backends[b.Name()]; exists {
		panic(fmt.Sprintf("hal: backend %q already registered", b.Name()))
	}
	backends[b.Name()] = b
}

// List returns information about all registered backends, sorted by name.
func List() []BackendInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]BackendInfo, 0, len(backends))
	for name, b := range backends {
		result = append(result, BackendInfo{
			Name:        name,
			Description: b.Description(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Open builds a board with the named backend.
func Open(name string, cfg config.Config) (*Board, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, name)
	}

	board, err := b.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("hal: open %s: %w", name, err)
	}
	board.Backend = name
	return board, nil
}

// Exists checks if a backend with the given name is registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := backends[name]
	return ok
}
