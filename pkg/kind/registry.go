package kind

import (
	"fmt"
	"sync"
)

// Builder constructs a Kind from the raw up/down payload text discovered on
// disk. SQL-like kinds receive the file contents directly; non-SQL kinds
// that register a Builder typically ignore the payload and return a Kind
// already wired to externally-supplied callbacks.
type Builder func(upPayload, downPayload string) (Kind, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Builder{
		"sql": func(up, down string) (Kind, error) {
			return NewSql(up, down), nil
		},
	}
)

// Register adds a Builder under tag, allowing third parties to extend
// Discovery with new migration kinds. Registering under an existing tag
// replaces it, which lets callers override the built-in "sql" kind too.
func Register(tag string, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[tag] = b
}

// Build constructs the Kind registered under tag. Discovery calls this for
// every descriptor it produces.
func Build(tag, upPayload, downPayload string) (Kind, error) {
	registryMu.RLock()
	b, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kind: no builder registered for tag %q", tag)
	}
	return b(upPayload, downPayload)
}
