package llm

import (
	"fmt"
	"slices"
	"sync"
)

// Dialect translates completion requests and responses to and from one
// vendor's chat API.
type Dialect interface {
	Name() string
	ChatPath() string
	// HealthPath is requested with GET by IsAvailable; empty skips the check.
	HealthPath() string
	BuildRequest(req CompletionRequest) (any, error)
	ParseResponse(body []byte) (*CompletionResponse, error)
}

var registry = struct {
	sync.RWMutex
	byName map[string]Dialect
}{byName: map[string]Dialect{}}

// RegisterDialect makes d available to New under name. Dialect packages
// call it from init, so selecting a dialect means importing its package.
func RegisterDialect(name string, d Dialect) {
	registry.Lock()
	registry.byName[name] = d
	registry.Unlock()
}

// GetDialect looks up a registered dialect.
func GetDialect(name string) (Dialect, error) {
	registry.RLock()
	d, ok := registry.byName[name]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q, registered: %v", name, Dialects())
	}
	return d, nil
}

// Dialects lists the registered dialect names in order.
func Dialects() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.byName))
	for name := range registry.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
