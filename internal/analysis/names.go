package analysis

import (
	"sync"

	"github.com/ianlancetaylor/demangle"
)

// nameCache memoizes demangled symbol names. ELF sources are read by
// several pipeline workers at once.
type nameCache struct {
	mu        sync.RWMutex
	demangled map[string]string
	hits      int
}

var names = &nameCache{demangled: make(map[string]string)}

// Demangle returns the demangled form of a C++ or Rust symbol, or the name
// itself when it is not mangled.
func Demangle(mangled string) string {
	names.mu.RLock()
	if d, ok := names.demangled[mangled]; ok {
		names.mu.RUnlock()
		names.mu.Lock()
		names.hits++
		names.mu.Unlock()
		return d
	}
	names.mu.RUnlock()

	d := demangle.Filter(mangled, demangle.NoClones)

	names.mu.Lock()
	names.demangled[mangled] = d
	names.mu.Unlock()
	return d
}

// DemangleStats reports how many names are cached and how many lookups were
// served from the cache.
func DemangleStats() (cached, hits int) {
	names.mu.RLock()
	defer names.mu.RUnlock()
	return len(names.demangled), names.hits
}
