// Package coord provides the fine-grained locking used while organizing files
// concurrently.
package coord

import "sync"

// Guard is a keyed mutex. Callers holding different keys never block each
// other; callers sharing a key are serialized. Entries are released once the
// last holder unlocks.
type Guard struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewGuard returns an empty guard.
func NewGuard() *Guard {
	return &Guard{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is available and returns the matching unlock func.
// The returned func is safe to call more than once.
func (g *Guard) Lock(key string) func() {
	g.mu.Lock()
	if g.locks == nil {
		g.locks = make(map[string]*keyLock)
	}
	entry, ok := g.locks[key]
	if !ok {
		entry = &keyLock{}
		g.locks[key] = entry
	}
	entry.refs++
	g.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			g.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(g.locks, key)
			}
			g.mu.Unlock()
		})
	}
}

// Len reports how many keys are currently held or awaited.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}

// InFlight tracks source paths that a worker is already processing.
type InFlight struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewInFlight returns an empty set.
func NewInFlight() *InFlight {
	return &InFlight{paths: make(map[string]struct{})}
}

// Begin claims path and reports whether the caller now owns it. A false return
// means another worker holds the path.
func (f *InFlight) Begin(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paths == nil {
		f.paths = make(map[string]struct{})
	}
	if _, busy := f.paths[path]; busy {
		return false
	}
	f.paths[path] = struct{}{}
	return true
}

// End releases a path claimed with Begin.
func (f *InFlight) End(path string) {
	f.mu.Lock()
	delete(f.paths, path)
	f.mu.Unlock()
}

// Len reports the number of claimed paths.
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}
