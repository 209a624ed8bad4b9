package scene

import "sync"

// Deactivate releases what an Activate call acquired. It is safe to call more
// than once; only the first call has an effect.
type Deactivate func()

// Once wraps fn so repeated calls run it a single time.
func Once(fn func()) Deactivate {
	var once sync.Once
	return func() {
		once.Do(func() {
			if fn != nil {
				fn()
			}
		})
	}
}

// Group collects deactivation handles and releases them in reverse order.
type Group struct {
	handles []func()
}

// Add appends a handle. Nil handles are ignored.
func (g *Group) Add(fn func()) {
	if fn != nil {
		g.handles = append(g.handles, fn)
	}
}

// Len reports how many handles are held.
func (g *Group) Len() int { return len(g.handles) }

// Release runs every handle, newest first, and empties the group.
func (g *Group) Release() {
	for i := len(g.handles) - 1; i >= 0; i-- {
		g.handles[i]()
	}
	g.handles = nil
}

// Deactivate returns a one-shot handle releasing the group.
func (g *Group) Deactivate() Deactivate {
	return Once(g.Release)
}
