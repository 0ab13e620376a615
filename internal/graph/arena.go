package graph

import "github.com/erg0nix/sessgraph/internal/core"

// SessionRef addresses a session slot at a given generation. A ref whose
// generation no longer matches its slot points at a destroyed session.
type SessionRef struct {
	slot int
	gen  uint64
}

// noSession is the ref held by an expired or empty reference.
var noSession = SessionRef{slot: -1}

type slot struct {
	session Session
	strong  int
	gen     uint64
	live    bool
}

// Arena stores live sessions with an explicit strong count per slot. Freed
// slots are reused under a new generation.
type Arena struct {
	slots     []slot
	free      []int
	onDestroy DestroyFunc

	created   int
	destroyed int
}

func NewArena(onDestroy DestroyFunc) *Arena {
	return &Arena{onDestroy: onDestroy}
}

// Acquire creates a session with a strong count of one.
func (a *Arena) Acquire(name string) SessionRef {
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = len(a.slots) - 1
	}

	s := &a.slots[idx]
	s.session = Session{ID: core.NewSessionID(), Name: name}
	s.strong = 1
	s.live = true
	a.created++

	return SessionRef{slot: idx, gen: s.gen}
}

// Retain adds a strong reference. It reports false if the session is gone.
func (a *Arena) Retain(ref SessionRef) bool {
	s, ok := a.get(ref)
	if !ok {
		return false
	}
	s.strong++
	return true
}

// Release drops a strong reference. Dropping the last one destroys the
// session and runs the destroy hook before Release returns.
func (a *Arena) Release(ref SessionRef) {
	s, ok := a.get(ref)
	if !ok {
		return
	}

	s.strong--
	if s.strong > 0 {
		return
	}

	dead := s.session
	s.session = Session{}
	s.live = false
	s.gen++
	a.free = append(a.free, ref.slot)
	a.destroyed++

	if a.onDestroy != nil {
		a.onDestroy(dead)
	}
}

// Lookup returns the session behind ref while it is alive.
func (a *Arena) Lookup(ref SessionRef) (Session, bool) {
	s, ok := a.get(ref)
	if !ok {
		return Session{}, false
	}
	return s.session, true
}

func (a *Arena) Alive(ref SessionRef) bool {
	_, ok := a.get(ref)
	return ok
}

// StrongCount is zero for destroyed sessions.
func (a *Arena) StrongCount(ref SessionRef) int {
	s, ok := a.get(ref)
	if !ok {
		return 0
	}
	return s.strong
}

// Live returns the number of sessions currently alive.
func (a *Arena) Live() int {
	return a.created - a.destroyed
}

func (a *Arena) get(ref SessionRef) (*slot, bool) {
	if ref.slot < 0 || ref.slot >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[ref.slot]
	if !s.live || s.gen != ref.gen {
		return nil, false
	}
	return s, true
}
