package graph

import (
	"fmt"
	"log/slog"
	"sort"
)

// Registry is the table of all handlers. Sessions are reachable only through
// handlers, so the registry decides when each one is destroyed.
type Registry struct {
	handlers  map[string]Handler
	sessions  *Arena
	onDestroy DestroyFunc
	logger    *slog.Logger
}

type Option func(*Registry)

// WithDestroyHook registers fn to run for every destroyed session.
func WithDestroyHook(fn DestroyFunc) Option {
	return func(r *Registry) {
		r.onDestroy = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sessions = NewArena(r.sessionDestroyed)
	return r
}

// CreateSession creates session sessionName owned by a new handler.
func (r *Registry) CreateSession(handlerName, sessionName string) error {
	if _, ok := r.handlers[handlerName]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, handlerName)
	}

	ref := r.sessions.Acquire(sessionName)
	r.handlers[handlerName] = NewHandler(handlerName, StrongReference(ref))

	if s, ok := r.sessions.Lookup(ref); ok {
		r.logger.Debug("session created", "handler", handlerName, "session", s.Name, "session_id", s.ID)
	}
	return nil
}

// AddStrong creates handler from sharing ownership of the session that to
// reaches. If to reaches nothing, from is created with no reference.
func (r *Registry) AddStrong(from, to string) error {
	target, ok := r.handlers[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, to)
	}
	if _, ok := r.handlers[from]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, from)
	}

	ref := NoReference()
	if s, ok := target.Resolve(r.sessions); ok && r.sessions.Retain(s) {
		ref = StrongReference(s)
	}
	r.insert(from, ref, to)
	return nil
}

// AddWeak creates handler from observing the session that to reaches. It
// never changes any strong count.
func (r *Registry) AddWeak(from, to string) error {
	target, ok := r.handlers[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, to)
	}
	if _, ok := r.handlers[from]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, from)
	}

	s, _ := target.Resolve(r.sessions)
	r.insert(from, WeakReference(s), to)
	return nil
}

// Erase removes a handler. If it held the last strong reference to its
// session, the session is destroyed before Erase returns.
func (r *Registry) Erase(name string) error {
	h, ok := r.handlers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}

	delete(r.handlers, name)
	r.logger.Debug("handler erased", "handler", name, "kind", h.ref.Kind)
	r.release(h)
	return nil
}

// Entry is one line of the handler listing.
type Entry struct {
	Handler string
	Kind    Kind
	Session string
	Live    bool
}

func (e Entry) String() string {
	if !e.Live {
		return e.Handler
	}
	return e.Handler + " " + e.Kind.Arrow() + " " + e.Session
}

// Display lists every handler in name order together with the session it
// still reaches.
func (r *Registry) Display() []Entry {
	handlers := r.sorted()
	entries := make([]Entry, 0, len(handlers))
	for _, h := range handlers {
		e := Entry{Handler: h.name, Kind: h.ref.Kind}
		if ref, ok := h.Resolve(r.sessions); ok {
			if s, ok := r.sessions.Lookup(ref); ok {
				e.Session = s.Name
				e.Live = true
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// Resolve returns the session reachable from the named handler.
func (r *Registry) Resolve(name string) (Session, bool) {
	h, ok := r.handlers[name]
	if !ok {
		return Session{}, false
	}
	ref, ok := h.Resolve(r.sessions)
	if !ok {
		return Session{}, false
	}
	return r.sessions.Lookup(ref)
}

// Handler returns the named handler.
func (r *Registry) Handler(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// LiveSessions returns the number of sessions not yet destroyed.
func (r *Registry) LiveSessions() int {
	return r.sessions.Live()
}

// StrongCount returns the strong count of the session the named handler
// reaches, or zero.
func (r *Registry) StrongCount(name string) int {
	h, ok := r.handlers[name]
	if !ok {
		return 0
	}
	ref, ok := h.Resolve(r.sessions)
	if !ok {
		return 0
	}
	return r.sessions.StrongCount(ref)
}

// Close erases every handler in descending name order, destroying the
// sessions they still own. The registry is empty and reusable afterwards.
func (r *Registry) Close() {
	handlers := r.sorted()
	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		delete(r.handlers, h.name)
		r.release(h)
	}
}

type Stats struct {
	Handlers          int
	LiveSessions      int
	SessionsCreated   int
	SessionsDestroyed int
}

func (r *Registry) Stats() Stats {
	return Stats{
		Handlers:          len(r.handlers),
		LiveSessions:      r.sessions.Live(),
		SessionsCreated:   r.sessions.created,
		SessionsDestroyed: r.sessions.destroyed,
	}
}

// CheckInvariants verifies that the live sessions are exactly those held by
// at least one strong handler, each with a matching strong count.
func (r *Registry) CheckInvariants() error {
	holders := make(map[SessionRef]int)
	for _, h := range r.handlers {
		if !h.IsStrong() {
			continue
		}
		if !r.sessions.Alive(h.ref.Session) {
			return fmt.Errorf("%w: handler %q holds a destroyed session", ErrInvariant, h.name)
		}
		holders[h.ref.Session]++
	}

	if live := r.sessions.Live(); live != len(holders) {
		return fmt.Errorf("%w: %d live sessions, %d strongly held", ErrInvariant, live, len(holders))
	}

	for ref, n := range holders {
		if got := r.sessions.StrongCount(ref); got != n {
			s, _ := r.sessions.Lookup(ref)
			return fmt.Errorf("%w: session %q has strong count %d, held by %d handlers", ErrInvariant, s.Name, got, n)
		}
	}
	return nil
}

func (r *Registry) insert(name string, ref Reference, target string) {
	r.handlers[name] = NewHandler(name, ref)
	r.logger.Debug("handler added", "handler", name, "target", target, "kind", ref.Kind)
}

func (r *Registry) release(h Handler) {
	if h.IsStrong() {
		r.sessions.Release(h.ref.Session)
	}
}

func (r *Registry) sessionDestroyed(s Session) {
	r.logger.Debug("session destroyed", "session", s.Name, "session_id", s.ID)
	if r.onDestroy != nil {
		r.onDestroy(s)
	}
}

func (r *Registry) sorted() []Handler {
	list := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		list = append(list, h)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Less(list[j])
	})
	return list
}
