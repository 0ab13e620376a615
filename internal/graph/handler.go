package graph

// Kind tells how a handler refers to its session.
type Kind int

const (
	KindNone Kind = iota
	KindStrong
	KindWeak
)

func (k Kind) String() string {
	switch k {
	case KindStrong:
		return "strong"
	case KindWeak:
		return "weak"
	default:
		return "none"
	}
}

// Arrow is the display marker for the kind: "=>" strong, "->" weak.
func (k Kind) Arrow() string {
	switch k {
	case KindStrong:
		return "=>"
	case KindWeak:
		return "->"
	default:
		return ""
	}
}

// Reference is one of None, Strong(ref) or Weak(ref).
type Reference struct {
	Kind    Kind
	Session SessionRef
}

func NoReference() Reference {
	return Reference{Kind: KindNone, Session: noSession}
}

func StrongReference(ref SessionRef) Reference {
	return Reference{Kind: KindStrong, Session: ref}
}

func WeakReference(ref SessionRef) Reference {
	return Reference{Kind: KindWeak, Session: ref}
}

// Handler is a named holder of at most one session reference. The reference
// is fixed when the handler is created.
type Handler struct {
	name string
	ref  Reference
}

func NewHandler(name string, ref Reference) Handler {
	return Handler{name: name, ref: ref}
}

func (h Handler) Name() string {
	return h.name
}

func (h Handler) Reference() Reference {
	return h.ref
}

func (h Handler) IsStrong() bool {
	return h.ref.Kind == KindStrong
}

// Resolve returns the session ref the handler can reach. A strong handler
// always reaches its session; a weak one only while the session is alive.
func (h Handler) Resolve(sessions *Arena) (SessionRef, bool) {
	switch h.ref.Kind {
	case KindStrong:
		return h.ref.Session, true
	case KindWeak:
		if sessions.Alive(h.ref.Session) {
			return h.ref.Session, true
		}
	}
	return noSession, false
}

// Less orders handlers by name.
func (h Handler) Less(o Handler) bool {
	return h.name < o.name
}
