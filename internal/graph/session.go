// Package graph models handlers that own sessions through strong references
// or observe them through weak ones. A session lives exactly as long as at
// least one handler holds it strongly and is destroyed synchronously, inside
// the call that drops the last strong reference.
package graph

import "github.com/erg0nix/sessgraph/internal/core"

// Session is the owned resource. Its fields never change after creation.
type Session struct {
	ID   core.SessionID
	Name string
}

// DestroyFunc observes session destruction. It runs exactly once per session,
// before the operation that released the last strong reference returns.
type DestroyFunc func(Session)
