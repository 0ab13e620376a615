package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionID identifies one session instance. Two sessions created under the
// same name still get distinct ids.
type SessionID string

func NewSessionID() SessionID {
	return SessionID("sess_" + timestamp() + "_" + randomSeed())
}

func (id SessionID) String() string {
	return string(id)
}

func timestamp() string {
	return time.Now().UTC().Format("20060102T150405.000000000")
}

func randomSeed() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
