package graph

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type destroyLog struct {
	names []string
}

func (d *destroyLog) hook(s Session) {
	d.names = append(d.names, s.Name)
}

func newTestRegistry(t *testing.T) (*Registry, *destroyLog) {
	t.Helper()
	log := &destroyLog{}
	r := NewRegistry(
		WithDestroyHook(log.hook),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(r.Close)
	return r, log
}

func lines(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.String())
	}
	return out
}

func TestCreateSession(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.NoError(t, r.CreateSession("A", "S1"))

	s, ok := r.Resolve("A")
	require.True(t, ok)
	assert.Equal(t, "S1", s.Name)
	assert.Equal(t, 1, r.StrongCount("A"))
	assert.Equal(t, 1, r.LiveSessions())
	assert.Equal(t, []string{"A => S1"}, lines(r.Display()))
}

func TestDuplicateHandlerRejectedWithoutSideEffects(t *testing.T) {
	creators := map[string]func(r *Registry) error{
		"create": func(r *Registry) error { return r.CreateSession("A", "S2") },
		"strong": func(r *Registry) error { return r.AddStrong("A", "B") },
		"weak":   func(r *Registry) error { return r.AddWeak("A", "B") },
	}

	for name, create := range creators {
		t.Run(name, func(t *testing.T) {
			r, log := newTestRegistry(t)
			require.NoError(t, r.CreateSession("A", "S1"))
			require.NoError(t, r.CreateSession("B", "SB"))
			before := lines(r.Display())

			err := create(r)
			require.ErrorIs(t, err, ErrHandlerExists)

			assert.Equal(t, before, lines(r.Display()))
			assert.Equal(t, 2, r.LiveSessions())
			assert.Equal(t, 1, r.StrongCount("A"))
			assert.Equal(t, 1, r.StrongCount("B"))
			assert.Empty(t, log.names)
			assert.Equal(t, 2, r.Stats().SessionsCreated)
			require.NoError(t, r.CheckInvariants())
		})
	}
}

func TestAttachToMissingTarget(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.ErrorIs(t, r.AddStrong("B", "A"), ErrTargetNotFound)
	require.ErrorIs(t, r.AddWeak("B", "A"), ErrTargetNotFound)
	assert.Zero(t, r.Len())
}

func TestMissingTargetReportedBeforeDuplicate(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.CreateSession("A", "S1"))

	require.ErrorIs(t, r.AddStrong("A", "missing"), ErrTargetNotFound)
	require.ErrorIs(t, r.AddWeak("A", "missing"), ErrTargetNotFound)
}

func TestEraseMissingHandler(t *testing.T) {
	r, log := newTestRegistry(t)
	require.ErrorIs(t, r.Erase("nope"), ErrHandlerNotFound)
	assert.Empty(t, log.names)
}

func TestSharedOwnershipRoundTrip(t *testing.T) {
	r, log := newTestRegistry(t)

	require.NoError(t, r.CreateSession("A", "S1"))
	require.NoError(t, r.AddStrong("B", "A"))
	assert.Equal(t, 2, r.StrongCount("A"))

	require.NoError(t, r.Erase("A"))
	assert.Empty(t, log.names, "B still owns S1")
	assert.Equal(t, 1, r.LiveSessions())

	require.NoError(t, r.Erase("B"))
	assert.Equal(t, []string{"S1"}, log.names)
	assert.Zero(t, r.LiveSessions())
	assert.Empty(t, r.Display())
}

func TestWeakObservesWithoutOwning(t *testing.T) {
	r, log := newTestRegistry(t)

	require.NoError(t, r.CreateSession("B", "S"))
	require.NoError(t, r.AddStrong("D", "B"))
	require.NoError(t, r.AddWeak("A", "B"))
	assert.Equal(t, 2, r.StrongCount("B"), "weak must not count")

	s, ok := r.Resolve("A")
	require.True(t, ok)
	assert.Equal(t, "S", s.Name)

	require.NoError(t, r.Erase("B"))
	s, ok = r.Resolve("A")
	require.True(t, ok, "D keeps S alive")
	assert.Equal(t, "S", s.Name)

	require.NoError(t, r.Erase("D"))
	_, ok = r.Resolve("A")
	assert.False(t, ok)
	assert.Equal(t, []string{"S"}, log.names)

	assert.Equal(t, []string{"A"}, lines(r.Display()))
}

func TestEraseWeakNeverDestroys(t *testing.T) {
	r, log := newTestRegistry(t)

	require.NoError(t, r.CreateSession("A", "S1"))
	require.NoError(t, r.AddWeak("W1", "A"))
	require.NoError(t, r.AddWeak("W2", "W1"))

	require.NoError(t, r.Erase("W1"))
	require.NoError(t, r.Erase("W2"))

	assert.Empty(t, log.names)
	assert.Equal(t, 1, r.StrongCount("A"))
}

func TestStrongFromWeakTargetSharesOwnership(t *testing.T) {
	r, log := newTestRegistry(t)

	require.NoError(t, r.CreateSession("A", "S1"))
	require.NoError(t, r.AddWeak("W", "A"))
	require.NoError(t, r.AddStrong("B", "W"))
	assert.Equal(t, 2, r.StrongCount("A"))

	require.NoError(t, r.Erase("A"))
	assert.Empty(t, log.names)
	assert.Equal(t, []string{"B => S1", "W -> S1"}, lines(r.Display()))
}

func TestAttachToExpiredTargetCreatesEmptyHandler(t *testing.T) {
	r, log := newTestRegistry(t)

	require.NoError(t, r.CreateSession("A", "S1"))
	require.NoError(t, r.AddWeak("W", "A"))
	require.NoError(t, r.Erase("A"))
	require.Equal(t, []string{"S1"}, log.names)

	require.NoError(t, r.AddStrong("B", "W"))
	require.NoError(t, r.AddWeak("C", "W"))

	b, ok := r.Handler("B")
	require.True(t, ok)
	assert.False(t, b.IsStrong())
	assert.Equal(t, KindNone, b.Reference().Kind)

	assert.Equal(t, []string{"B", "C", "W"}, lines(r.Display()))
	assert.Zero(t, r.LiveSessions())

	require.NoError(t, r.Erase("B"))
	require.NoError(t, r.Erase("C"))
	assert.Equal(t, []string{"S1"}, log.names, "no second destruction")
}

func TestWeakDoesNotResolveToReusedSlot(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.NoError(t, r.CreateSession("A", "old"))
	require.NoError(t, r.AddWeak("W", "A"))
	require.NoError(t, r.Erase("A"))
	require.NoError(t, r.CreateSession("N", "new"))

	_, ok := r.Resolve("W")
	assert.False(t, ok)
	assert.Equal(t, []string{"N => new", "W"}, lines(r.Display()))
}

func TestDisplaySortedByName(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.NoError(t, r.CreateSession("zeta", "S1"))
	require.NoError(t, r.AddWeak("alpha", "zeta"))
	require.NoError(t, r.AddStrong("mid", "zeta"))

	assert.Equal(t, []string{"alpha -> S1", "mid => S1", "zeta => S1"}, lines(r.Display()))
}

func TestCloseReleasesHandlersInDescendingNameOrder(t *testing.T) {
	log := &destroyLog{}
	r := NewRegistry(WithDestroyHook(log.hook))

	require.NoError(t, r.CreateSession("a", "S1"))
	require.NoError(t, r.CreateSession("b", "S2"))
	require.NoError(t, r.CreateSession("c", "S3"))

	r.Close()
	assert.Equal(t, []string{"S3", "S2", "S1"}, log.names)
}

func TestCloseDestroysSharedSessionWithItsLastHolder(t *testing.T) {
	log := &destroyLog{}
	r := NewRegistry(WithDestroyHook(log.hook))

	require.NoError(t, r.CreateSession("b", "S2"))
	require.NoError(t, r.CreateSession("c", "S1"))
	require.NoError(t, r.AddStrong("a", "c"))
	require.NoError(t, r.AddWeak("d", "b"))

	r.Close()
	assert.Equal(t, []string{"S2", "S1"}, log.names)
	assert.Zero(t, r.Len())
	assert.Zero(t, r.LiveSessions())

	r.Close()
	assert.Len(t, log.names, 2)
}

func TestStats(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.NoError(t, r.CreateSession("A", "S1"))
	require.NoError(t, r.CreateSession("B", "S2"))
	require.NoError(t, r.AddWeak("C", "A"))
	require.NoError(t, r.Erase("A"))

	assert.Equal(t, Stats{Handlers: 2, LiveSessions: 1, SessionsCreated: 2, SessionsDestroyed: 1}, r.Stats())
}

func TestInvariantsHoldUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	names := []string{"a", "b", "c", "d", "e", "f"}
	pick := func() string { return names[rng.Intn(len(names))] }

	for round := 0; round < 20; round++ {
		t.Run(fmt.Sprintf("round%d", round), func(t *testing.T) {
			r, log := newTestRegistry(t)
			destroyedBefore := 0

			for step := 0; step < 200; step++ {
				switch rng.Intn(4) {
				case 0:
					_ = r.CreateSession(pick(), fmt.Sprintf("S%d", step))
				case 1:
					_ = r.AddStrong(pick(), pick())
				case 2:
					_ = r.AddWeak(pick(), pick())
				case 3:
					_ = r.Erase(pick())
				}

				require.NoError(t, r.CheckInvariants(), "step %d", step)

				stats := r.Stats()
				require.Equal(t, stats.SessionsCreated-stats.SessionsDestroyed, stats.LiveSessions)
				require.Len(t, log.names, stats.SessionsDestroyed)
				require.GreaterOrEqual(t, len(log.names), destroyedBefore)
				destroyedBefore = len(log.names)
			}
		})
	}
}

func TestCheckInvariantsDetectsCorruption(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.CreateSession("A", "S1"))

	ref := r.handlers["A"].ref.Session
	require.True(t, r.sessions.Retain(ref))

	err := r.CheckInvariants()
	require.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), `session "S1" has strong count 2`)

	r.sessions.Release(ref)
	require.NoError(t, r.CheckInvariants())
}
