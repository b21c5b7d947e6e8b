package server

import (
	"fmt"
	"sync/atomic"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango"
)

// serveState is a state of the serving guard.
type serveState uint32

const (
	// stateServing: queries are accepted.
	stateServing serveState = iota
	// stateClosed: Close has been called. Every query fails with
	// ErrTransport; there is no way back.
	stateClosed
)

func (s serveState) String() string {
	switch s {
	case stateServing:
		return "Serving"
	case stateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Guard gates calls on an open/closed endpoint. Both the router and
// the transports wrap their entry points with it.
type Guard struct {
	name     string
	state    atomic.Uint32
	inflight atomic.Int64
}

// NewGuard creates a guard in the Serving state. name prefixes the
// error returned once closed.
func NewGuard(name string) *Guard {
	g := &Guard{name: name}
	g.state.Store(uint32(stateServing))
	return g
}

// State returns the current state.
func (g *Guard) State() string {
	return serveState(g.state.Load()).String()
}

// Acquire admits one call. It fails with ErrTransport once the guard
// is closed. Every successful Acquire must be paired with Release.
func (g *Guard) Acquire() error {
	if serveState(g.state.Load()) == stateClosed {
		return errorsmod.Wrapf(dango.ErrTransport, "%s: closed", g.name)
	}
	g.inflight.Add(1)
	return nil
}

// Release ends a call admitted by Acquire.
func (g *Guard) Release() {
	g.inflight.Add(-1)
}

// InFlight returns the number of admitted calls that have not been
// released.
func (g *Guard) InFlight() int64 {
	return g.inflight.Load()
}

// Close transitions Serving → Closed. It reports whether this call
// performed the transition.
func (g *Guard) Close() bool {
	return g.state.CompareAndSwap(uint32(stateServing), uint32(stateClosed))
}

// IsClosed returns true once Close has been called.
func (g *Guard) IsClosed() bool {
	return serveState(g.state.Load()) == stateClosed
}
