// Package gate decides whether the current session may enter a protected
// view, and whether role-gated sections inside a granted view render.
//
// Each protected view owns one [Gate]. The gate starts in Checking, settles
// to Granted or Denied on the first Evaluate, and re-evaluates on every
// session change its store reports — so a logout in another context revokes
// a grant immediately, without a reload. There is no terminal state; the
// gate keeps re-evaluating for the life of the view.
//
// Section checks are fail-closed: an unset or mismatched role hides the
// section, never defaults to shown.
package gate

import (
	"context"
	"sync"

	"github.com/chainportal/ledgerclient/session"
)

// RoleAdmin is the only role tag access logic recognizes. Every other tag
// is a generic authenticated user.
const RoleAdmin = "ROLE_ADMIN"

// State is the admission state of one protected view.
type State uint8

const (
	// StateChecking is the initial state before the session is read.
	StateChecking State = iota
	// StateGranted admits the view.
	StateGranted
	// StateDenied refuses the view; the portal redirects to login.
	StateDenied
)

// String returns the stable name of the state.
func (s State) String() string {
	switch s {
	case StateGranted:
		return "granted"
	case StateDenied:
		return "denied"
	default:
		return "checking"
	}
}

// Requirement declares what a protected view demands of the session.
type Requirement struct {
	RequireAuth bool
	RequireRole string // empty: any authenticated role
}

// Gate evaluates one view's Requirement against the live session.
type Gate struct {
	store session.Store
	req   Requirement

	mu       sync.Mutex
	state    State
	onChange func(State)
	cancel   func()
}

// New builds a gate in Checking and subscribes it to store changes. Call
// Stop when the view unmounts.
func New(store session.Store, req Requirement) *Gate {
	g := &Gate{store: store, req: req, state: StateChecking}
	g.cancel = store.Subscribe(func(s session.Session) {
		g.apply(decide(req, s))
	})
	return g
}

// Evaluate reads the current session and settles the state. It is called
// at view mount; later session changes re-evaluate automatically.
func (g *Gate) Evaluate(ctx context.Context) State {
	s, err := g.store.Get(ctx)
	if err != nil {
		// An unreadable session cannot prove authentication.
		return g.apply(StateDenied)
	}
	return g.apply(decide(g.req, s))
}

// State returns the last settled state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// OnChange registers fn to run whenever the state transitions. One
// listener per gate; a second call replaces the first.
func (g *Gate) OnChange(fn func(State)) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

// Stop detaches the gate from the session store.
func (g *Gate) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
}

func (g *Gate) apply(next State) State {
	g.mu.Lock()
	changed := next != g.state
	g.state = next
	fn := g.onChange
	g.mu.Unlock()

	if changed && fn != nil {
		fn(next)
	}
	return next
}

func decide(req Requirement, s session.Session) State {
	if !req.RequireAuth {
		return StateGranted
	}
	if !s.Authenticated() {
		return StateDenied
	}
	if req.RequireRole != "" && s.Role != req.RequireRole {
		return StateDenied
	}
	return StateGranted
}

// AllowSection reports whether a role-gated section inside a granted view
// renders. Unset or mismatched roles hide the section.
func AllowSection(s session.Session, role string) bool {
	return s.Authenticated() && role != "" && s.Role == role
}
