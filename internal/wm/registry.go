package wm

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/1broseidon/winstate/internal/geom"
)

// Listener is notified after every command that changed state. Listeners
// are called one at a time in commit order and must not dispatch.
type Listener func(cmd Command, next State)

// Registry is the single source of mutable window state. Every mutation goes
// through Dispatch, which applies one command atomically.
type Registry struct {
	mu        sync.RWMutex
	state     State
	version   uint64
	logger    zerolog.Logger
	listeners []Listener

	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	notified   uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for committed commands.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithState seeds the registry from a persisted snapshot.
func WithState(s State) Option {
	return func(r *Registry) {
		r.state = Normalize(s)
	}
}

// NewRegistry creates an empty registry handing out zIndex values from base.
func NewRegistry(base int64, c geom.Constraints, opts ...Option) *Registry {
	r := &Registry{
		state:  NewState(base, c),
		logger: zerolog.Nop(),
	}
	r.notifyCond = sync.NewCond(&r.notifyMu)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch applies cmd and reports whether state changed.
func (r *Registry) Dispatch(cmd Command) bool {
	changed, _ := r.DispatchVersion(cmd)
	return changed
}

// DispatchVersion applies cmd and also returns the state version it left
// behind. The version increases by one for every command that changed state.
func (r *Registry) DispatchVersion(cmd Command) (bool, uint64) {
	r.mu.Lock()
	next, changed := applyCommand(r.state, cmd)
	if changed {
		r.state = next
		r.version++
	}
	version := r.version
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	if cmd != nil {
		r.logger.Debug().
			Str("command", cmd.Name()).
			Bool("changed", changed).
			Msg("command dispatched")
	}
	if changed {
		r.notify(version, cmd, next, listeners)
	}
	return changed, version
}

// notify runs listeners for the change that produced version, waiting for
// every earlier change to be announced first.
func (r *Registry) notify(version uint64, cmd Command, next State, listeners []Listener) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	for r.notified != version-1 {
		r.notifyCond.Wait()
	}
	for _, fn := range listeners {
		fn(cmd, next)
	}
	r.notified = version
	r.notifyCond.Broadcast()
}

// Open assigns an id when the descriptor has none, dispatches Open and
// returns the window id.
func (r *Registry) Open(d Descriptor) string {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	r.Dispatch(Open{Window: d})
	return d.ID
}

// Subscribe registers fn for change notifications.
func (r *Registry) Subscribe(fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (r *Registry) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// VersionedSnapshot returns a copy of the current state together with its
// version, read atomically.
func (r *Registry) VersionedSnapshot() (State, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone(), r.version
}

// Version counts the commands that changed state since creation.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Window returns the window with id.
func (r *Registry) Window(id string) (Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.state.Windows[id]
	return w, ok
}

// Active returns the active window, if any.
func (r *Registry) Active() (Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Active()
}

// Stack returns windows in render order.
func (r *Registry) Stack() []Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Stack()
}

// Group returns the group with id.
func (r *Registry) Group(id string) (Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.state.Groups[id]
	return g, ok
}

// Groups returns all groups ordered by creation.
func (r *Registry) Groups() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.SortedGroups()
}

// Constraints returns the registry-wide default constraints.
func (r *Registry) Constraints() geom.Constraints {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Constraints
}

// SetConstraints updates the default constraints for subsequent commands.
// Existing geometry is left alone until the next Resize.
func (r *Registry) SetConstraints(c geom.Constraints) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Constraints = c
}
