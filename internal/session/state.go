package session

import (
	"sync"

	"github.com/waabox/shopdeck/internal/domain"
)

// State holds the logged-in flag and the cached identity of the current user.
type State struct {
	mu       sync.RWMutex
	user     domain.User
	loggedIn bool
	cleared  chan struct{}
}

// NewState creates an anonymous session state.
func NewState() *State {
	return &State{cleared: make(chan struct{}, 1)}
}

// Watch clears the state whenever b publishes a logout or refresh failure.
// The returned function detaches the state from b.
func (s *State) Watch(b *Broadcaster) (stop func()) {
	onSignal := func(Signal) { s.Clear() }
	unLogout := b.Subscribe(SignalLogout, onSignal)
	unRefresh := b.Subscribe(SignalRefreshFailed, onSignal)
	return func() {
		unLogout()
		unRefresh()
	}
}

// Login caches user as the authenticated identity.
func (s *State) Login(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.loggedIn = true
}

// Clear drops the cached identity.
func (s *State) Clear() {
	s.mu.Lock()
	s.user = domain.User{}
	s.loggedIn = false
	s.mu.Unlock()

	select {
	case s.cleared <- struct{}{}:
	default:
	}
}

// Cleared is signalled (non-blocking, capacity one) each time the state is cleared.
func (s *State) Cleared() <-chan struct{} {
	return s.cleared
}

// User returns the cached identity and whether a user is logged in.
func (s *State) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.loggedIn
}

// LoggedIn reports whether a user is logged in.
func (s *State) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}
