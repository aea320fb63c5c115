package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"shopadmin/internal/domain"
)

var (
	// ErrOutsideProvider is returned when the manager is used before Activate.
	ErrOutsideProvider = errors.New("session: used outside provider")
	// ErrMissingToken rejects a login without a token or user id.
	ErrMissingToken = errors.New("session: token and user are required")
)

// LoginPath is where Logout navigates.
const LoginPath = "/login"

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Listener is notified after login (ok=true) and logout (ok=false).
type Listener func(s domain.Session, ok bool)

// Manager keeps the current session for one client and mirrors it to Storage.
type Manager struct {
	storage Storage
	nav     Navigator

	mu        sync.RWMutex
	active    bool
	loading   bool
	session   domain.Session
	hasSess   bool
	listeners map[int]Listener
	nextID    int
}

type Option func(*Manager)

// WithNavigator sets the navigator used by Logout. Without one, Logout does not navigate.
func WithNavigator(n Navigator) Option {
	return func(m *Manager) { m.nav = n }
}

func NewManager(storage Storage, opts ...Option) *Manager {
	if storage == nil {
		panic("session: storage must not be nil")
	}
	m := &Manager{storage: storage, loading: true, listeners: make(map[int]Listener)}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Activate hydrates the session from storage. Corrupt user data clears both keys.
// IsLoading turns false when Activate returns, whatever the result.
func (m *Manager) Activate(ctx context.Context) error {
	m.mu.Lock()
	defer func() {
		m.active = true
		m.loading = false
		m.mu.Unlock()
	}()
	if m.active {
		return nil
	}

	token, hasToken, err := m.storage.GetItem(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", TokenKey, err)
	}
	raw, hasUser, err := m.storage.GetItem(ctx, UserKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", UserKey, err)
	}

	if hasToken && token != "" && hasUser && raw != "" {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			m.session = domain.Session{Token: token, User: u}
			m.hasSess = true
			return nil
		}
	}
	if hasToken || hasUser {
		return m.clearStorage(ctx)
	}
	return nil
}

func (m *Manager) clearStorage(ctx context.Context) error {
	if err := m.storage.RemoveItem(ctx, TokenKey); err != nil {
		return err
	}
	return m.storage.RemoveItem(ctx, UserKey)
}

// IsLoading is true only until Activate completes.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Current returns the session, if any.
func (m *Manager) Current() (domain.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.active {
		return domain.Session{}, false, ErrOutsideProvider
	}
	return m.session, m.hasSess, nil
}

// Token is a shortcut for handlers that only need the bearer token.
func (m *Manager) Token() (string, error) {
	s, ok, err := m.Current()
	if err != nil {
		return "", err
	}
	if !ok || s.Token == "" {
		return "", domain.ErrNoSession
	}
	return s.Token, nil
}

// Login persists token and user before updating memory, so readers never see a
// logged-in state that storage does not have.
func (m *Manager) Login(ctx context.Context, token string, user domain.User) error {
	if token == "" {
		return ErrMissingToken
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrOutsideProvider
	}
	if err := m.storage.SetItem(ctx, TokenKey, token); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist token: %w", err)
	}
	if err := m.storage.SetItem(ctx, UserKey, string(raw)); err != nil {
		_ = m.storage.RemoveItem(ctx, TokenKey)
		m.mu.Unlock()
		return fmt.Errorf("persist user: %w", err)
	}
	m.session = domain.Session{Token: token, User: user}
	m.hasSess = true
	s := m.session
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, l := range listeners {
		l(s, true)
	}
	return nil
}

// Logout removes both keys, clears memory and navigates to the login page.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrOutsideProvider
	}
	err := m.clearStorage(ctx)
	m.session = domain.Session{}
	m.hasSess = false
	listeners := m.snapshotListeners()
	nav := m.nav
	m.mu.Unlock()

	for _, l := range listeners {
		l(domain.Session{}, false)
	}
	if nav != nil {
		nav.Navigate(LoginPath)
	}
	if err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	return nil
}

// Subscribe registers l and returns a func that removes it.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}
