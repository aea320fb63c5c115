package services

import (
	"context"

	"shopadmin/internal/domain"
	"shopadmin/internal/session"
)

// Authenticator exchanges credentials for a backend token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
}

// Forgetter drops per-client state that should not outlive a session.
type Forgetter interface {
	Drop(clientID string)
}

type AuthService struct {
	Backend Authenticator
	Store   session.Store
	Forget  []Forgetter
}

func NewAuthService(backend Authenticator, store session.Store, forget ...Forgetter) *AuthService {
	return &AuthService{Backend: backend, Store: store, Forget: forget}
}

// Session returns an activated session manager for the client namespace sid.
func (s *AuthService) Session(ctx context.Context, sid string, opts ...session.Option) (*session.Manager, error) {
	m := session.NewManager(s.Store.For(sid), opts...)
	if err := m.Activate(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Login authenticates against the backend and stores the session under sid.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (domain.Session, error) {
	sess, err := s.Backend.Login(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	m, err := s.Session(ctx, sid)
	if err != nil {
		return domain.Session{}, err
	}
	if err := m.Login(ctx, sess.Token, sess.User); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Logout clears the stored session and any form state of the client. nav receives
// the post-logout destination.
func (s *AuthService) Logout(ctx context.Context, sid string, nav session.Navigator) error {
	m, err := s.Session(ctx, sid, session.WithNavigator(nav))
	if err != nil {
		return err
	}
	unsubscribe := m.Subscribe(func(_ domain.Session, ok bool) {
		if ok {
			return
		}
		for _, f := range s.Forget {
			f.Drop(sid)
		}
	})
	defer unsubscribe()
	return m.Logout(ctx)
}

// CurrentUser returns the stored user for sid, or nil when logged out.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	m, err := s.Session(ctx, sid)
	if err != nil {
		return nil, err
	}
	sess, ok, err := m.Current()
	if err != nil || !ok {
		return nil, err
	}
	return &sess.User, nil
}

// Token returns the stored token for sid or domain.ErrNoSession.
func (s *AuthService) Token(ctx context.Context, sid string) (string, error) {
	m, err := s.Session(ctx, sid)
	if err != nil {
		return "", err
	}
	return m.Token()
}
