package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrMissingKey   = errors.New("missing publishable key")
	ErrInvalidKey   = errors.New("invalid publishable key")
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
	ErrSignedOut    = errors.New("signed out")
)

// PublishableKey is the decoded identity-provider key.
type PublishableKey struct {
	FrontendAPI string
	Live        bool
}

// ParsePublishableKey decodes "pk_test_<b64>" / "pk_live_<b64>" where the
// payload is the frontend API host followed by '$'.
func ParsePublishableKey(pk string) (PublishableKey, error) {
	pk = strings.TrimSpace(pk)
	if pk == "" {
		return PublishableKey{}, ErrMissingKey
	}

	var key PublishableKey
	var payload string
	switch {
	case strings.HasPrefix(pk, "pk_test_"):
		payload = strings.TrimPrefix(pk, "pk_test_")
	case strings.HasPrefix(pk, "pk_live_"):
		payload = strings.TrimPrefix(pk, "pk_live_")
		key.Live = true
	default:
		return PublishableKey{}, fmt.Errorf("%w: unknown prefix", ErrInvalidKey)
	}

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return PublishableKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	host, ok := strings.CutSuffix(string(raw), "$")
	if !ok || host == "" || strings.ContainsAny(host, "/ $") {
		return PublishableKey{}, fmt.Errorf("%w: malformed payload", ErrInvalidKey)
	}
	key.FrontendAPI = host
	return key, nil
}

// Session is the signed-in user.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// DisplayName is what the top bar shows for the user.
func (s Session) DisplayName() string {
	if s.Email != "" {
		return s.Email
	}
	return s.UserID
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity gates the dashboard on a session issued by the hosted identity
// provider. Token signatures are verified by the backend, not here.
type Identity struct {
	key   PublishableKey
	store *Store
	log   *zap.Logger
	now   func() time.Time

	mu      sync.RWMutex
	session *Session
}

type IdentityOption func(*Identity)

// WithStore persists the session token across restarts.
func WithStore(s *Store) IdentityOption {
	return func(id *Identity) { id.store = s }
}

func WithLogger(log *zap.Logger) IdentityOption {
	return func(id *Identity) { id.log = log }
}

func WithClock(now func() time.Time) IdentityOption {
	return func(id *Identity) { id.now = now }
}

// NewIdentity fails when the publishable key is missing or malformed.
func NewIdentity(publishableKey string, opts ...IdentityOption) (*Identity, error) {
	key, err := ParsePublishableKey(publishableKey)
	if err != nil {
		return nil, err
	}
	id := &Identity{key: key, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(id)
	}
	return id, nil
}

func (id *Identity) Key() PublishableKey { return id.key }

// SignInURL is the hosted account portal's sign-in page.
func (id *Identity) SignInURL() string {
	host := id.key.FrontendAPI
	switch {
	case strings.HasSuffix(host, ".clerk.accounts.dev"):
		host = strings.TrimSuffix(host, ".clerk.accounts.dev") + ".accounts.dev"
	case strings.HasPrefix(host, "clerk."):
		host = "accounts." + strings.TrimPrefix(host, "clerk.")
	}
	return "https://" + host + "/sign-in"
}

// SignIn accepts a session token pasted from the hosted sign-in page.
func (id *Identity) SignIn(token string) (Session, error) {
	s, err := id.parse(token)
	if err != nil {
		return Session{}, err
	}

	id.mu.Lock()
	id.session = &s
	id.mu.Unlock()

	if id.store != nil {
		if err := id.store.Save(s.Token); err != nil {
			id.log.Warn("session not persisted", zap.Error(err))
		}
	}
	id.log.Info("signed in", zap.String("user", s.UserID))
	return s, nil
}

func (id *Identity) parse(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidToken
	}

	claims := &sessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	s := Session{UserID: claims.Subject, Email: claims.Email, Token: token}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
		if !s.ExpiresAt.After(id.now()) {
			return Session{}, ErrTokenExpired
		}
	}
	return s, nil
}

// Restore signs in from the persisted token, if any. A stale or unreadable
// token is discarded.
func (id *Identity) Restore() bool {
	if id.store == nil {
		return false
	}
	token, err := id.store.Load()
	if err != nil {
		id.log.Warn("saved session unreadable", zap.Error(err))
		_ = id.store.Clear()
		return false
	}
	if token == "" {
		return false
	}
	if _, err := id.SignIn(token); err != nil {
		id.log.Info("saved session discarded", zap.Error(err))
		_ = id.store.Clear()
		return false
	}
	return true
}

// SignOut ends the session and forgets any persisted token.
func (id *Identity) SignOut() {
	id.mu.Lock()
	id.session = nil
	id.mu.Unlock()

	if id.store != nil {
		if err := id.store.Clear(); err != nil {
			id.log.Warn("saved session not removed", zap.Error(err))
		}
	}
	id.log.Info("signed out")
}

// SignedIn reports whether a session exists and has not expired at now.
func (id *Identity) SignedIn(now time.Time) bool {
	id.mu.RLock()
	defer id.mu.RUnlock()
	if id.session == nil {
		return false
	}
	return id.session.ExpiresAt.IsZero() || now.Before(id.session.ExpiresAt)
}

// Session returns the current session or ErrSignedOut.
func (id *Identity) Session() (Session, error) {
	if !id.SignedIn(id.now()) {
		return Session{}, ErrSignedOut
	}
	id.mu.RLock()
	defer id.mu.RUnlock()
	return *id.session, nil
}
