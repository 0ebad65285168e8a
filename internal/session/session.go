// Package session owns the authenticated user identity and the durable
// identifiers that survive restarts.
//
// The [Store] gates everything that needs a signed-in user: it exchanges
// identity credentials for a [models.Session], persists the user
// identifier through a small key-value interface, and silently restores
// the session on relaunch. Restoration failure is not an error condition;
// it simply means "not signed in".
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/shared"
)

const (
	// userKey stores the signed-in user identifier.
	userKey = "muse-user-id"
	// deviceKey stores the anonymous device identifier used to scope
	// history before (or without) a linked account.
	deviceKey = "muse-device-id"
)

// KV is the durable client-local storage the store persists identifiers
// in. Get returns "" for absent keys.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Authenticator is the slice of the backend contract the store needs.
// Implemented by services.MuseService.
type Authenticator interface {
	ExchangeGoogleToken(ctx context.Context, idToken string) (*models.Session, error)
	LinkYouTube(ctx context.Context, userID, code string) (*models.Session, error)
	FetchSession(ctx context.Context, userID string) (*models.Session, error)
}

// Store holds the current session and keeps its identifier durable. All
// mutation goes through the methods below; success paths persist before
// they return so a crash immediately afterwards never loses the result.
type Store struct {
	mu      sync.Mutex
	kv      KV
	auth    Authenticator
	current *models.Session
}

// NewStore creates a session store over the given persistence and backend.
func NewStore(kv KV, auth Authenticator) *Store {
	return &Store{kv: kv, auth: auth}
}

// Current returns the active session, or nil when signed out.
func (s *Store) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Restore exchanges a persisted identifier for a full session. An
// unrecognized or expired identifier is discarded and reported as "no
// session" rather than an error.
func (s *Store) Restore(ctx context.Context) (*models.Session, error) {
	userID, err := s.kv.Get(userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted session: %w", err)
	}
	if userID == "" {
		return nil, nil
	}

	session, err := s.auth.FetchSession(ctx, userID)
	if err != nil {
		// Backend no longer recognizes the identifier; drop it.
		s.kv.Remove(userKey)
		return nil, nil
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
	return session, nil
}

// Establish exchanges a third-party identity credential for a session and
// persists its identifier.
func (s *Store) Establish(ctx context.Context, idToken string) (*models.Session, error) {
	session, err := s.auth.ExchangeGoogleToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuth, err)
	}

	if err := s.kv.Set(userKey, session.UserID); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
	return session, nil
}

// LinkMusicAccount exchanges a delegated-authorization code for an updated
// session with the music account attached. Requires an established
// session; on failure the current session is left untouched.
func (s *Store) LinkMusicAccount(ctx context.Context, code string) (*models.Session, error) {
	current := s.Current()
	if current == nil {
		return nil, shared.ErrNoSession
	}

	session, err := s.auth.LinkYouTube(ctx, current.UserID, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuth, err)
	}

	if err := s.kv.Set(userKey, session.UserID); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
	return session, nil
}

// Clear drops the in-memory and persisted session unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.kv.Remove(userKey)
}

// ResolveDeviceID returns the durable device identifier, creating and
// persisting one on first use.
func ResolveDeviceID(kv KV) (string, error) {
	id, err := kv.Get(deviceKey)
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = shared.GenerateID()
	if err := kv.Set(deviceKey, id); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	return id, nil
}
