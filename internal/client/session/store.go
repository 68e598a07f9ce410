// Package session keeps the authenticated identity of the current user,
// persists it across restarts and notifies subscribers of every change.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/jonboulle/clockwork"
)

// Persisted keys.
const (
	KeyToken     = "token"
	KeyNickname  = "nickname"
	KeyUserID    = "user_id"
	KeyAvatarURL = "avatar_url"
)

var keys = []string{KeyToken, KeyNickname, KeyUserID, KeyAvatarURL}

// Listener receives the new session, or nil once the session is cleared.
type Listener func(s *models.Session)

type Store struct {
	kv    metadata.KV
	log   logging.Logger
	clock clockwork.Clock

	mu      sync.RWMutex
	current *models.Session

	subsMu  sync.Mutex
	subs    map[uint64]Listener
	nextSub uint64
}

type Option func(*Store)

// WithClock sets the clock used to check token expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func NewStore(kv metadata.KV, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		log:   log,
		clock: clockwork.NewRealClock(),
		subs:  make(map[uint64]Listener),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Restore loads the persisted session. Missing, malformed or expired data
// yields (nil, false) and is wiped; it is never reported as an error.
func (s *Store) Restore(ctx context.Context) (*models.Session, bool) {
	sess, err := s.read(ctx)
	if err != nil {
		s.log.Warn(ctx, "persisted session discarded", "err", err)
		if derr := s.kv.Delete(ctx, keys...); derr != nil {
			s.log.Warn(ctx, "failed to wipe persisted session", "err", derr)
		}
		sess = nil
	}

	s.set(sess)
	if sess == nil {
		return nil, false
	}
	out := *sess
	return &out, true
}

func (s *Store) read(ctx context.Context) (*models.Session, error) {
	vals, err := s.kv.List(ctx)
	if err != nil {
		return nil, err
	}

	token, nickname, rawID := vals[KeyToken], vals[KeyNickname], vals[KeyUserID]
	if token == "" && nickname == "" && rawID == "" {
		return nil, nil
	}
	if token == "" || nickname == "" || rawID == "" {
		return nil, fmt.Errorf("incomplete session")
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("bad %s %q", KeyUserID, rawID)
	}
	if tokenExpired(token, s.clock.Now()) {
		return nil, fmt.Errorf("token expired")
	}

	return &models.Session{
		IdentityID:  id,
		DisplayName: nickname,
		Token:       token,
		AvatarURL:   vals[KeyAvatarURL],
	}, nil
}

// Establish persists sess, replacing any previous session, and publishes it.
func (s *Store) Establish(ctx context.Context, sess models.Session) error {
	if sess.Token == "" || sess.IdentityID <= 0 {
		return common.Invalid("session", "token and identity are required")
	}

	err := s.kv.SetMany(ctx, map[string]string{
		KeyToken:     sess.Token,
		KeyNickname:  sess.DisplayName,
		KeyUserID:    strconv.FormatInt(sess.IdentityID, 10),
		KeyAvatarURL: sess.AvatarURL,
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.set(&sess)
	s.log.Info(ctx, "session established", "user_id", sess.IdentityID)
	return nil
}

// Clear forgets the session. The in-memory session is dropped even if the
// persisted copy could not be removed.
func (s *Store) Clear(ctx context.Context) error {
	s.set(nil)
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("remove persisted session: %w", err)
	}
	return nil
}

// Patch merges profile changes into the current session and re-persists it.
func (s *Store) Patch(ctx context.Context, p models.SessionPatch) error {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return common.ErrUnauthenticated
	}

	next := p.Apply(*cur)
	values := make(map[string]string, 2)
	if p.DisplayName != nil {
		values[KeyNickname] = next.DisplayName
	}
	if p.AvatarURL != nil {
		values[KeyAvatarURL] = next.AvatarURL
	}
	if len(values) > 0 {
		if err := s.kv.SetMany(ctx, values); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}

	s.set(&next)
	return nil
}

// Current returns a copy of the session.
func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, false
	}
	return *s.current, true
}

// Token returns the bearer credential, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Subscribe registers fn for every later change. Listeners run synchronously
// on the goroutine that made the change.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) set(sess *models.Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.subsMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range listeners {
		if sess == nil {
			fn(nil)
			continue
		}
		cp := *sess
		fn(&cp)
	}
}
