package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const CookieName = "vg_session"

const DefaultIdleTTL = 2 * time.Hour

type Session struct {
	ID string
	*MemoryStore
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

type Config struct {
	Secret        string
	SecureCookies bool
	IdleTTL       time.Duration
}

// Manager hands out server-side sessions bound to a browser-session cookie.
// The cookie never carries Max-Age or Expires, so the browser discards it
// when the session ends and the next visit starts from an empty store.
type Manager struct {
	secret  string
	secure  bool
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
	onEvict  []func(id string)
	now      func() time.Time
}

func NewManager(cfg Config) *Manager {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Manager{
		secret:   cfg.Secret,
		secure:   cfg.SecureCookies,
		idleTTL:  ttl,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// OnEvict registers fn to run whenever a session is swept.
func (m *Manager) OnEvict(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = append(m.onEvict, fn)
}

// Load returns the caller's session, starting a new one and setting the
// cookie when the request has no valid session.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if s, ok := m.Lookup(r); ok {
		return s, nil
	}

	id := uuid.NewString()
	token, err := GenerateToken(m.secret, id, m.now())
	if err != nil {
		return nil, err
	}

	s := &Session{ID: id, MemoryStore: NewMemoryStore()}
	m.mu.Lock()
	m.sessions[id] = &entry{session: s, lastSeen: m.now()}
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return s, nil
}

// Lookup returns the existing session for r without creating one.
func (m *Manager) Lookup(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	claims, err := ValidateToken(m.secret, cookie.Value)
	if err != nil {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[claims.SessionID]
	if !ok || m.now().Sub(e.lastSeen) > m.idleTTL {
		return nil, false
	}
	e.lastSeen = m.now()
	return e.session, true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	var expired []string
	for id, e := range m.sessions {
		if m.now().Sub(e.lastSeen) > m.idleTTL {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	hooks := append([]func(string){}, m.onEvict...)
	m.mu.Unlock()

	for _, id := range expired {
		for _, fn := range hooks {
			fn(id)
		}
	}
	return len(expired)
}

func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.Debug("session: swept idle sessions", "count", n)
				}
			}
		}
	}()
}
