// Package session keeps one independent cart per shopper for hosts that serve
// many shoppers at once, such as the HTTP API.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/cart"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// DefaultIdleTTL is how long an untouched session is kept.
const DefaultIdleTTL = 30 * time.Minute

// RendererFactory builds the renderer notified by one session's cart.
type RendererFactory func(id uuid.UUID) cart.Renderer

// Session is one shopper's cart. Actions on it run one at a time.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu       sync.Mutex
	store    *cart.Store
	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Option configures a Manager.
type Option func(*Manager)

// WithRendererFactory sets the renderer attached to each new session's cart.
func WithRendererFactory(f RendererFactory) Option {
	return func(m *Manager) { m.renderers = f }
}

// WithIdleTTL sets how long an idle session survives a sweep.
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.idleTTL = ttl
		}
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns the live sessions. It is safe for concurrent use.
type Manager struct {
	catalog   cart.CatalogSource
	renderers RendererFactory
	idleTTL   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a manager whose carts resolve products through catalog.
func NewManager(catalog cart.CatalogSource, opts ...Option) *Manager {
	m := &Manager{
		catalog:  catalog,
		idleTTL:  DefaultIdleTTL,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a session with an empty cart.
func (m *Manager) Create() *Session {
	id := uuid.New()
	now := m.now()

	var renderer cart.Renderer
	if m.renderers != nil {
		renderer = m.renderers(id)
	}

	s := &Session{
		ID:        id,
		CreatedAt: now,
		store:     cart.NewStore(m.catalog, renderer, cart.WithLogger(m.logger.With(slog.String("session_id", id.String())))),
	}
	s.touch(now)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Debug("session created", slog.String("session_id", id.String()))
	return s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("session", id.String())
	}
	return s, nil
}

// Do runs fn against the session's cart while holding the session lock, so
// each action sees the result of the previous one.
func (m *Manager) Do(id uuid.UUID, fn func(store *cart.Store)) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(m.now())
	fn(s.store)
	return nil
}

// Delete removes a session. It reports whether the session existed.
func (m *Manager) Delete(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL as of now and returns
// how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info("idle sessions swept",
			slog.Int("removed", removed),
			slog.Int("remaining", len(m.sessions)),
		)
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}
