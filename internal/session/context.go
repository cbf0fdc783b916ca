package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL matches the seven day auth cookie.
const DefaultTTL = 7 * 24 * time.Hour

// Option customizes a Context.
type Option func(*Context)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *Context) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTTL overrides how long a new session stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(c *Context) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Context is the authenticated-session state for one process.
type Context struct {
	mu      sync.RWMutex
	store   Store
	clock   func() time.Time
	ttl     time.Duration
	logger  *zap.Logger
	current *Record
}

// New wires a session context to its store. Call Init before reading it.
func New(store Store, opts ...Option) (*Context, error) {
	if store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	c := &Context{
		store:  store,
		clock:  time.Now,
		ttl:    DefaultTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Init restores a persisted session. A token without a cached profile, or an
// expired token, is cleared rather than restored.
func (c *Context) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	rec, err := c.store.Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		c.logger.Warn("discarding unreadable session", zap.Error(err))
		return c.store.Clear()
	}
	switch {
	case strings.TrimSpace(rec.Token) == "":
		return c.store.Clear()
	case rec.Profile == nil:
		c.logger.Info("session token without profile, clearing")
		return c.store.Clear()
	case !rec.ExpiresAt.IsZero() && !c.clock().Before(rec.ExpiresAt):
		c.logger.Info("session expired", zap.Time("expires_at", rec.ExpiresAt))
		return c.store.Clear()
	}
	c.current = &rec
	c.logger.Debug("session restored", zap.String("email", rec.Profile.Email))
	return nil
}

// Begin stores a fresh session for profile.
func (c *Context) Begin(token string, profile Profile) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("session: token is required")
	}
	p := profile
	rec := Record{
		Token:     token,
		ExpiresAt: c.clock().Add(c.ttl),
		Profile:   &p,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(rec); err != nil {
		return err
	}
	c.current = &rec
	c.logger.Info("session started", zap.String("email", p.Email), zap.Time("expires_at", rec.ExpiresAt))
	return nil
}

// Teardown forgets the token and cached profile.
func (c *Context) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	if err := c.store.Clear(); err != nil {
		return err
	}
	c.logger.Info("session cleared")
	return nil
}

// Authenticated reports whether a live session exists.
func (c *Context) Authenticated() bool {
	_, ok := c.Current()
	return ok
}

// Current returns the signed-in profile.
func (c *Context) Current() (Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || c.current.Profile == nil {
		return Profile{}, false
	}
	if !c.current.ExpiresAt.IsZero() && !c.clock().Before(c.current.ExpiresAt) {
		return Profile{}, false
	}
	return *c.current.Profile, true
}

// Token returns the bearer token of the live session.
func (c *Context) Token() string {
	if !c.Authenticated() {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Token
}
