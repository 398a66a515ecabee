package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Matcher selects a provider among announced ones
type Matcher func(Info) bool

// MatchName matches providers whose name or rdns contains s (case-insensitive)
func MatchName(s string) Matcher {
	s = strings.ToLower(s)
	return func(info Info) bool {
		return strings.Contains(strings.ToLower(info.Name), s) ||
			strings.Contains(strings.ToLower(info.RDNS), s)
	}
}

type collector struct {
	seen    map[string]struct{}
	details []Detail
}

// Registry implements the request/announce discovery handshake.
// Providers register announcers with OnRequest and answer by calling Announce.
type Registry struct {
	logger *zap.Logger

	mu         sync.Mutex
	announcers []func()
	collectors map[*collector]struct{}
	injected   Provider
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:     logger.Named("discovery"),
		collectors: make(map[*collector]struct{}),
	}
}

// OnRequest registers fn to be called whenever discovery broadcasts a request
func (r *Registry) OnRequest(fn func()) {
	r.mu.Lock()
	r.announcers = append(r.announcers, fn)
	r.mu.Unlock()
}

// Announce publishes a provider to every discovery currently collecting.
// Announcements outside a collection window are dropped.
func (r *Registry) Announce(d Detail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.collectors {
		if _, dup := c.seen[d.Info.UUID]; dup {
			continue
		}
		c.seen[d.Info.UUID] = struct{}{}
		c.details = append(c.details, d)
	}
}

// SetInjected sets the fallback provider used when nothing matching announces
func (r *Registry) SetInjected(p Provider) {
	r.mu.Lock()
	r.injected = p
	r.mu.Unlock()
}

// Discover broadcasts a request, collects announcements for window and returns the
// first announced provider accepted by match. Without a match it falls back to the
// injected provider. Returns false when neither exists.
func (r *Registry) Discover(ctx context.Context, window time.Duration, match Matcher) (Provider, bool) {
	c := &collector{seen: make(map[string]struct{})}

	r.mu.Lock()
	r.collectors[c] = struct{}{}
	announcers := append([]func(){}, r.announcers...)
	r.mu.Unlock()

	for _, fn := range announcers {
		go fn()
	}

	timer := time.NewTimer(window)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}

	r.mu.Lock()
	delete(r.collectors, c)
	details := c.details
	injected := r.injected
	r.mu.Unlock()

	for _, d := range details {
		if match == nil || match(d.Info) {
			r.logger.Debug("provider discovered",
				zap.String("provider", d.Info.Name),
				zap.Int("announced", len(details)))
			return d.Provider, true
		}
	}

	if injected != nil {
		r.logger.Debug("using injected provider",
			zap.String("provider", injected.Info().Name),
			zap.Int("announced", len(details)))
		return injected, true
	}

	r.logger.Debug("no provider found", zap.Int("announced", len(details)))
	return nil, false
}
