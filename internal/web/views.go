package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/chainquiz/internal/quiz"
	"github.com/conorfennell/chainquiz/internal/reader"
)

// view is the server-side state of one open page. At most one of quiz and
// tracker is set.
type view struct {
	quiz    *quiz.Session
	tracker *reader.Tracker
	seen    time.Time
}

func (v *view) close() {
	if v.tracker != nil {
		v.tracker.Stop()
	}
}

// registry owns every open view, keyed by an opaque token.
type registry struct {
	idle   time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	views map[string]*view
}

func newRegistry(idle time.Duration, logger *slog.Logger) *registry {
	return &registry{
		idle:   idle,
		now:    time.Now,
		logger: logger,
		views:  make(map[string]*view),
	}
}

func (r *registry) add(v *view) string {
	token := uuid.NewString()
	r.mu.Lock()
	v.seen = r.now()
	r.views[token] = v
	r.mu.Unlock()
	return token
}

// get returns the view for token and marks it as seen, or nil.
func (r *registry) get(token string) *view {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[token]
	if !ok {
		return nil
	}
	v.seen = r.now()
	return v
}

func (r *registry) remove(token string) bool {
	r.mu.Lock()
	v, ok := r.views[token]
	delete(r.views, token)
	r.mu.Unlock()
	if ok {
		v.close()
	}
	return ok
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// reap closes views not seen within the idle timeout.
func (r *registry) reap() int {
	cutoff := r.now().Add(-r.idle)
	var stale []*view

	r.mu.Lock()
	for token, v := range r.views {
		if v.seen.Before(cutoff) {
			stale = append(stale, v)
			delete(r.views, token)
		}
	}
	r.mu.Unlock()

	for _, v := range stale {
		v.close()
	}
	if len(stale) > 0 {
		r.logger.Debug("Reaped idle views", "count", len(stale))
	}
	return len(stale)
}

// run reaps periodically until ctx is done, then closes every view.
func (r *registry) run(ctx context.Context) {
	interval := r.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *registry) closeAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*view)
	r.mu.Unlock()
	for _, v := range views {
		v.close()
	}
}
