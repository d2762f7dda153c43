// Package reader decides when a reader has earned credit for an article.
//
// A Tracker counts dwell seconds while an article is mounted and watches the
// reader's scroll position. Once the reader has spent at least the article's
// read time on the page and reached the bottom, it fires one view increment
// and one reward call. The fired flag is permanent for the life of the
// tracker, so a mount can never be rewarded twice.
package reader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/conorfennell/chainquiz/internal/domain"
)

// DefaultRewardMessage is shown when the reward transaction carries no message.
const DefaultRewardMessage = "You have been rewarded for reading the article!"

// Rewarder is the part of the article contract the tracker calls.
type Rewarder interface {
	IncrementView(ctx context.Context, articleID uint64) error
	RewardUser(ctx context.Context, user common.Address, articleID uint64) (string, error)
}

// ScrollPosition is one observation of the article viewport.
type ScrollPosition struct {
	Top           float64
	ClientHeight  float64
	ContentHeight float64
}

// AtBottom reports whether the viewport reaches the end of the content.
func (p ScrollPosition) AtBottom() bool {
	return p.Top+p.ClientHeight >= p.ContentHeight
}

// Status is a snapshot of a tracker for rendering.
type Status struct {
	ArticleID     uint64
	Dwell         int
	Required      int
	ReachedBottom bool
	Fired         bool
	Settled       bool // both fired calls have returned
	Views         uint64
	Message       string
	Errors        []string
	Running       bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval overrides the one-second dwell tick.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) { t.interval = d }
}

// WithLogger sets the tracker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// Tracker is the read session of one article mount.
type Tracker struct {
	articleID uint64
	account   common.Address
	required  int // seconds
	rewarder  Rewarder
	interval  time.Duration
	logger    *slog.Logger

	mu            sync.Mutex
	dwell         int
	reachedBottom bool
	fired         bool
	settled       bool
	views         uint64
	message       string
	errs          []string

	callCtx context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	calls   sync.WaitGroup
}

// New creates a tracker for article on behalf of account.
func New(article domain.Article, account common.Address, rewarder Rewarder, opts ...Option) *Tracker {
	t := &Tracker{
		articleID: article.ID,
		account:   account,
		required:  article.ReadTime * 60,
		rewarder:  rewarder,
		interval:  time.Second,
		logger:    slog.Default(),
		views:     article.Views,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("article_id", article.ID)
	return t
}

// Start begins dwell ticking. Reward calls issued by the tracker run under
// ctx, which outlives Stop. Start has no effect on a tracker already started.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.done != nil {
		t.mu.Unlock()
		return
	}
	tickCtx, cancel := context.WithCancel(ctx)
	t.callCtx = ctx
	t.cancel = cancel
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.run(tickCtx)
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Both channels may be ready; never tick after cancellation.
			if ctx.Err() != nil {
				return
			}
			t.tick()
		}
	}
}

// Stop ends dwell ticking and waits for the tick loop to exit. No tick is
// counted after Stop returns. Calls already fired keep running; use Wait to
// block on them.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the fired contract calls have returned.
func (t *Tracker) Wait() {
	t.calls.Wait()
}

func (t *Tracker) tick() {
	t.mu.Lock()
	t.dwell++
	fire := t.evaluate()
	t.mu.Unlock()
	if fire {
		t.fire()
	}
}

// Scrolled records a scroll observation.
func (t *Tracker) Scrolled(pos ScrollPosition) {
	if !pos.AtBottom() {
		return
	}
	t.mu.Lock()
	t.reachedBottom = true
	fire := t.evaluate()
	t.mu.Unlock()
	if fire {
		t.fire()
	}
}

// evaluate reports whether the trigger condition holds now and, if so,
// latches the tracker. Callers hold t.mu.
func (t *Tracker) evaluate() bool {
	if t.fired || !t.reachedBottom || t.dwell < t.required {
		return false
	}
	t.fired = true
	t.reachedBottom = false
	return true
}

func (t *Tracker) fire() {
	t.mu.Lock()
	ctx := t.callCtx
	t.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	t.logger.Info("Read condition met, issuing view and reward", "account", t.account.Hex())
	t.calls.Add(1)
	go func() {
		defer t.calls.Done()
		defer func() {
			t.mu.Lock()
			t.settled = true
			t.mu.Unlock()
		}()

		if err := t.rewarder.IncrementView(ctx, t.articleID); err != nil {
			t.logger.Warn("Failed to increment views", "error", err)
			t.recordError("Failed to increment views. Please try again.")
		} else {
			t.mu.Lock()
			t.views++
			t.mu.Unlock()
		}

		msg, err := t.rewarder.RewardUser(ctx, t.account, t.articleID)
		if err != nil {
			t.logger.Warn("Failed to reward reader", "error", err)
			t.recordError("Failed to reward the user. Please try again.")
			return
		}
		if msg == "" {
			msg = DefaultRewardMessage
		}
		t.mu.Lock()
		t.message = msg
		t.mu.Unlock()
	}()
}

func (t *Tracker) recordError(msg string) {
	t.mu.Lock()
	t.errs = append(t.errs, msg)
	t.mu.Unlock()
}

// Status returns a snapshot of the tracker.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	running := false
	if t.done != nil {
		select {
		case <-t.done:
		default:
			running = true
		}
	}
	return Status{
		ArticleID:     t.articleID,
		Dwell:         t.dwell,
		Required:      t.required,
		ReachedBottom: t.reachedBottom,
		Fired:         t.fired,
		Settled:       t.settled,
		Views:         t.views,
		Message:       t.message,
		Errors:        append([]string(nil), t.errs...),
		Running:       running,
	}
}
