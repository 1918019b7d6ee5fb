// Package chatsync keeps a local view of one conversation up to date by
// polling the message store.
package chatsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-intake/internal/domain"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

// State is the observable condition of a Loop.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateError
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateError:
		return "error"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Fetcher returns up to limit messages with position greater than cursor, in
// ascending order. It must return promptly once ctx is done; the loop stays in
// StateFetching until it does.
type Fetcher func(ctx context.Context, cursor int64, limit int) ([]domain.Message, error)

// Config tunes a Loop. Callbacks run on the fetch goroutine and must not call
// Stop.
type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	PageLimit    int
	Logger       *zap.Logger
	OnChange     func(added []domain.Message)
	OnError      func(err error)
}

// ErrStopped is returned by Run on a loop that was already stopped.
var ErrStopped = errors.New("sync loop stopped")

// Loop polls a Fetcher on a fixed interval and merges the results into an
// ordered local view. Overlapping ticks are dropped, not queued.
type Loop struct {
	fetch Fetcher
	cfg   Config

	inFlight atomic.Bool
	pending  atomic.Bool
	skipped  atomic.Int64
	trigger  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu          sync.Mutex
	state       State
	messages    []domain.Message
	cursor      int64
	lastErr     error
	stopped     bool
	running     bool
	done        chan struct{}
	cancelFetch context.CancelFunc
}

// New builds a Loop. Zero config values fall back to a 5s interval, a 10s
// fetch timeout and 50 messages per page.
func New(fetch Fetcher, cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 50
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Loop{
		fetch:   fetch,
		cfg:     cfg,
		trigger: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

// Run fetches immediately and then on every tick until ctx ends or Stop is
// called.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	if l.running {
		l.mu.Unlock()
		return errors.New("sync loop already running")
	}
	l.running = true
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	defer close(done)
	defer l.wg.Wait()

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	l.launch(ctx, false)
	for {
		select {
		case <-ticker.C:
			l.launch(ctx, false)
		case <-l.trigger:
			l.launch(ctx, true)
		case <-l.stopCh:
			return nil
		case <-ctx.Done():
			l.halt()
			return ctx.Err()
		}
	}
}

// Trigger asks for a fetch now, typically right after a local send. If a
// fetch is already running, one more round follows it.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Stop halts the loop. Once it returns no fetch is running or will start and
// any result still in flight has been discarded.
func (l *Loop) Stop() {
	l.halt()
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
	l.wg.Wait()
}

// State reports the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Disconnected is true while the most recent fetch has failed.
func (l *Loop) Disconnected() bool {
	return l.State() == StateError
}

// LastError returns the failure behind the Error state, if any.
func (l *Loop) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Messages returns a copy of the local view in position order.
func (l *Loop) Messages() []domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Message(nil), l.messages...)
}

// Cursor is the highest position held locally.
func (l *Loop) Cursor() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Skipped counts ticks dropped because a fetch was still running.
func (l *Loop) Skipped() int64 {
	return l.skipped.Load()
}

func (l *Loop) halt() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.state = StateStopped
		if l.cancelFetch != nil {
			l.cancelFetch()
		}
		l.mu.Unlock()
		close(l.stopCh)
	})
}

func (l *Loop) launch(ctx context.Context, requested bool) {
	if !l.inFlight.CompareAndSwap(false, true) {
		if requested {
			l.pending.Store(true)
			return
		}
		l.skipped.Add(1)
		l.cfg.Logger.Debug("sync tick skipped, fetch in flight")
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.inFlight.Store(false)
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()
	go l.poll(ctx)
}

// poll runs fetch rounds while triggers keep arriving. inFlight is held for
// the whole time, so at most one fetch is outstanding.
func (l *Loop) poll(parent context.Context) {
	defer l.wg.Done()

	for {
		if stopped := l.round(parent); stopped {
			l.inFlight.Store(false)
			return
		}
		if l.pending.Swap(false) {
			continue
		}
		l.inFlight.Store(false)
		// A trigger may have landed between the check above and the release.
		if !l.pending.Swap(false) || !l.inFlight.CompareAndSwap(false, true) {
			return
		}
	}
}

// round fetches pages until a short page arrives. It reports whether the loop
// was stopped meanwhile.
func (l *Loop) round(parent context.Context) bool {
	for {
		ctx, cancel := context.WithTimeout(parent, l.cfg.FetchTimeout)
		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			cancel()
			return true
		}
		l.cancelFetch = cancel
		l.state = StateFetching
		cursor := l.cursor
		l.mu.Unlock()

		page, err := l.fetch(ctx, cursor, l.cfg.PageLimit)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = apperrors.NewTransientFailure(err)
		}
		cancel()

		l.mu.Lock()
		l.cancelFetch = nil
		if l.stopped {
			l.mu.Unlock()
			return true
		}
		if err != nil {
			l.state = StateError
			l.lastErr = err
			l.mu.Unlock()
			l.cfg.Logger.Warn("sync fetch failed", zap.Int64("cursor", cursor), zap.Error(err))
			if l.cfg.OnError != nil {
				l.cfg.OnError(err)
			}
			return false
		}
		added := l.merge(page)
		l.state = StateIdle
		l.lastErr = nil
		l.mu.Unlock()

		if len(added) > 0 && l.cfg.OnChange != nil {
			l.cfg.OnChange(added)
		}
		if len(page) < l.cfg.PageLimit || len(added) == 0 {
			return false
		}
	}
}

// merge appends messages beyond the cursor. Callers hold mu.
func (l *Loop) merge(page []domain.Message) []domain.Message {
	var added []domain.Message
	for _, msg := range page {
		if msg.Position <= l.cursor {
			continue
		}
		l.messages = append(l.messages, msg)
		l.cursor = msg.Position
		added = append(added, msg)
	}
	return added
}
