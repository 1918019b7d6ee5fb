package chatsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-intake/internal/domain"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// server is an in-memory conversation that answers cursor queries.
type server struct {
	mu       sync.Mutex
	messages []domain.Message
	calls    []int64
}

func (s *server) add(body string, fromAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, domain.Message{
		Position:  int64(len(s.messages)) + 1,
		Body:      body,
		FromAdmin: fromAdmin,
	})
}

func (s *server) fetch(_ context.Context, cursor int64, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, cursor)
	var out []domain.Message
	for _, m := range s.messages {
		if m.Position > cursor && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *server) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func startLoop(t *testing.T, fetch Fetcher, cfg Config) *Loop {
	t.Helper()
	loop := New(fetch, cfg)
	go func() { _ = loop.Run(context.Background()) }()
	t.Cleanup(loop.Stop)
	return loop
}

func TestLoop_TwoCursorScenario(t *testing.T) {
	srv := &server{}
	srv.add("Hello", false)

	var batches [][]domain.Message
	var mu sync.Mutex
	loop := startLoop(t, srv.fetch, Config{
		Interval: time.Hour,
		OnChange: func(added []domain.Message) {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, added)
		},
	})

	require.Eventually(t, func() bool { return loop.Cursor() == 1 }, waitFor, tick)

	srv.add("Hi, how can I help?", true)
	loop.Trigger()
	require.Eventually(t, func() bool { return loop.Cursor() == 2 }, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 2)
	require.Len(t, batches[0], 1)
	require.Len(t, batches[1], 1)
	assert.Equal(t, "Hello", batches[0][0].Body)
	assert.Equal(t, "Hi, how can I help?", batches[1][0].Body)
	assert.Len(t, loop.Messages(), 2)
	assert.Equal(t, StateIdle, loop.State())
}

func TestLoop_PagesUntilShortPage(t *testing.T) {
	srv := &server{}
	for i := 0; i < 5; i++ {
		srv.add("m", false)
	}
	loop := startLoop(t, srv.fetch, Config{Interval: time.Hour, PageLimit: 2})

	require.Eventually(t, func() bool { return loop.Cursor() == 5 }, waitFor, tick)
	require.Eventually(t, func() bool { return srv.callCount() == 3 }, waitFor, tick)

	srv.mu.Lock()
	assert.Equal(t, []int64{0, 2, 4}, srv.calls)
	srv.mu.Unlock()
}

func TestLoop_MergeIsIdempotent(t *testing.T) {
	page := []domain.Message{{Position: 1, Body: "a"}, {Position: 2, Body: "b"}}
	fetch := func(context.Context, int64, int) ([]domain.Message, error) {
		return page, nil
	}
	loop := startLoop(t, fetch, Config{Interval: 10 * time.Millisecond})

	require.Eventually(t, func() bool { return loop.Cursor() == 2 }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, loop.Messages(), 2)
}

func TestLoop_SkipsTicksWhileFetching(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context, _ int64, _ int) ([]domain.Message, error) {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, nil
	}
	loop := startLoop(t, fetch, Config{Interval: 5 * time.Millisecond, FetchTimeout: time.Minute})

	require.Eventually(t, func() bool { return loop.Skipped() >= 3 }, waitFor, tick)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StateFetching, loop.State())
	close(release)
}

func TestLoop_TriggerDuringFetchRunsAnotherRound(t *testing.T) {
	srv := &server{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context, cursor int64, limit int) ([]domain.Message, error) {
		page, err := srv.fetch(ctx, cursor, limit)
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return page, err
	}
	loop := startLoop(t, fetch, Config{Interval: time.Hour, FetchTimeout: time.Minute})

	<-entered
	srv.add("Hello", false)
	loop.Trigger()
	close(release)

	require.Eventually(t, func() bool { return loop.Cursor() == 1 }, waitFor, tick)
	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, loop.Skipped())
	assert.Equal(t, "Hello", loop.Messages()[0].Body)
}

func TestLoop_TimeoutEntersErrorAndRecovers(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	var reported atomic.Int32
	fetch := func(ctx context.Context, _ int64, _ int) ([]domain.Message, error) {
		if fail.Load() {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []domain.Message{{Position: 1}}, nil
	}
	loop := startLoop(t, fetch, Config{
		Interval:     time.Hour,
		FetchTimeout: 10 * time.Millisecond,
		OnError:      func(error) { reported.Add(1) },
	})

	require.Eventually(t, loop.Disconnected, waitFor, tick)
	assert.True(t, apperrors.HasCode(loop.LastError(), apperrors.CodeTransient))
	assert.Equal(t, int32(1), reported.Load())

	fail.Store(false)
	loop.Trigger()
	require.Eventually(t, func() bool { return loop.Cursor() == 1 }, waitFor, tick)
	assert.False(t, loop.Disconnected())
	assert.NoError(t, loop.LastError())
}

func TestLoop_FailureKeepsPolling(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context, int64, int) ([]domain.Message, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	}
	loop := startLoop(t, fetch, Config{Interval: 10 * time.Millisecond})

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, waitFor, tick)
	assert.True(t, loop.Disconnected())
}

func TestLoop_StopDiscardsInFlightResult(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context, int64, int) ([]domain.Message, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return []domain.Message{{Position: 1}}, nil
	}
	loop := New(fetch, Config{Interval: 5 * time.Millisecond})
	go func() { _ = loop.Run(context.Background()) }()
	<-entered

	stopped := make(chan struct{})
	go func() {
		loop.Stop()
		close(stopped)
	}()
	require.Eventually(t, func() bool { return loop.State() == StateStopped }, waitFor, tick)
	close(release)
	<-stopped

	assert.Empty(t, loop.Messages())
	before := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, calls.Load())
	assert.ErrorIs(t, loop.Run(context.Background()), ErrStopped)
}

func TestLoop_ContextCancelStops(t *testing.T) {
	srv := &server{}
	loop := New(srv.fetch, Config{Interval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.callCount() > 0 }, waitFor, tick)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, StateStopped, loop.State())
}
