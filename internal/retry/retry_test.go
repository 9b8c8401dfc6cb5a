package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRetrier(t *testing.T, cfg Config) (*Retrier, *[]time.Duration, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(cfg, zap.New(core))

	var slept []time.Duration
	r.waitFor = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return r, &slept, logs
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	r, slept, logs := newTestRetrier(t, Config{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond})

	calls := 0
	got, err := Do(context.Background(), r, "judge", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("503 model overloaded"))
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)

	retries := logs.FilterMessage("transient failure, retrying").All()
	require.Len(t, retries, 2)
	assert.Equal(t, "judge", retries[0].ContextMap()["operation"])
	assert.EqualValues(t, 1, retries[0].ContextMap()["attempt"])
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	r, slept, _ := newTestRetrier(t, Config{MaxAttempts: 3, BaseDelay: time.Second})

	cause := errors.New("service unavailable, try again later")
	calls := 0
	_, err := Do(context.Background(), r, "judge", func(context.Context) (int, error) {
		calls++
		return 0, cause
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 3, unavailable.Attempts)
	assert.Equal(t, "judge", unavailable.Operation)
}

type schemaBug struct{}

func (schemaBug) Error() string { return "schema file missing" }

func TestDoDoesNotRetryTerminalErrors(t *testing.T) {
	r, slept, logs := newTestRetrier(t, Config{MaxAttempts: 5, BaseDelay: time.Second})

	calls := 0
	_, err := Do(context.Background(), r, "judge", func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("load: %w", schemaBug{})
	})

	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
	assert.ErrorIs(t, err, ErrUnavailable)

	var bug schemaBug
	assert.ErrorAs(t, err, &bug)
	assert.Equal(t, 1, logs.FilterMessage("operation failed with non-retryable error").Len())
}

func TestDoStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	r, _, _ := newTestRetrier(t, Config{MaxAttempts: 5, BaseDelay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	r.waitFor = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	calls := 0
	_, err := Do(ctx, r, "judge", func(context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("overloaded"))
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, calls)
}

func TestBackoffIsCapped(t *testing.T) {
	r := New(Config{MaxAttempts: 10, BaseDelay: time.Second, MaxBackoff: 5 * time.Second}, nil)

	assert.Equal(t, time.Second, r.Backoff(0))
	assert.Equal(t, 2*time.Second, r.Backoff(1))
	assert.Equal(t, 4*time.Second, r.Backoff(2))
	assert.Equal(t, 5*time.Second, r.Backoff(3))
	assert.Equal(t, 5*time.Second, r.Backoff(30))
}

func TestNewAppliesDefaults(t *testing.T) {
	r := New(Config{}, nil)
	assert.Equal(t, 3, r.Config().MaxAttempts)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "explicit", err: NewTransientError(errors.New("boom")), want: true},
		{name: "net error", err: fmt.Errorf("post: %w", timeoutErr{}), want: true},
		{name: "unexpected eof", err: fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), want: true},
		{name: "overloaded message", err: errors.New("The model is overloaded."), want: true},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "canceled", err: fmt.Errorf("call: %w", context.Canceled), want: false},
		{name: "caller deadline", err: context.DeadlineExceeded, want: false},
		{name: "wrapped caller deadline", err: fmt.Errorf("generate content: %w", context.DeadlineExceeded), want: false},
		{name: "already unavailable", err: &UnavailableError{Operation: "x", Attempts: 1, Err: errors.New("e")}, want: false},
		{name: "plain", err: errors.New("invalid argument"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}
