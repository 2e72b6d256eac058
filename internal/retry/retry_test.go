package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsukang/momentum-trader/internal/domain"
)

func noSleep(t *testing.T) (Sleeper, *[]time.Duration) {
	t.Helper()
	var slept []time.Duration
	return func(d time.Duration) { slept = append(slept, d) }, &slept
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	sleep, slept := noSleep(t)
	attempts, err := Do(func() error { return nil }, 3, Linear(time.Second), domain.IsRetryable, sleep)

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *slept)
}

func TestDo_TransientThenSuccess(t *testing.T) {
	sleep, slept := noSleep(t)
	calls := 0
	op := func() error {
		calls++
		if calls < 3 {
			return domain.Errorf(domain.KindRetryable, "kis.PlaceMarketSell", "connection reset")
		}
		return nil
	}

	attempts, err := Do(op, 3, Linear(time.Second), domain.IsRetryable, sleep)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// Linear backoff: 1s before attempt 2, 2s before attempt 3.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestDo_TerminalStopsImmediately(t *testing.T) {
	sleep, slept := noSleep(t)
	calls := 0
	op := func() error {
		calls++
		return domain.Errorf(domain.KindTerminal, "kis.PlaceLimitBuy", "insufficient balance")
	}

	attempts, err := Do(op, 3, Linear(time.Second), domain.IsRetryable, sleep)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
	assert.True(t, domain.IsTerminal(err))
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sleep, _ := noSleep(t)
	wantErr := errors.New("timeout")
	attempts, err := Do(func() error { return wantErr }, 3, Linear(time.Second), domain.IsRetryable, sleep)

	assert.Equal(t, 3, attempts)
	assert.Equal(t, wantErr, err)
}

func TestDo_MaxAttemptsFloor(t *testing.T) {
	sleep, _ := noSleep(t)
	attempts, err := Do(func() error { return errors.New("nope") }, 0, nil, nil, sleep)
	assert.Equal(t, 1, attempts)
	assert.Error(t, err)
}

func TestLinear(t *testing.T) {
	b := Linear(500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, b(1))
	assert.Equal(t, time.Second, b(2))
	assert.Equal(t, 1500*time.Millisecond, b(3))
}
