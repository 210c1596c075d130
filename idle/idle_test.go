package idle_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/ayoisaiah/annotrack/idle"
)

func setup(timeout time.Duration) (*idle.Watchdog, *clockwork.FakeClock, chan struct{}) {
	clock := clockwork.NewFakeClock()
	expired := make(chan struct{}, 4)

	w := idle.New(
		timeout,
		func() { expired <- struct{}{} },
		idle.WithClock(clock),
		idle.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	return w, clock, expired
}

func expectExpiry(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected the watchdog to expire")
	}
}

func expectNoExpiry(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
		t.Fatal("watchdog expired unexpectedly")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDefaultTimeout(t *testing.T) {
	w := idle.New(0, nil)

	assert.Equal(t, 5*time.Minute, w.Timeout())
	assert.False(t, w.Armed())
}

func TestExpiresAfterTimeout(t *testing.T) {
	w, clock, expired := setup(5 * time.Minute)

	w.Touch()
	assert.True(t, w.Armed())

	clock.Advance(5*time.Minute - time.Second)
	expectNoExpiry(t, expired)

	clock.Advance(time.Second)
	expectExpiry(t, expired)

	assert.False(t, w.Armed())
}

func TestTouchRestartsCountdown(t *testing.T) {
	w, clock, expired := setup(5 * time.Minute)

	w.Touch()
	clock.Advance(4 * time.Minute)

	w.Touch()
	clock.Advance(4 * time.Minute)
	expectNoExpiry(t, expired)

	clock.Advance(time.Minute)
	expectExpiry(t, expired)
}

func TestExpiresOncePerArming(t *testing.T) {
	w, clock, expired := setup(time.Minute)

	w.Touch()
	clock.Advance(time.Minute)
	expectExpiry(t, expired)

	clock.Advance(10 * time.Minute)
	expectNoExpiry(t, expired)

	w.Touch()
	clock.Advance(time.Minute)
	expectExpiry(t, expired)
}

func TestStopDisarms(t *testing.T) {
	w, clock, expired := setup(time.Minute)

	w.Touch()
	w.Stop()

	assert.False(t, w.Armed())

	clock.Advance(time.Hour)
	expectNoExpiry(t, expired)
}
