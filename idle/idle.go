// Package idle detects user inactivity.
package idle

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTimeout is the inactivity period after which a user is logged out.
const DefaultTimeout = 5 * time.Minute

// Watchdog calls a function once the user has been inactive for the
// configured timeout. Activity is reported with Touch.
type Watchdog struct {
	clock    clockwork.Clock
	timer    clockwork.Timer
	onExpire func()
	logger   *slog.Logger
	timeout  time.Duration
	// generation identifies the current arming so that a timer that fires
	// after being replaced is ignored.
	generation int
	mu         sync.Mutex
}

// Option configures a Watchdog.
type Option func(*Watchdog)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(w *Watchdog) {
		w.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watchdog) {
		w.logger = l
	}
}

// New returns a disarmed Watchdog that calls onExpire after timeout of
// inactivity. A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration, onExpire func(), opts ...Option) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	w := &Watchdog{
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		timeout:  timeout,
		onExpire: onExpire,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Timeout returns the inactivity period.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Touch records user activity. It arms the watchdog, restarting the
// countdown if it was already running.
func (w *Watchdog) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.disarm()

	w.generation++
	gen := w.generation

	w.timer = w.clock.AfterFunc(w.timeout, func() {
		w.expire(gen)
	})
}

// Stop disarms the watchdog. A later Touch arms it again.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.disarm()
	w.generation++
}

// Armed reports whether a countdown is running.
func (w *Watchdog) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.timer != nil
}

// disarm must be called with w.mu held.
func (w *Watchdog) disarm() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watchdog) expire(gen int) {
	w.mu.Lock()

	if gen != w.generation || w.timer == nil {
		w.mu.Unlock()
		return
	}

	w.timer = nil
	w.mu.Unlock()

	w.logger.Info("user inactive, timeout reached", "timeout", w.timeout)

	if w.onExpire != nil {
		w.onExpire()
	}
}
