package tracker

import (
	"context"
	"time"

	"github.com/ayoisaiah/annotrack/internal/timeutil"
)

// SessionDuration emits the weekly total plus the elapsed time of the active
// session, formatted as HH:MM:SS, once per tick until ctx is cancelled. Every
// call starts its own ticker. Ticks that arrive while the receiver is busy are
// dropped. The channel is closed when ctx is done.
func (t *Tracker) SessionDuration(ctx context.Context) <-chan string {
	out := make(chan string)
	ticker := t.clock.NewTicker(t.tickInterval)

	go func() {
		defer close(out)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				v := timeutil.FormatHMS(t.tick())

				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// tick refreshes the tracker from the store and returns the duration to
// display.
func (t *Tracker) tick() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	username := t.resolveUsername()
	if username != t.username {
		t.switchUser(username)
	}

	t.checkRollover()

	// a session started by another process since the last tick
	if t.startTime.IsZero() {
		t.resume()
	}

	t.totalTimeMinutes = t.loadTotal()

	total := time.Duration(t.totalTimeMinutes) * time.Minute

	if !t.startTime.IsZero() {
		total += t.clock.Since(t.startTime)
	}

	return total
}

// CurrentSessionDuration returns the elapsed time of the active session, or
// zero when there is none.
func (t *Tracker) CurrentSessionDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.startTime
	if start.IsZero() {
		var ok bool

		start, ok = t.storedStart()
		if !ok {
			return 0
		}
	}

	return t.clock.Since(start)
}
