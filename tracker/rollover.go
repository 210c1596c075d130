package tracker

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/ayoisaiah/annotrack/internal/timeutil"
)

// WeeklyArchive is the total of a finished week.
type WeeklyArchive struct {
	WeekStart    string    `json:"weekStart"`
	WeekEnd      string    `json:"weekEnd"`
	ArchivedAt   time.Time `json:"archivedAt"`
	TotalMinutes int       `json:"totalMinutes"`
}

// WeekInfo describes the current tracking week.
type WeekInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
	// IsNewWeek is set when the week has not been rolled over yet.
	IsNewWeek bool `json:"is_new_week"`
}

func (t *Tracker) lastWeekKey() (string, bool) {
	if !t.persistent() {
		return t.weekKey, t.weekKey != ""
	}

	return t.getString(lastResetKey(t.username))
}

func (t *Tracker) setWeekKey(key string) {
	t.weekKey = key

	if t.persistent() {
		t.set(lastResetKey(t.username), key)
	}
}

func (t *Tracker) weekInfo(now time.Time) WeekInfo {
	start, end := timeutil.WeekRange(timeutil.MondayOf(now))
	last, ok := t.lastWeekKey()

	return WeekInfo{
		Start:     start,
		End:       end,
		IsNewWeek: !ok || last != start,
	}
}

// CheckWeeklyRollover archives and resets the weekly total when the week has
// changed since the last reset. It reports whether a reset happened.
func (t *Tracker) CheckWeeklyRollover() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.checkRollover()
}

// checkRollover must be called with t.mu held.
func (t *Tracker) checkRollover() bool {
	if t.username == "" {
		return false
	}

	now := t.clock.Now()
	current := timeutil.WeekKey(now)

	last, ok := t.lastWeekKey()
	if ok && last == current {
		return false
	}

	closing := timeutil.MondayOf(now).AddDate(0, 0, -7)

	if ok {
		monday, err := timeutil.ParseDate(last, now.Location())
		if err == nil {
			closing = monday
		} else {
			t.logger.Warn("ignoring malformed week key",
				"user", t.username,
				"value", last,
			)
		}
	}

	t.archive(closing, now)
	t.resetWeek()
	t.setWeekKey(current)

	t.logger.Info("weekly reset completed",
		"user", t.username,
		"week_start", current,
	)

	t.notify(t.weekInfo(now))

	return true
}

// ForceWeeklyReset archives the current total under the current week and
// starts the week over.
func (t *Tracker) ForceWeeklyReset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.username == "" {
		return
	}

	now := t.clock.Now()

	t.archive(timeutil.MondayOf(now), now)
	t.resetWeek()
	t.setWeekKey(timeutil.WeekKey(now))

	t.logger.Info("weekly timer force reset", "user", t.username)

	t.notify(t.weekInfo(now))
}

// archive stores the weekly total of the cached user under the week starting
// on monday. Empty weeks are not archived.
func (t *Tracker) archive(monday, now time.Time) {
	if !t.persistent() {
		return
	}

	total := t.loadTotal()
	if total <= 0 {
		return
	}

	start, end := timeutil.WeekRange(monday)

	a := WeeklyArchive{
		WeekStart:    start,
		WeekEnd:      end,
		TotalMinutes: total,
		ArchivedAt:   now,
	}

	b, err := json.Marshal(a)
	if err != nil {
		t.logger.Warn("unable to encode weekly archive", "error", err)
		return
	}

	t.set(archiveKey(t.username, start), string(b))

	t.logger.Info("archived week",
		"user", t.username,
		"week_start", start,
		"week_end", end,
		"minutes", total,
	)
}

// resetWeek zeroes the weekly total and drops the active session.
func (t *Tracker) resetWeek() {
	t.totalTimeMinutes = 0

	if t.persistent() {
		t.setInt(totalTimeKey(t.username), 0)
	}

	t.clearMarkers()
	t.clearSession()
}

// WeeklyArchives returns the archived weeks of the current user, most recent
// first.
func (t *Tracker) WeeklyArchives() ([]WeeklyArchive, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.persistent() {
		return nil, nil
	}

	keys, err := t.kv.Keys(archivePrefix(t.username))
	if err != nil {
		return nil, err
	}

	archives := make([]WeeklyArchive, 0, len(keys))

	for _, k := range keys {
		v, ok := t.getString(k)
		if !ok {
			continue
		}

		var a WeeklyArchive

		err = json.Unmarshal([]byte(v), &a)
		if err != nil {
			t.logger.Error("unable to parse archived week",
				"key", k,
				"error", err,
			)

			continue
		}

		archives = append(archives, a)
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].WeekStart > archives[j].WeekStart
	})

	return archives, nil
}

// CurrentWeekInfo returns the bounds of the current week.
func (t *Tracker) CurrentWeekInfo() WeekInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.weekInfo(t.clock.Now())
}

// DaysUntilReset returns the number of days until the next weekly reset.
func (t *Tracker) DaysUntilReset() int {
	return timeutil.DaysUntilReset(t.clock.Now())
}

// IsMonday reports whether today is the first day of the tracking week.
func (t *Tracker) IsMonday() bool {
	return t.clock.Now().Weekday() == time.Monday
}

// SubscribeResets returns a channel that receives the new week every time the
// weekly total is reset, and a function that ends the subscription.
// Notifications are dropped for subscribers that have not drained the
// previous one.
func (t *Tracker) SubscribeResets() (<-chan WeekInfo, func()) {
	ch := make(chan WeekInfo, 1)

	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.mu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			close(ch)
			t.mu.Unlock()
		})
	}
}

// notify must be called with t.mu held.
func (t *Tracker) notify(info WeekInfo) {
	for _, ch := range t.subs {
		select {
		case ch <- info:
		default:
		}
	}
}
