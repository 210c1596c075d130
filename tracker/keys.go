package tracker

import (
	"errors"
	"strconv"
	"time"

	"github.com/ayoisaiah/annotrack/store"
)

// IdentityKey holds the username of the logged in annotator.
const IdentityKey = "username"

const totalTimePrefix = "totalTimeMinutes_"

func totalTimeKey(username string) string {
	return totalTimePrefix + username
}

func startTimeKey(username string) string {
	return "sessionStartTime_" + username
}

func saveCountKey(username string) string {
	return "sessionSaveCount_" + username
}

func annotationCountKey(username string) string {
	return "sessionTotalAnnotationCount_" + username
}

func lastResetKey(username string) string {
	return "lastWeekReset_" + username
}

func archivePrefix(username string) string {
	return "weeklyArchive_" + username + "_"
}

func archiveKey(username, weekStart string) string {
	return archivePrefix(username) + weekStart
}

// persistent reports whether the cached user owns persisted state.
func (t *Tracker) persistent() bool {
	return t.username != "" && t.username != Anonymous
}

// resolveUsername reads the logged in user from the store.
func (t *Tracker) resolveUsername() string {
	v, ok := t.getString(IdentityKey)
	if !ok || v == "" {
		return Anonymous
	}

	return v
}

func (t *Tracker) getString(key string) (string, bool) {
	v, err := t.kv.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.logger.Warn("unable to read tracking state",
				"key", key,
				"error", err,
			)
		}

		return "", false
	}

	return v, true
}

func (t *Tracker) getInt(key string) (int, bool) {
	v, ok := t.getString(key)
	if !ok {
		return 0, false
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		t.logger.Warn("ignoring malformed tracking value",
			"key", key,
			"value", v,
		)

		return 0, false
	}

	return i, true
}

func (t *Tracker) set(key, value string) {
	err := t.kv.Set(key, value)
	if err != nil {
		t.logger.Warn("unable to write tracking state",
			"key", key,
			"error", err,
		)
	}
}

func (t *Tracker) setInt(key string, value int) {
	t.set(key, strconv.Itoa(value))
}

func (t *Tracker) remove(keys ...string) {
	for _, key := range keys {
		err := t.kv.Remove(key)
		if err != nil {
			t.logger.Warn("unable to remove tracking state",
				"key", key,
				"error", err,
			)
		}
	}
}

// clearMarkers removes the persisted session markers of the cached user.
func (t *Tracker) clearMarkers() {
	if !t.persistent() {
		return
	}

	t.remove(
		startTimeKey(t.username),
		saveCountKey(t.username),
		annotationCountKey(t.username),
	)
}

// loadTotal returns the weekly total of the cached user. Users without
// persisted state keep their total in memory.
func (t *Tracker) loadTotal() int {
	if !t.persistent() {
		return t.totalTimeMinutes
	}

	total, _ := t.getInt(totalTimeKey(t.username))

	return total
}

// storedStart returns the persisted session start of the cached user.
func (t *Tracker) storedStart() (time.Time, bool) {
	if !t.persistent() {
		return time.Time{}, false
	}

	v, ok := t.getString(startTimeKey(t.username))
	if !ok {
		return time.Time{}, false
	}

	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		t.logger.Warn("ignoring malformed session start",
			"user", t.username,
			"value", v,
		)

		return time.Time{}, false
	}

	return time.UnixMilli(ms).In(t.clock.Now().Location()), true
}

// resume loads the persisted session of the cached user into memory. It
// reports whether a session was found.
func (t *Tracker) resume() bool {
	start, ok := t.storedStart()
	if !ok {
		return false
	}

	t.startTime = start
	t.saveCount, _ = t.getInt(saveCountKey(t.username))
	t.totalAnnotationCount, _ = t.getInt(annotationCountKey(t.username))

	return true
}
