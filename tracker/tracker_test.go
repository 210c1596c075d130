package tracker_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/annotrack/internal/testutil"
	"github.com/ayoisaiah/annotrack/store"
	"github.com/ayoisaiah/annotrack/tracker"
	"github.com/ayoisaiah/annotrack/upload"
)

// 2024-01-08 is a Monday.
var mondayMorning = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

type fakeUploader struct {
	err      error
	payloads []upload.Payload
	mu       sync.Mutex
}

func (f *fakeUploader) Upload(_ context.Context, p upload.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.payloads = append(f.payloads, p)

	return f.err
}

func (f *fakeUploader) calls() []upload.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]upload.Payload(nil), f.payloads...)
}

// countingKV records how many times each key is written.
type countingKV struct {
	store.KV
	sets map[string]int
	mu   sync.Mutex
}

func (c *countingKV) Set(key, value string) error {
	c.mu.Lock()
	c.sets[key]++
	c.mu.Unlock()

	return c.KV.Set(key, value)
}

func (c *countingKV) writes(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sets[key]
}

type env struct {
	tracker  *tracker.Tracker
	kv       *countingKV
	clock    *clockwork.FakeClock
	uploader *fakeUploader
}

func (e *env) newTracker() *tracker.Tracker {
	return tracker.New(
		e.kv,
		tracker.WithClock(e.clock),
		tracker.WithUploader(e.uploader),
		tracker.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (e *env) get(t *testing.T, key string) string {
	t.Helper()

	v, err := e.kv.Get(key)
	require.NoError(t, err, key)

	return v
}

func (e *env) missing(t *testing.T, key string) {
	t.Helper()

	_, err := e.kv.Get(key)
	assert.ErrorIs(t, err, store.ErrNotFound, key)
}

func setupAt(t *testing.T, username string, at time.Time) *env {
	t.Helper()

	e := &env{
		kv:       &countingKV{KV: store.NewMemory(), sets: make(map[string]int)},
		clock:    clockwork.NewFakeClockAt(at),
		uploader: &fakeUploader{},
	}

	if username != "" {
		require.NoError(t, e.kv.Set(tracker.IdentityKey, username))
	}

	e.tracker = e.newTracker()

	return e
}

func setup(t *testing.T, username string) *env {
	t.Helper()

	return setupAt(t, username, mondayMorning)
}

type goldenRecord struct {
	name string
	csv  string
}

func (g goldenRecord) Output() ([]byte, string) {
	return []byte(g.csv), g.name
}

func TestStopSessionUploadsRecord(t *testing.T) {
	e := setup(t, "alice")

	e.tracker.StartSessionTracking()

	for i := 15; i <= 17; i++ {
		e.tracker.TrackSuccessfulSave(i)
	}

	e.clock.Advance(42 * time.Minute)

	rec := e.tracker.StopSessionTracking(context.Background(), false, 17)
	require.NotNil(t, rec)

	assert.Equal(t, 42, rec.DurationMinutes)
	assert.Equal(t, 3, rec.SaveCount)
	assert.Equal(t, 42, rec.WeeklyTotalMinutes)
	assert.True(t, rec.UploadAttempted)
	assert.True(t, rec.Uploaded)
	assert.Equal(t, "42", e.get(t, "totalTimeMinutes_alice"))

	testutil.CompareGoldenFile(t, goldenRecord{
		name: "stop_record",
		csv:  rec.CSV(),
	})

	calls := e.uploader.calls()
	require.Len(t, calls, 1)

	want := upload.Payload{
		CSV:      rec.CSV(),
		Filename: "tracking_alice.csv",
	}

	if diff := cmp.Diff(want, calls[0]); diff != "" {
		t.Errorf("unexpected payload (-want +got):\n%s", diff)
	}

	e.missing(t, "sessionStartTime_alice")
	e.missing(t, "sessionSaveCount_alice")
	e.missing(t, "sessionTotalAnnotationCount_alice")
	assert.False(t, e.tracker.IsSessionActive())
}

func TestWeeklyTotalGrowsByRoundedMinutes(t *testing.T) {
	testCases := []struct {
		Name    string
		Elapsed time.Duration
		Want    int
	}{
		{Name: "immediate stop", Elapsed: 0, Want: 0},
		{Name: "under half a minute", Elapsed: 29 * time.Second, Want: 0},
		{Name: "half a minute rounds up", Elapsed: 30 * time.Second, Want: 1},
		{Name: "whole minutes", Elapsed: 42 * time.Minute, Want: 42},
		{Name: "rounds down", Elapsed: 90*time.Minute + 29*time.Second, Want: 90},
		{Name: "several hours", Elapsed: 3*time.Hour + 31*time.Second, Want: 181},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			e := setup(t, "alice")

			require.NoError(t, e.kv.Set("totalTimeMinutes_alice", "100"))

			e.tracker.StartSessionTracking()
			e.clock.Advance(tc.Elapsed)
			e.tracker.StopSessionTracking(context.Background(), false, 0)

			assert.Equal(t, 100+tc.Want, e.tracker.WeeklyTotal())
			assert.Equal(t, 100+tc.Want, mustAtoi(t, e.get(t, "totalTimeMinutes_alice")))
		})
	}
}

func TestUploadConditions(t *testing.T) {
	testCases := []struct {
		Name       string
		Saves      int
		Total      int
		Force      bool
		WantUpload bool
	}{
		{Name: "no activity", WantUpload: false},
		{Name: "forced without activity", Force: true, WantUpload: true},
		{Name: "saves only", Saves: 2, WantUpload: true},
		{Name: "annotation total only", Total: 5, WantUpload: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			e := setup(t, "alice")

			e.tracker.StartSessionTracking()

			for i := 0; i < tc.Saves; i++ {
				e.tracker.TrackSuccessfulSave(0)
			}

			e.clock.Advance(5 * time.Minute)

			rec := e.tracker.StopSessionTracking(
				context.Background(),
				tc.Force,
				tc.Total,
			)
			require.NotNil(t, rec)

			assert.Equal(t, tc.WantUpload, rec.UploadAttempted)

			if tc.WantUpload {
				assert.Len(t, e.uploader.calls(), 1)
			} else {
				assert.Empty(t, e.uploader.calls())
			}

			// the weekly total is updated whether or not the record is sent
			assert.Equal(t, 5, e.tracker.WeeklyTotal())
		})
	}
}

func TestSaveCountMatchesSaves(t *testing.T) {
	for _, k := range []int{1, 4, 11} {
		e := setup(t, "alice")

		e.tracker.StartSessionTracking()

		for i := 0; i < k; i++ {
			e.tracker.TrackSuccessfulSave(i + 1)
		}

		rec := e.tracker.StopSessionTracking(context.Background(), false, k)
		require.NotNil(t, rec)

		lines := strings.Split(rec.CSV(), "\n")
		require.Len(t, lines, 2)

		fields := strings.Split(lines[1], ",")
		require.Len(t, fields, 6)
		assert.Equal(t, mustItoa(k), fields[4])
	}
}

func TestUploadFailureStillResetsSession(t *testing.T) {
	e := setup(t, "alice")
	e.uploader.err = errors.New("connection refused")

	e.tracker.StartSessionTracking()
	e.tracker.TrackSuccessfulSave(1)
	e.clock.Advance(10 * time.Minute)

	rec := e.tracker.StopSessionTracking(context.Background(), false, 1)
	require.NotNil(t, rec)

	assert.True(t, rec.UploadAttempted)
	assert.False(t, rec.Uploaded)
	assert.False(t, e.tracker.IsSessionActive())
	assert.Equal(t, 10, e.tracker.WeeklyTotal())
	assert.Len(t, e.uploader.calls(), 1)
}

func TestStopWithoutStart(t *testing.T) {
	e := setup(t, "alice")

	require.NoError(t, e.kv.Set("sessionSaveCount_alice", "3"))
	require.NoError(t, e.kv.Set("sessionTotalAnnotationCount_alice", "9"))

	rec := e.tracker.StopSessionTracking(context.Background(), true, 0)

	assert.Nil(t, rec)
	assert.Empty(t, e.uploader.calls())
	e.missing(t, "sessionSaveCount_alice")
	e.missing(t, "sessionTotalAnnotationCount_alice")
	assert.Equal(t, 0, e.tracker.WeeklyTotal())
}

func TestStartWhileActiveIsNoop(t *testing.T) {
	e := setup(t, "alice")

	e.tracker.StartSessionTracking()
	e.tracker.TrackSuccessfulSave(1)
	e.clock.Advance(5 * time.Minute)

	e.tracker.StartSessionTracking()

	status := e.tracker.Status()
	assert.True(t, mondayMorning.Equal(status.Start))
	assert.Equal(t, 1, status.SaveCount)

	e.clock.Advance(5 * time.Minute)

	rec := e.tracker.StopSessionTracking(context.Background(), false, 1)
	require.NotNil(t, rec)
	assert.Equal(t, 10, rec.DurationMinutes)
}

func TestResumeAfterReload(t *testing.T) {
	e := setup(t, "alice")

	e.tracker.StartSessionTracking()
	e.tracker.TrackSuccessfulSave(4)
	e.tracker.TrackSuccessfulSave(5)
	e.clock.Advance(20 * time.Minute)

	// a new process reads the same store
	reloaded := e.newTracker()

	assert.True(t, reloaded.IsSessionActive())

	status := reloaded.Status()
	assert.True(t, status.Active)
	assert.Equal(t, 2, status.SaveCount)
	assert.Equal(t, 5, status.TotalAnnotationCount)
	assert.Equal(t, 20*time.Minute, status.Elapsed)

	reloaded.StartSessionTracking()
	reloaded.TrackSuccessfulSave(6)
	e.clock.Advance(10 * time.Minute)

	rec := reloaded.StopSessionTracking(context.Background(), false, 6)
	require.NotNil(t, rec)

	assert.Equal(t, 3, rec.SaveCount)
	assert.Equal(t, 30, rec.DurationMinutes)
	assert.True(t, mondayMorning.Equal(rec.Start))
}

func TestNewSessionClearsIdleAnnotationCount(t *testing.T) {
	e := setup(t, "alice")

	// counted while no session was running
	e.tracker.UpdateAnnotationCount(9)

	e.tracker.StartSessionTracking()
	assert.Equal(t, 0, e.tracker.Status().TotalAnnotationCount)
	assert.Equal(t, "0", e.get(t, "sessionTotalAnnotationCount_alice"))

	e.clock.Advance(3 * time.Minute)

	reloaded := e.newTracker()

	status := reloaded.Status()
	require.True(t, status.Active)
	assert.Equal(t, 0, status.TotalAnnotationCount)

	rec := reloaded.StopSessionTracking(
		context.Background(),
		false,
		status.TotalAnnotationCount,
	)
	require.NotNil(t, rec)

	assert.False(t, rec.UploadAttempted)
	assert.Empty(t, e.uploader.calls())
}

func TestStatusJSONOmitsStartWhenIdle(t *testing.T) {
	e := setup(t, "alice")

	b, err := json.Marshal(e.tracker.Status())
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"start"`)

	e.tracker.StartSessionTracking()

	b, err = json.Marshal(e.tracker.Status())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"start":"2024-`)
}

func TestUpdateAnnotationCount(t *testing.T) {
	e := setup(t, "alice")

	e.tracker.StartSessionTracking()
	e.tracker.UpdateAnnotationCount(7)

	status := e.tracker.Status()
	assert.Equal(t, 7, status.TotalAnnotationCount)
	assert.Equal(t, 0, status.SaveCount)
	assert.Equal(t, "7", e.get(t, "sessionTotalAnnotationCount_alice"))
	assert.Equal(t, "0", e.get(t, "sessionSaveCount_alice"))
}

func TestWeeklyRolloverArchivesPreviousWeek(t *testing.T) {
	e := setup(t, "alice")

	e.tracker.StartSessionTracking()
	e.tracker.TrackSuccessfulSave(1)
	e.clock.Advance(42 * time.Minute)
	e.tracker.StopSessionTracking(context.Background(), false, 1)

	resets, unsubscribe := e.tracker.SubscribeResets()
	defer unsubscribe()

	// the following Monday
	e.clock.Advance(7*24*time.Hour - 42*time.Minute)

	e.tracker.StartSessionTracking()

	assert.Equal(t, 0, e.tracker.WeeklyTotal())
	assert.Equal(t, "0", e.get(t, "totalTimeMinutes_alice"))
	assert.Equal(t, "2024-01-15", e.get(t, "lastWeekReset_alice"))

	var archived tracker.WeeklyArchive

	err := json.Unmarshal([]byte(e.get(t, "weeklyArchive_alice_2024-01-08")), &archived)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-08", archived.WeekStart)
	assert.Equal(t, "2024-01-14", archived.WeekEnd)
	assert.Equal(t, 42, archived.TotalMinutes)
	assert.True(t, archived.ArchivedAt.Equal(e.clock.Now()))

	select {
	case info := <-resets:
		assert.Equal(t, tracker.WeekInfo{Start: "2024-01-15", End: "2024-01-21"}, info)
	default:
		t.Fatal("expected a weekly reset notification")
	}

	// the session started after the reset is still running
	assert.True(t, e.tracker.IsSessionActive())
}

func TestWeeklyRolloverIsIdempotent(t *testing.T) {
	e := setup(t, "alice")

	require.NoError(t, e.kv.Set("totalTimeMinutes_alice", "42"))

	resets, unsubscribe := e.tracker.SubscribeResets()
	defer unsubscribe()

	e.clock.Advance(7 * 24 * time.Hour)

	assert.True(t, e.tracker.CheckWeeklyRollover())

	select {
	case <-resets:
	default:
		t.Fatal("expected a weekly reset notification")
	}

	assert.False(t, e.tracker.CheckWeeklyRollover())

	// later in the same week
	e.clock.Advance(3 * 24 * time.Hour)
	assert.False(t, e.tracker.CheckWeeklyRollover())

	assert.Equal(t, 1, e.kv.writes("weeklyArchive_alice_2024-01-08"))
	// reset on creation, the seeded value, reset for the new week
	assert.Equal(t, 3, e.kv.writes("totalTimeMinutes_alice"))
	assert.Empty(t, resets)
}

func TestWeeklyRolloverDropsActiveSession(t *testing.T) {
	sunday := time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC)
	e := setupAt(t, "alice", sunday)

	e.tracker.StartSessionTracking()
	e.tracker.TrackSuccessfulSave(1)

	e.clock.Advance(2 * time.Hour)

	assert.True(t, e.tracker.CheckWeeklyRollover())
	assert.False(t, e.tracker.IsSessionActive())
	e.missing(t, "sessionStartTime_alice")
	e.missing(t, "sessionSaveCount_alice")

	assert.Nil(t, e.tracker.StopSessionTracking(context.Background(), false, 0))
}

func TestForceWeeklyReset(t *testing.T) {
	e := setup(t, "alice")

	require.NoError(t, e.kv.Set("totalTimeMinutes_alice", "90"))

	resets, unsubscribe := e.tracker.SubscribeResets()
	defer unsubscribe()

	e.tracker.ForceWeeklyReset()

	assert.Equal(t, 0, e.tracker.WeeklyTotal())
	assert.Len(t, resets, 1)

	archives, err := e.tracker.WeeklyArchives()
	require.NoError(t, err)
	require.Len(t, archives, 1)

	assert.Equal(t, "2024-01-08", archives[0].WeekStart)
	assert.Equal(t, 90, archives[0].TotalMinutes)
}

func TestWeeklyArchivesNewestFirst(t *testing.T) {
	e := setup(t, "alice")

	for _, w := range []struct {
		start   string
		minutes int
	}{
		{"2023-12-25", 10},
		{"2024-01-01", 20},
		{"2023-12-18", 30},
	} {
		b, err := json.Marshal(tracker.WeeklyArchive{
			WeekStart:    w.start,
			TotalMinutes: w.minutes,
		})
		require.NoError(t, err)
		require.NoError(t, e.kv.Set("weeklyArchive_alice_"+w.start, string(b)))
	}

	require.NoError(t, e.kv.Set("weeklyArchive_alice_2023-12-11", "{not json"))
	require.NoError(t, e.kv.Set("weeklyArchive_bob_2024-01-01", `{"weekStart":"2024-01-01"}`))

	archives, err := e.tracker.WeeklyArchives()
	require.NoError(t, err)

	var starts []string
	for _, a := range archives {
		starts = append(starts, a.WeekStart)
	}

	assert.Equal(t, []string{"2024-01-01", "2023-12-25", "2023-12-18"}, starts)
}

func TestLogout(t *testing.T) {
	t.Run("active session", func(t *testing.T) {
		e := setup(t, "alice")

		e.tracker.StartSessionTracking()
		e.tracker.TrackSuccessfulSave(3)
		e.clock.Advance(15 * time.Minute)

		rec := e.tracker.Logout(context.Background(), 3)
		require.NotNil(t, rec)

		assert.Equal(t, 15, rec.DurationMinutes)
		assert.Equal(t, 3, rec.TotalAnnotationCount)
		assert.Equal(t, "", e.tracker.Username())
		assert.Len(t, e.uploader.calls(), 1)
	})

	t.Run("no session", func(t *testing.T) {
		e := setup(t, "alice")

		require.NoError(t, e.kv.Set("sessionSaveCount_alice", "2"))

		rec := e.tracker.Logout(context.Background(), 0)

		assert.Nil(t, rec)
		assert.Equal(t, "", e.tracker.Username())
		e.missing(t, "sessionSaveCount_alice")
		assert.Empty(t, e.uploader.calls())
	})
}

func TestAnonymousSessionIsNotPersisted(t *testing.T) {
	e := setup(t, "")

	e.tracker.StartSessionTracking()
	e.tracker.TrackSuccessfulSave(1)
	e.clock.Advance(12 * time.Minute)

	assert.Equal(t, tracker.Anonymous, e.tracker.Username())

	rec := e.tracker.StopSessionTracking(context.Background(), false, 1)
	require.NotNil(t, rec)

	assert.Equal(t, 12, rec.DurationMinutes)
	assert.Equal(t, 12, e.tracker.WeeklyTotal())

	keys, err := e.kv.Keys("")
	require.NoError(t, err)
	assert.Empty(t, keys)

	calls := e.uploader.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tracking_anonymous.csv", calls[0].Filename)
}

func TestSessionDuration(t *testing.T) {
	e := setup(t, "alice")

	// 1042 hours and 3 minutes
	require.NoError(t, e.kv.Set("totalTimeMinutes_alice", "62523"))

	e.tracker.StartSessionTracking()
	e.clock.Advance(14 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := e.tracker.SessionDuration(ctx)

	e.clock.Advance(time.Second)
	assert.Equal(t, "1042:03:15", receive(t, ticks))

	e.clock.Advance(time.Second)
	assert.Equal(t, "1042:03:16", receive(t, ticks))

	cancel()

	select {
	case _, ok := <-ticks:
		for ok {
			_, ok = <-ticks
		}
	case <-time.After(time.Second):
		t.Fatal("expected the duration stream to close")
	}
}

func TestSessionDurationWithoutSession(t *testing.T) {
	e := setup(t, "alice")

	require.NoError(t, e.kv.Set("totalTimeMinutes_alice", "75"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := e.tracker.SessionDuration(ctx)

	e.clock.Advance(time.Second)
	assert.Equal(t, "01:15:00", receive(t, ticks))
}

func TestSessionDurationResetsAtWeekBoundary(t *testing.T) {
	sunday := time.Date(2024, 1, 14, 23, 59, 58, 0, time.UTC)
	e := setupAt(t, "alice", sunday)

	require.NoError(t, e.kv.Set("totalTimeMinutes_alice", "30"))

	e.tracker.StartSessionTracking()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := e.tracker.SessionDuration(ctx)

	e.clock.Advance(time.Second)
	assert.Equal(t, "00:30:01", receive(t, ticks))

	// midnight
	e.clock.Advance(time.Second)
	assert.Equal(t, "00:00:00", receive(t, ticks))
	assert.False(t, e.tracker.IsSessionActive())

	assert.Equal(t, 1, e.kv.writes("weeklyArchive_alice_2024-01-08"))
}

func TestSessionDurationFollowsUserChange(t *testing.T) {
	e := setup(t, "alice")

	require.NoError(t, e.kv.Set("totalTimeMinutes_alice", "10"))
	require.NoError(t, e.kv.Set("lastWeekReset_bob", "2024-01-08"))
	require.NoError(t, e.kv.Set("totalTimeMinutes_bob", "20"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := e.tracker.SessionDuration(ctx)

	e.clock.Advance(time.Second)
	assert.Equal(t, "00:10:00", receive(t, ticks))

	require.NoError(t, e.kv.Set(tracker.IdentityKey, "bob"))

	e.clock.Advance(time.Second)
	assert.Equal(t, "00:20:00", receive(t, ticks))
	assert.Equal(t, "bob", e.tracker.Username())
}

func TestWeekHelpers(t *testing.T) {
	e := setup(t, "alice")

	assert.True(t, e.tracker.IsMonday())
	assert.Equal(t, 7, e.tracker.DaysUntilReset())
	assert.Equal(t, tracker.WeekInfo{
		Start: "2024-01-08",
		End:   "2024-01-14",
	}, e.tracker.CurrentWeekInfo())

	e.clock.Advance(6 * 24 * time.Hour)

	assert.False(t, e.tracker.IsMonday())
	assert.Equal(t, 1, e.tracker.DaysUntilReset())
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a duration tick")
	}

	return ""
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()

	i, err := strconv.Atoi(s)
	require.NoError(t, err)

	return i
}

func mustItoa(i int) string {
	return strconv.Itoa(i)
}

func TestUsersInNaturalOrder(t *testing.T) {
	e := setup(t, "annotator2")

	for name, total := range map[string]string{
		"annotator10":  "5",
		"annotator1":   "7",
		"admin":        "1",
		"drannotatorS": "90",
	} {
		require.NoError(t, e.kv.Set("totalTimeMinutes_"+name, total))
	}

	users, err := e.tracker.Users()
	require.NoError(t, err)

	want := []tracker.UserTotal{
		{Username: "admin", TotalMinutes: 1},
		{Username: "annotator1", TotalMinutes: 7},
		{Username: "annotator2", TotalMinutes: 0},
		{Username: "annotator10", TotalMinutes: 5},
		{Username: "drannotatorS", TotalMinutes: 90},
	}

	if diff := cmp.Diff(want, users); diff != "" {
		t.Errorf("unexpected users (-want +got):\n%s", diff)
	}
}
