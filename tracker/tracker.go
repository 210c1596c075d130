// Package tracker measures annotation sessions, accumulates them into a weekly
// total per user and reports finished sessions to a collector.
//
// All state lives in a store.KV so that a new Tracker resumes where a previous
// process left off. The store is assumed to have a single writer per user;
// two processes tracking the same user will race on the same keys.
package tracker

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ayoisaiah/annotrack/internal/timeutil"
	"github.com/ayoisaiah/annotrack/store"
	"github.com/ayoisaiah/annotrack/upload"
)

// Anonymous is the username used when nobody is logged in. Its sessions are
// tracked in memory only.
const Anonymous = "anonymous"

const defaultTickInterval = time.Second

// Uploader delivers finished session records.
type Uploader interface {
	Upload(ctx context.Context, p upload.Payload) error
}

// Tracker tracks the active session of the logged in user.
type Tracker struct {
	startTime time.Time
	kv        store.KV
	clock     clockwork.Clock
	uploader  Uploader
	logger    *slog.Logger
	subs      map[int]chan WeekInfo
	username  string
	// weekKey is the last rollover key of users without persisted state.
	weekKey              string
	tickInterval         time.Duration
	saveCount            int
	totalAnnotationCount int
	totalTimeMinutes     int
	nextSub              int
	mu                   sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithUploader sets the collector that receives finished sessions.
func WithUploader(u Uploader) Option {
	return func(t *Tracker) {
		t.uploader = u
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithTickInterval sets the cadence of SessionDuration.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.tickInterval = d
		}
	}
}

// New returns a Tracker backed by kv. If the logged in user has a session in
// progress from an earlier run, it is resumed.
func New(kv store.KV, opts ...Option) *Tracker {
	t := &Tracker{
		kv:           kv,
		clock:        clockwork.NewRealClock(),
		logger:       slog.Default(),
		subs:         make(map[int]chan WeekInfo),
		tickInterval: defaultTickInterval,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.username = t.resolveUsername()
	t.checkRollover()
	t.totalTimeMinutes = t.loadTotal()

	if t.resume() {
		t.logger.Info("resumed session",
			"user", t.username,
			"start_time", t.startTime,
			"saves", t.saveCount,
			"total_annotations", t.totalAnnotationCount,
		)
	}

	return t
}

// switchUser points the tracker at username and drops the in-memory session
// of the previous user. Persisted markers of the previous user are kept.
func (t *Tracker) switchUser(username string) {
	if !t.startTime.IsZero() {
		t.logger.Info("user changed, detaching in-memory session",
			"from", t.username,
			"to", username,
		)
	}

	t.username = username
	t.weekKey = ""
	t.totalTimeMinutes = 0
	t.clearSession()
	t.totalTimeMinutes = t.loadTotal()
}

// clearSession resets the in-memory session.
func (t *Tracker) clearSession() {
	t.startTime = time.Time{}
	t.saveCount = 0
	t.totalAnnotationCount = 0
}

// StartSessionTracking starts a session for the logged in user, or resumes
// the one recorded in the store. It does nothing when a session is already
// active.
func (t *Tracker) StartSessionTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()

	username := t.resolveUsername()
	if username != t.username {
		t.switchUser(username)
	}

	t.checkRollover()

	if !t.startTime.IsZero() {
		t.logger.Warn("session tracking already active", "user", t.username)
		return
	}

	if username == Anonymous {
		t.logger.Warn("no user logged in, tracking session in memory only")
	}

	if t.resume() {
		t.logger.Info("resumed existing session",
			"user", t.username,
			"start_time", t.startTime,
			"saves", t.saveCount,
		)
	} else {
		t.startTime = t.clock.Now()
		t.saveCount = 0
		t.totalAnnotationCount = 0

		if t.persistent() {
			t.set(
				startTimeKey(t.username),
				strconv.FormatInt(t.startTime.UnixMilli(), 10),
			)
			t.setInt(saveCountKey(t.username), 0)
			t.setInt(annotationCountKey(t.username), 0)
		}

		t.logger.Info("started new session", "user", t.username)
	}

	t.totalTimeMinutes = t.loadTotal()

	t.logger.Info("weekly total loaded",
		"user", t.username,
		"minutes", t.totalTimeMinutes,
	)
}

// TrackSuccessfulSave counts a save and records the caller's running
// annotation total.
func (t *Tracker) TrackSuccessfulSave(totalAnnotationCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkRollover()

	t.saveCount++
	t.totalAnnotationCount = totalAnnotationCount

	if t.persistent() {
		t.setInt(saveCountKey(t.username), t.saveCount)
		t.setInt(annotationCountKey(t.username), t.totalAnnotationCount)
	}

	t.logger.Debug("save tracked",
		"user", t.username,
		"saves", t.saveCount,
		"total_annotations", t.totalAnnotationCount,
	)
}

// UpdateAnnotationCount overwrites the tracked annotation total without
// counting a save.
func (t *Tracker) UpdateAnnotationCount(totalAnnotationCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkRollover()

	t.totalAnnotationCount = totalAnnotationCount

	if t.persistent() {
		t.setInt(annotationCountKey(t.username), t.totalAnnotationCount)
	}

	t.logger.Debug("annotation count updated",
		"user", t.username,
		"total_annotations", t.totalAnnotationCount,
	)
}

// StopSessionTracking ends the active session, adds its duration to the
// weekly total and uploads its record when there was activity or forceUpload
// is set. It returns nil when no session was active. Upload errors are logged
// and reflected in the returned record only.
func (t *Tracker) StopSessionTracking(
	ctx context.Context,
	forceUpload bool,
	totalAnnotationCount int,
) *Record {
	t.mu.Lock()

	t.checkRollover()

	if t.startTime.IsZero() {
		t.logger.Warn("tracking stop called without active tracking",
			"user", t.username,
		)
		t.clearMarkers()
		t.mu.Unlock()

		return nil
	}

	saveCount := t.saveCount
	if t.persistent() {
		// the store may hold saves tracked by another process
		if n, ok := t.getInt(saveCountKey(t.username)); ok && n > saveCount {
			saveCount = n
		}
	}

	end := t.clock.Now()

	minutes := timeutil.Round(end.Sub(t.startTime).Minutes())
	if minutes < 0 {
		minutes = 0
	}

	t.totalTimeMinutes = t.loadTotal() + minutes

	if t.persistent() {
		t.setInt(totalTimeKey(t.username), t.totalTimeMinutes)
	}

	t.clearMarkers()

	rec := &Record{
		Username:             t.username,
		Start:                t.startTime,
		End:                  end,
		DurationMinutes:      minutes,
		SaveCount:            saveCount,
		TotalAnnotationCount: totalAnnotationCount,
		WeeklyTotalMinutes:   t.totalTimeMinutes,
	}

	t.clearSession()

	t.mu.Unlock()

	t.logger.Info("session ended",
		"user", rec.Username,
		"date", rec.Start.Format(timeutil.DateLayout),
		"duration_minutes", rec.DurationMinutes,
		"week_total_minutes", rec.WeeklyTotalMinutes,
		"saves", rec.SaveCount,
		"total_annotations", rec.TotalAnnotationCount,
	)

	t.upload(ctx, rec, forceUpload)

	return rec
}

func (t *Tracker) upload(ctx context.Context, rec *Record, force bool) {
	if !shouldUpload(force, rec.SaveCount, rec.TotalAnnotationCount) {
		t.logger.Info("skipping upload, no activity in session",
			"user", rec.Username,
		)

		return
	}

	if t.uploader == nil {
		t.logger.Warn("no collector configured, discarding record",
			"user", rec.Username,
		)

		return
	}

	rec.UploadAttempted = true

	err := t.uploader.Upload(ctx, upload.Payload{
		CSV:      rec.CSV(),
		Filename: upload.FilenameFor(rec.Username),
	})
	if err != nil {
		t.logger.Error("unable to upload tracking data",
			"user", rec.Username,
			"error", err,
		)

		return
	}

	rec.Uploaded = true

	t.logger.Info("tracking data uploaded", "user", rec.Username)
}

// Logout stops the active session, if any, and forgets the cached user.
func (t *Tracker) Logout(ctx context.Context, totalAnnotationCount int) *Record {
	t.mu.Lock()
	active := !t.startTime.IsZero()

	if !active {
		t.clearMarkers()
		t.logger.Info("logged out, session data cleared", "user", t.username)
		t.username = ""
		t.mu.Unlock()

		return nil
	}

	t.mu.Unlock()

	rec := t.StopSessionTracking(ctx, false, totalAnnotationCount)

	t.mu.Lock()
	t.logger.Info("logged out, session tracking stopped", "user", t.username)
	t.username = ""
	t.mu.Unlock()

	return rec
}

// Username returns the user the tracker is currently following.
func (t *Tracker) Username() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.username
}

// WeeklyTotal returns the minutes accumulated this week, excluding the active
// session.
func (t *Tracker) WeeklyTotal() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.loadTotal()
}

// IsSessionActive reports whether a session is active in memory or recorded
// in the store.
func (t *Tracker) IsSessionActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.startTime.IsZero() {
		return true
	}

	_, ok := t.storedStart()

	return ok
}

// Status is a point in time view of the tracker.
type Status struct {
	Start                time.Time     `json:"start,omitzero"`
	Week                 WeekInfo      `json:"week"`
	Username             string        `json:"username"`
	Elapsed              time.Duration `json:"elapsed"`
	SaveCount            int           `json:"save_count"`
	TotalAnnotationCount int           `json:"total_annotation_count"`
	WeeklyTotalMinutes   int           `json:"weekly_total_minutes"`
	DaysUntilReset       int           `json:"days_until_reset"`
	Active               bool          `json:"active"`
}

// Status returns a snapshot of the tracker state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()

	s := Status{
		Username:             t.username,
		Active:               !t.startTime.IsZero(),
		Start:                t.startTime,
		SaveCount:            t.saveCount,
		TotalAnnotationCount: t.totalAnnotationCount,
		WeeklyTotalMinutes:   t.loadTotal(),
		Week:                 t.weekInfo(now),
		DaysUntilReset:       timeutil.DaysUntilReset(now),
	}

	if s.Active {
		s.Elapsed = now.Sub(t.startTime)
	}

	return s
}
