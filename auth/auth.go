// Package auth records which annotator is logged in and ties the login state
// to session tracking.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ayoisaiah/annotrack/internal/apperr"
	"github.com/ayoisaiah/annotrack/store"
	"github.com/ayoisaiah/annotrack/tracker"
)

const (
	loggedInKey    = "isLoggedIn"
	annotatorIDKey = "annotatorId"
	adminUsername  = "admin"
)

// DefaultAnnotatorID is assigned to users logged in without an annotator id.
const DefaultAnnotatorID = "general"

var (
	errEmptyUsername = &apperr.Error{
		Message: "a username is required to log in",
	}

	errReservedUsername = &apperr.Error{
		Message: "%q is reserved and cannot be used to log in",
	}

	errPersistLogin = &apperr.Error{
		Message: "unable to save the login state",
	}
)

// User is the logged in annotator.
type User struct {
	Username    string `json:"username"`
	AnnotatorID string `json:"annotator_id"`
}

// Service logs annotators in and out.
type Service struct {
	kv      store.KV
	tracker *tracker.Tracker
	logger  *slog.Logger
}

// New returns a Service persisting the login state in kv.
func New(kv store.KV, t *tracker.Tracker, l *slog.Logger) *Service {
	if l == nil {
		l = slog.Default()
	}

	return &Service{
		kv:      kv,
		tracker: t,
		logger:  l,
	}
}

// Login records username as the logged in annotator and starts session
// tracking. A different user that is still logged in is logged out first.
func (s *Service) Login(ctx context.Context, username, annotatorID string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errEmptyUsername
	}

	if username == tracker.Anonymous {
		return errReservedUsername.Fmt(username)
	}

	if annotatorID == "" {
		annotatorID = DefaultAnnotatorID
	}

	if u, ok := s.Current(); ok && u.Username != username {
		s.logger.Info("switching user", "from", u.Username, "to", username)

		if _, err := s.Logout(ctx, 0); err != nil {
			return err
		}
	}

	for _, kv := range [][2]string{
		{loggedInKey, "true"},
		{tracker.IdentityKey, username},
		{annotatorIDKey, annotatorID},
	} {
		if err := s.kv.Set(kv[0], kv[1]); err != nil {
			return errPersistLogin.Wrap(err)
		}
	}

	s.logger.Info("user logged in",
		"user", username,
		"annotator_id", annotatorID,
	)

	s.tracker.StartSessionTracking()

	return nil
}

// Logout stops session tracking and forgets the logged in annotator. It
// returns the record of the session that was stopped, if any. Logging out
// when nobody is logged in does nothing.
func (s *Service) Logout(
	ctx context.Context,
	totalAnnotationCount int,
) (*tracker.Record, error) {
	if !s.IsLoggedIn() {
		return nil, nil
	}

	rec := s.tracker.Logout(ctx, totalAnnotationCount)

	for _, key := range []string{loggedInKey, tracker.IdentityKey, annotatorIDKey} {
		if err := s.kv.Remove(key); err != nil {
			return rec, errPersistLogin.Wrap(err)
		}
	}

	return rec, nil
}

// IsLoggedIn reports whether an annotator is logged in.
func (s *Service) IsLoggedIn() bool {
	v, err := s.kv.Get(loggedInKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("unable to read login state", "error", err)
		}

		return false
	}

	return v == "true"
}

// Current returns the logged in annotator.
func (s *Service) Current() (User, bool) {
	if !s.IsLoggedIn() {
		return User{}, false
	}

	username, err := s.kv.Get(tracker.IdentityKey)
	if err != nil || username == "" {
		return User{}, false
	}

	// a missing annotator id is not fatal
	annotatorID, _ := s.kv.Get(annotatorIDKey)

	return User{
		Username:    username,
		AnnotatorID: annotatorID,
	}, true
}

// IsAdmin reports whether the logged in annotator is the administrator.
func (s *Service) IsAdmin() bool {
	u, ok := s.Current()

	return ok && u.Username == adminUsername
}
