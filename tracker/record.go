package tracker

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/ayoisaiah/annotrack/internal/timeutil"
)

var csvHeader = []string{
	"date",
	"login_time",
	"logout_time",
	"duration_minutes",
	"save_count",
	"total_annotation_count",
}

// Record summarises a finished session.
type Record struct {
	Start                time.Time `json:"start"`
	End                  time.Time `json:"end"`
	Username             string    `json:"username"`
	DurationMinutes      int       `json:"duration_minutes"`
	SaveCount            int       `json:"save_count"`
	TotalAnnotationCount int       `json:"total_annotation_count"`
	WeeklyTotalMinutes   int       `json:"weekly_total_minutes"`
	// UploadAttempted is set when the record met the upload conditions.
	UploadAttempted bool `json:"upload_attempted"`
	// Uploaded is set when the collector accepted the record.
	Uploaded bool `json:"uploaded"`
}

// Row returns the CSV fields of the record.
func (r *Record) Row() []string {
	return []string{
		r.Start.Format(timeutil.DateLayout),
		r.Start.Format(timeutil.ClockLayout),
		r.End.Format(timeutil.ClockLayout),
		strconv.Itoa(r.DurationMinutes),
		strconv.Itoa(r.SaveCount),
		strconv.Itoa(r.TotalAnnotationCount),
	}
}

// CSV returns the header line and the record line separated by a newline.
func (r *Record) CSV() string {
	var sb strings.Builder

	w := csv.NewWriter(&sb)

	// writes to a strings.Builder cannot fail
	_ = w.Write(csvHeader)
	_ = w.Write(r.Row())

	w.Flush()

	return strings.TrimSuffix(sb.String(), "\n")
}

// shouldUpload reports whether a session is worth sending to the collector.
// Sessions without saves or annotations are only sent when forced.
func shouldUpload(force bool, saveCount, totalAnnotationCount int) bool {
	return force || saveCount > 0 || totalAnnotationCount > 0
}
