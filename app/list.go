package app

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ayoisaiah/annotrack/internal/timeutil"
	"github.com/ayoisaiah/annotrack/internal/ui"
	"github.com/ayoisaiah/annotrack/tracker"
)

const (
	noArchivesMsg = "No archived weeks found"
	noUsersMsg    = "No tracked users found"
)

// printStatus writes a summary of the tracker state.
func printStatus(w io.Writer, s tracker.Status) {
	session := ui.Yellow("inactive")
	if s.Active {
		session = fmt.Sprintf(
			"%s since %s (%s)",
			ui.Green("active"),
			s.Start.Format(timeutil.ClockLayout),
			timeutil.FormatHMS(s.Elapsed),
		)
	}

	rows := [][2]string{
		{"User", ui.Highlight(s.Username)},
		{"Session", session},
		{"Saves", strconv.Itoa(s.SaveCount)},
		{"Annotations", strconv.Itoa(s.TotalAnnotationCount)},
		{"Weekly total", ui.Cyan(ui.Minutes(s.WeeklyTotalMinutes))},
		{"Week", fmt.Sprintf(
			"%s to %s (resets in %d days)",
			s.Week.Start,
			s.Week.End,
			s.DaysUntilReset,
		)},
	}

	for _, r := range rows {
		fmt.Fprintf(w, "%-13s %s\n", r[0]+":", r[1])
	}
}

// printRecord writes the outcome of a stopped session.
func printRecord(w io.Writer, rec *tracker.Record) {
	fmt.Fprintf(
		w,
		"Session ended: %s from %s to %s, %d saves, %d annotations\n",
		ui.Minutes(rec.DurationMinutes),
		rec.Start.Format(timeutil.ClockLayout),
		rec.End.Format(timeutil.ClockLayout),
		rec.SaveCount,
		rec.TotalAnnotationCount,
	)

	fmt.Fprintf(w, "Weekly total: %s\n", ui.Minutes(rec.WeeklyTotalMinutes))

	switch {
	case !rec.UploadAttempted:
		fmt.Fprintln(w, "No activity in this session, nothing was uploaded")
	case !rec.Uploaded:
		fmt.Fprintln(w, ui.Red("Upload failed, the record was not delivered (see the log for details)"))
	default:
		fmt.Fprintln(w, ui.Green("Session record uploaded"))
	}
}

// filterArchives drops the weeks that ended before since. A zero since keeps
// every week.
func filterArchives(
	archives []tracker.WeeklyArchive,
	since time.Time,
) []tracker.WeeklyArchive {
	if since.IsZero() {
		return archives
	}

	cutoff := timeutil.RoundToStart(since).Format(timeutil.DateLayout)

	filtered := make([]tracker.WeeklyArchive, 0, len(archives))

	for _, a := range archives {
		if a.WeekEnd >= cutoff {
			filtered = append(filtered, a)
		}
	}

	return filtered
}

// printArchivesTable prints a table of archived weeks.
func printArchivesTable(w io.Writer, archives []tracker.WeeklyArchive) error {
	tableBody := make([][]string, len(archives))

	for i, a := range archives {
		tableBody[i] = []string{
			strconv.Itoa(i + 1),
			a.WeekStart,
			a.WeekEnd,
			ui.Minutes(a.TotalMinutes),
			a.ArchivedAt.Format("Jan 02, 2006 03:04 PM"),
		}
	}

	tableBody = append([][]string{
		{"#", "WEEK START", "WEEK END", "TOTAL", "ARCHIVED"},
	}, tableBody...)

	return ui.PrintTable(tableBody, w)
}

// printUsersTable prints the weekly total of every tracked user.
func printUsersTable(w io.Writer, users []tracker.UserTotal, current string) error {
	tableBody := make([][]string, len(users))

	for i, u := range users {
		name := u.Username
		if name == current {
			name = ui.Green(name + " *")
		}

		tableBody[i] = []string{
			strconv.Itoa(i + 1),
			name,
			ui.Minutes(u.TotalMinutes),
		}
	}

	tableBody = append([][]string{
		{"#", "USER", "WEEKLY TOTAL"},
	}, tableBody...)

	return ui.PrintTable(tableBody, w)
}
