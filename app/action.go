package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/annotrack/internal/config"
	"github.com/ayoisaiah/annotrack/internal/timeutil"
	"github.com/ayoisaiah/annotrack/tracker"
)

const (
	envNoColor          = "NO_COLOR"
	envAnnotrackNoColor = "ANNOTRACK_NO_COLOR"
)

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

// annotationTotal returns the --total flag when set, or the count the tracker
// already holds for the session.
func annotationTotal(ctx *cli.Context, t *tracker.Tracker) int {
	if ctx.IsSet(totalFlag.Name) {
		return ctx.Int(totalFlag.Name)
	}

	return t.Status().TotalAnnotationCount
}

// finishSession reports a stopped session and runs the on_stop hook.
func finishSession(ctx *cli.Context, d *deps, rec *tracker.Record) {
	if rec == nil {
		pterm.Info.Println("No active session")
		return
	}

	printRecord(config.Stdout, rec)

	err := runStopHook(ctx.Context, d.cfg.Hooks.OnStop, rec)
	if err != nil {
		d.logger.ErrorContext(ctx.Context, "on_stop hook failed", "error", err)
		pterm.Warning.Printfln("on_stop hook failed: %v", err)
	}
}

// loginAction handles the login command. The username is prompted for when
// it is not passed as an argument.
func loginAction(ctx *cli.Context, d *deps) error {
	username := ctx.Args().First()
	annotatorID := ctx.String(annotatorIDFlag.Name)

	if username == "" {
		answers, err := promptLogin(annotatorID)
		if err != nil {
			return err
		}

		username, annotatorID = answers.Username, answers.AnnotatorID
	}

	err := d.auth.Login(ctx.Context, username, annotatorID)
	if err != nil {
		return err
	}

	pterm.Success.Printfln(
		"Logged in as %s. Weekly total: %s",
		strings.TrimSpace(username),
		timeutil.FormatHMS(time.Duration(d.tracker.WeeklyTotal())*time.Minute),
	)

	return nil
}

// logoutAction handles the logout command which stops the active session and
// forgets the logged in user.
func logoutAction(ctx *cli.Context, d *deps) error {
	if !d.auth.IsLoggedIn() {
		pterm.Info.Println("Not logged in")
		return nil
	}

	rec, err := d.auth.Logout(ctx.Context, annotationTotal(ctx, d.tracker))

	finishSession(ctx, d, rec)

	if err != nil {
		return err
	}

	pterm.Success.Println("Logged out")

	return nil
}

// startAction handles the start command.
func startAction(_ *cli.Context, d *deps) error {
	if !d.auth.IsLoggedIn() {
		pterm.Warning.Println("Not logged in, the session will not be saved")
	}

	d.tracker.StartSessionTracking()

	printStatus(config.Stdout, d.tracker.Status())

	return nil
}

// saveAction handles the save command which counts a successful save.
func saveAction(ctx *cli.Context, d *deps) error {
	total := annotationTotal(ctx, d.tracker)

	d.tracker.TrackSuccessfulSave(total)

	s := d.tracker.Status()

	pterm.Success.Printfln(
		"Save recorded (%d this session, %d annotations)",
		s.SaveCount,
		s.TotalAnnotationCount,
	)

	return nil
}

// countAction handles the count command which updates the annotation total
// without counting a save.
func countAction(ctx *cli.Context, d *deps) error {
	if ctx.NArg() != 1 {
		return errCountArg
	}

	arg := ctx.Args().First()

	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return errInvalidCount.Fmt(arg)
	}

	d.tracker.UpdateAnnotationCount(n)

	pterm.Success.Printfln("Annotation count set to %d", n)

	return nil
}

// stopAction handles the stop command which ends the active session.
func stopAction(ctx *cli.Context, d *deps) error {
	rec := d.tracker.StopSessionTracking(
		ctx.Context,
		ctx.Bool(forceFlag.Name),
		annotationTotal(ctx, d.tracker),
	)

	finishSession(ctx, d, rec)

	return nil
}

// statusAction handles the status command and prints the tracker state.
func statusAction(ctx *cli.Context, d *deps) error {
	d.tracker.CheckWeeklyRollover()

	s := d.tracker.Status()

	if ctx.Bool(jsonFlag.Name) {
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	printStatus(config.Stdout, s)

	return nil
}

// archivesAction handles the archives command and lists the archived weeks of
// the current user.
func archivesAction(ctx *cli.Context, d *deps) error {
	var since time.Time

	if v := ctx.String(sinceFlag.Name); v != "" {
		var err error

		since, err = timeutil.FromStr(v, time.Now())
		if err != nil {
			return errInvalidSince.Fmt(v).Wrap(err)
		}
	}

	archives, err := d.tracker.WeeklyArchives()
	if err != nil {
		return err
	}

	archives = filterArchives(archives, since)

	if ctx.Bool(jsonFlag.Name) {
		b, err := json.Marshal(archives)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	if len(archives) == 0 {
		pterm.Info.Println(noArchivesMsg)
		return nil
	}

	return printArchivesTable(config.Stdout, archives)
}

// usersAction handles the users command which lists the weekly totals of all
// tracked users.
func usersAction(ctx *cli.Context, d *deps) error {
	users, err := d.tracker.Users()
	if err != nil {
		return err
	}

	if ctx.Bool(jsonFlag.Name) {
		b, err := json.Marshal(users)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	if len(users) == 0 {
		pterm.Info.Println(noUsersMsg)
		return nil
	}

	return printUsersTable(config.Stdout, users, d.tracker.Username())
}

// resetAction handles the reset command which archives the current week and
// starts the weekly total over.
func resetAction(_ *cli.Context, d *deps) error {
	d.tracker.ForceWeeklyReset()

	info := d.tracker.CurrentWeekInfo()

	pterm.Success.Printfln(
		"Weekly total reset for the week of %s to %s",
		info.Start,
		info.End,
	)

	return nil
}

// watchAction handles the watch command which shows a live view of the
// weekly total until the user quits.
func watchAction(ctx *cli.Context, d *deps) error {
	m := newWatchModel(ctx.Context, d)
	defer m.close()

	p := tea.NewProgram(m)

	_, err := p.Run()

	return err
}

// editConfigAction handles the edit-config command which opens the config
// file in the user's default text editor.
func editConfigAction(_ *cli.Context) error {
	defaultEditor := "nano"

	if runtime.GOOS == "windows" {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	// create the file with the defaults before opening it
	_, err := config.New(config.WithViperConfig(config.ConfigFilePath()))
	if err != nil {
		return err
	}

	cmd := exec.Command(editor, config.ConfigFilePath())

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

func beforeAction(ctx *cli.Context) error {
	// Override the default version printer
	oldVersionPrinter := cli.VersionPrinter
	cli.VersionPrinter = func(c *cli.Context) {
		oldVersionPrinter(c)
		fmt.Printf(
			"https://github.com/ayoisaiah/annotrack/releases/%s\n",
			c.App.Version,
		)
	}

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	// Disable colour output if NO_COLOR is set
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	// Disable colour output if ANNOTRACK_NO_COLOR is set
	if _, exists := os.LookupEnv(envAnnotrackNoColor); exists {
		disableStyling()
	}

	if ctx.Bool(noColorFlag.Name) {
		disableStyling()
	}

	return config.InitializePaths()
}

func afterAction(ctx *cli.Context) error {
	slog.InfoContext(ctx.Context, "exiting annotrack")

	return nil
}
