package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/annotrack/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the annotrack app instance.
func Get() *cli.App {
	annotrackApp := &cli.App{
		Name: "annotrack",
		Authors: []*cli.Author{
			{
				Name:  "Ayooluwa Isaiah",
				Email: "ayo@freshman.tech",
			},
		},
		Usage: `
		annotrack measures the time annotators spend in work sessions, keeps a
		weekly total that resets every Monday and uploads a record of each
		finished session to the annotation backend.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "Log in and start tracking a session",
				ArgsUsage: "[username]",
				Flags:     []cli.Flag{annotatorIDFlag},
				Action:    withDeps(loginAction),
			},
			{
				Name:   "logout",
				Usage:  "Stop the active session and log out",
				Flags:  []cli.Flag{totalFlag},
				Action: withDeps(logoutAction),
			},
			{
				Name:   "start",
				Usage:  "Start or resume a session",
				Action: withDeps(startAction),
			},
			{
				Name:   "save",
				Usage:  "Record a successful save in the active session",
				Flags:  []cli.Flag{totalFlag},
				Action: withDeps(saveAction),
			},
			{
				Name:      "count",
				Usage:     "Update the annotation count without recording a save",
				ArgsUsage: "<total>",
				Action:    withDeps(countAction),
			},
			{
				Name:   "stop",
				Usage:  "Stop the active session and upload its record",
				Flags:  []cli.Flag{forceFlag, totalFlag},
				Action: withDeps(stopAction),
			},
			{
				Name:   "status",
				Usage:  "Print the session and weekly totals",
				Flags:  []cli.Flag{jsonFlag},
				Action: withDeps(statusAction),
			},
			{
				Name:   "watch",
				Usage:  "Show a live view of the weekly total",
				Action: withDeps(watchAction),
			},
			{
				Name:   "archives",
				Usage:  "List the archived weeks of the logged in user",
				Flags:  []cli.Flag{sinceFlag, jsonFlag},
				Action: withDeps(archivesAction),
			},
			{
				Name:   "users",
				Usage:  "List the weekly total of every tracked user",
				Flags:  []cli.Flag{jsonFlag},
				Action: withDeps(usersAction),
			},
			{
				Name:   "reset",
				Usage:  "Archive the weekly total and start the week over",
				Action: withDeps(resetAction),
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags: []cli.Flag{
			hostFlag,
			idleTimeoutFlag,
			disableNotificationFlag,
			noColorFlag,
		},
		Action: withDeps(statusAction),
		Before: beforeAction,
		After:  afterAction,
	}

	return annotrackApp
}
