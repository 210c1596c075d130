package app

import "github.com/urfave/cli/v2"

var (
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	hostFlag = &cli.StringFlag{
		Name:  "host",
		Usage: "Collector host. 'localhost' selects the development collector",
	}

	idleTimeoutFlag = &cli.StringFlag{
		Name:  "idle-timeout",
		Usage: "Log out after this period of inactivity in watch mode (e.g. '10m'). Defaults to 5 minutes",
	}

	disableNotificationFlag = &cli.BoolFlag{
		Name:    "disable-notification",
		Aliases: []string{"d"},
		Usage:   "Disable the desktop notifications shown on weekly resets and inactivity",
	}

	annotatorIDFlag = &cli.StringFlag{
		Name:    "annotator-id",
		Aliases: []string{"a"},
		Usage:   "Annotator id recorded with the login (default: general)",
	}

	totalFlag = &cli.IntFlag{
		Name:    "total",
		Aliases: []string{"t"},
		Usage:   "Total annotation count of the current work. Defaults to the tracked count",
	}

	forceFlag = &cli.BoolFlag{
		Name:    "force",
		Aliases: []string{"f"},
		Usage:   "Upload the session record even if nothing was saved",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Only list weeks ending on or after this date (e.g. '2024-01-01' or '3 weeks ago')",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the output as JSON",
	}
)
