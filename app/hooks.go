package app

import (
	"context"
	"os"
	"os/exec"

	"github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/annotrack/internal/apperr"
	"github.com/ayoisaiah/annotrack/tracker"
)

const envRecordCSV = "ANNOTRACK_CSV"

var errParseHook = &apperr.Error{
	Message: "unable to parse hooks.on_stop",
}

// hookCmd builds the on_stop command for rec. It returns nil when no command
// is configured.
func hookCmd(
	ctx context.Context,
	command string,
	rec *tracker.Record,
) (*exec.Cmd, error) {
	if command == "" || rec == nil {
		return nil, nil
	}

	cmdSlice, err := shellquote.Split(command)
	if err != nil {
		return nil, errParseHook.Wrap(err)
	}

	if len(cmdSlice) == 0 {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, cmdSlice[0], cmdSlice[1:]...)
	cmd.Env = append(os.Environ(), envRecordCSV+"="+rec.CSV())

	return cmd, nil
}

// runStopHook executes the on_stop command for a finished session.
func runStopHook(ctx context.Context, command string, rec *tracker.Record) error {
	cmd, err := hookCmd(ctx, command, rec)
	if err != nil || cmd == nil {
		return err
	}

	return cmd.Run()
}
