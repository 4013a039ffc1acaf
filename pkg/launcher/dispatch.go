package launcher

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
)

// Options control a single dispatch
type Options struct {
	// Runner starts the child processes. Defaults to a ProcessRunner with inherited stdio.
	Runner Runner
	// UpdateEnabled is the auto-update policy.
	UpdateEnabled bool
	// RestartCode is used for launchers which don't declare their own. Defaults to DefaultRestartCode.
	RestartCode int
	// Editor is exported as EDITOR unless the environment already has one.
	Editor string
	// Environ is the parent environment. Defaults to os.Environ().
	Environ []string
	// DryRun only logs the commands.
	DryRun bool
}

// RestartCodeFor returns the sentinel exit code that applies to l
func (o Options) RestartCodeFor(l *Launcher) int {
	if l.RestartCode != 0 {
		return l.RestartCode
	}

	if o.RestartCode != 0 {
		return o.RestartCode
	}

	return DefaultRestartCode
}

// LaunchExitCode maps an error returned by Dispatch to the exit code a shell would have produced
func LaunchExitCode(err error) int {
	if eris.Is(err, ErrNotFound) {
		return ExitNotFound
	}
	return ExitFailure
}

// Dispatch runs the launcher's update step (if required) followed by its main tool and returns the
// exit code the caller should terminate with. The error is only set if a child couldn't be started;
// children exiting with a non-zero code are reported through the exit code alone.
func Dispatch(ctx context.Context, l *Launcher, args []string, opts Options) (int, error) {
	logger := log(ctx).With().Str("launcher", l.Name).Logger()
	ctx = WithLogger(ctx, &logger)

	runner := opts.Runner
	if runner == nil {
		runner = &ProcessRunner{}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	runUpdate, reason := l.NeedsUpdate(args, opts.UpdateEnabled)
	if runUpdate {
		cmd, err := l.prepare(l.Update, args, environ, opts.Editor, false)
		if err != nil {
			return ExitFailure, eris.Wrapf(err, "failed to prepare the update command of %s", l.Name)
		}

		code, err := run(ctx, runner, cmd, "update", opts.DryRun)
		if err != nil {
			return LaunchExitCode(err), eris.Wrapf(err, "failed to start the update command of %s", l.Name)
		}

		restartCode := opts.RestartCodeFor(l)
		switch code {
		case 0:
		case restartCode:
			logger.Info().
				Int("code", code).
				Msg("update requested a restart, stopping here")
			return 0, nil
		default:
			logger.Warn().
				Int("code", code).
				Msg("update failed")
			return code, nil
		}
	} else {
		logger.Debug().Msgf("skipping update: %s", reason)
	}

	cmd, err := l.prepare(l.Main, args, environ, opts.Editor, true)
	if err != nil {
		return ExitFailure, eris.Wrapf(err, "failed to prepare the main command of %s", l.Name)
	}

	code, err := run(ctx, runner, cmd, "main", opts.DryRun)
	if err != nil {
		return LaunchExitCode(err), eris.Wrapf(err, "failed to start %s", l.Name)
	}

	return code, nil
}

func run(ctx context.Context, runner Runner, cmd Command, step string, dryRun bool) (int, error) {
	log(ctx).Info().
		Str("step", step).
		Bool("command", true).
		Msg(quoteArgs(append([]string{cmd.Path}, cmd.Args...)))

	if dryRun {
		return 0, nil
	}

	result, err := runner.Run(ctx, cmd)
	if err != nil {
		return 0, err
	}

	log(ctx).Debug().
		Str("step", step).
		Int("code", result.ExitCode).
		Msg("process exited")
	return result.ExitCode, nil
}
