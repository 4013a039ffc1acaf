package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iuhjui-sugar/depot-tools/pkg"
	"github.com/iuhjui-sugar/depot-tools/pkg/config"
	"github.com/iuhjui-sugar/depot-tools/pkg/launcher"
)

// ConfigFile is read from the installation directory if present
const ConfigFile = "depot_tools.toml"

var rootCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launcher for the depot_tools commands",
	Long: `This command replaces the shell and batch wrappers around the depot_tools commands.
It runs the auto-update step where required and then hands off to the actual tool.
Symlink it to a launcher name (i.e. gclient) to skip the "run" subcommand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitCode carries a child's exit status through cobra
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

type session struct {
	ctx    context.Context
	cfg    *config.Config
	logger *zerolog.Logger
	table  launcher.Table
}

var current *session

func getSession() (*session, error) {
	if current != nil {
		return current, nil
	}

	s, err := newSession()
	if err != nil {
		return nil, err
	}

	current = s
	return s, nil
}

func configFiles() []string {
	installDir, err := pkg.GetInstallDir()
	if err != nil {
		return nil
	}

	return []string{filepath.Join(installDir, ConfigFile)}
}

func newSession() (*session, error) {
	cfg, err := config.Load(configFiles()...)
	if err != nil {
		return nil, err
	}

	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, cfg.Debug)
	}

	var logger zerolog.Logger
	if cfg.Log.JSON {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(NewConsoleWriter(cfg.Debug))
	}
	logger = logger.Level(cfg.LogLevel()).With().Str("inv", nanoid.New()).Logger()

	ctx := launcher.WithLogger(context.Background(), &logger)
	return &session{ctx: ctx, cfg: cfg, logger: &logger}, nil
}

func (s *session) loadTable() (launcher.Table, error) {
	if s.table != nil {
		return s.table, nil
	}

	path := s.cfg.Table
	if path == "" {
		var err error
		path, err = launcher.FindTable(pkg.SearchDirs()...)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug().Str("path", path).Msg("loading launcher table")
	table, err := launcher.LoadTable(s.ctx, path)
	if err != nil {
		return nil, err
	}

	s.table = table
	return table, nil
}

func (s *session) options() launcher.Options {
	return launcher.Options{
		UpdateEnabled: s.cfg.UpdateEnabled(),
		RestartCode:   s.cfg.RestartCode,
		Editor:        s.cfg.Editor,
	}
}

func (s *session) dispatch(l *launcher.Launcher, args []string, dryRun bool) error {
	opts := s.options()
	opts.DryRun = dryRun

	code, err := launcher.Dispatch(s.ctx, l, args, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("launcher", l.Name).Msg("Failed to launch")
	}

	if code != 0 {
		return exitCode(code)
	}
	return nil
}

func commandName(arg0 string) string {
	name := filepath.Base(arg0)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Execute runs the CLI and returns the exit code the process should terminate with
func Execute(args []string) int {
	cmdArgs := args[1:]

	// busybox mode: called through a symlink named after a launcher
	if name := commandName(args[0]); name != rootCmd.Name() {
		s, err := getSession()
		if err != nil {
			return startupFailure(err)
		}

		table, err := s.loadTable()
		if err != nil {
			return startupFailure(err)
		}

		if _, found := table.Lookup(name); found {
			cmdArgs = append([]string{runCmd.Name(), name}, cmdArgs...)
		}
	}

	rootCmd.SetArgs(cmdArgs)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var code exitCode
	if eris.As(err, &code) {
		return int(code)
	}

	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err)
	return launcher.ExitFailure
}

// startupFailure reports errors which occur before the logger is available
func startupFailure(err error) int {
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", eris.ToString(err, false))
	return launcher.ExitFailure
}
