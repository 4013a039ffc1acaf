package cmd

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iuhjui-sugar/depot-tools/pkg"
	"github.com/iuhjui-sugar/depot-tools/pkg/launcher"
)

var checkCmd = &cobra.Command{
	Use:   "check <launcher> [args...]",
	Short: "Shows what run would do without executing anything",
	Long: `Explains whether the update step would run for the given arguments and prints the
commands run would execute.`,
	DisableFlagParsing: true,
	Args:               cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSession()
		if err != nil {
			return err
		}

		table, err := s.loadTable()
		if err != nil {
			return err
		}

		l, ok := table.Lookup(args[0])
		if !ok {
			return eris.Errorf("Launcher %s not found", args[0])
		}

		pkg.PrintTask(fmt.Sprintf("%s %s", l.Name, strings.Join(args[1:], " ")))
		needed, reason := l.NeedsUpdate(args[1:], s.cfg.UpdateEnabled())
		if needed {
			pkg.PrintSubtask(fmt.Sprintf("update: %s (restart code %d)", l.Update, s.options().RestartCodeFor(l)))
		} else {
			pkg.PrintSubtask("update skipped: " + reason)
		}
		pkg.PrintSubtask("main: " + l.Main.String())

		// make sure the commands show up
		if s.logger.GetLevel() > zerolog.InfoLevel {
			logger := s.logger.Level(zerolog.InfoLevel)
			s.ctx = launcher.WithLogger(s.ctx, &logger)
		}

		return s.dispatch(l, args[1:], true)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
