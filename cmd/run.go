package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <launcher> [args...]",
	Short: "Runs a launcher (update first, then the actual tool)",
	Long: `Runs the update command of the given launcher unless the subcommand is exempt or
auto-update is disabled (DEPOT_TOOLS_UPDATE=0), then runs the tool with all remaining arguments.
Arguments are passed through untouched.`,
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

		return s.dispatch(l, args[1:], false)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
