package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the available launchers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSession()
		if err != nil {
			return err
		}

		table, err := s.loadTable()
		if err != nil {
			return err
		}

		names := table.Names()
		maxNameLen := 0
		for _, name := range names {
			if len(name) > maxNameLen {
				maxNameLen = len(name)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available launchers:")
		lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
		for _, name := range names {
			l := table[name]
			desc := l.Desc
			if l.HasUpdate() {
				desc += " (auto-update)"
			}
			fmt.Fprintf(out, lineFmt, name+":", desc)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
