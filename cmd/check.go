package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the channel mappings and print each tick range",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load sweeps every mapping over its whole input range.
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for port, m := range cfg.Mappings() {
			lo, hi := m.Transform.Domain()
			tlo, thi := m.Transform.Range()
			fmt.Fprintf(out, "port %d %-8s ch %2d input [%d,%d] ticks %d..%d (%d at %d, %d at %d)\n",
				port, m.Name, m.Channel, lo, hi, tlo, thi,
				m.Transform.Apply(lo), lo, m.Transform.Apply(hi), hi)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
