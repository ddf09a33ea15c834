package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/Seann-Moser/romiarm/pkg/controller"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the PCA9685 mode, frequency and mapped channel registers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := controller.New(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				log.Printf("close: %v", err)
			}
		}()
		return c.Dump(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
