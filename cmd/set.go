package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Seann-Moser/romiarm/pkg/controller"
)

var setCmd = &cobra.Command{
	Use:   "set <port> <value>",
	Short: "Initialize the chip and move one port once",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		value, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := controller.New(cfg)
		if err != nil {
			return err
		}
		// Leave the chip running so the servo holds its position.
		if err := c.Start(cmd.Context()); err != nil {
			return err
		}
		if err := c.Set(port, value); err != nil {
			log.Printf("set port %d=%d: %v", port, value, err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
