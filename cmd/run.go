/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Seann-Moser/romiarm/pkg/controller"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Initialize the chip and execute commands from stdin",
	Long: `Initialize the PCA9685 and read one command per line from stdin:

  <port> <value>

where port is the logical channel (0 gripper, 1 lift, 2 wrist) and value is
0-255. Unmapped ports are ignored. The chip is put to sleep on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		c, err := controller.New(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				log.Printf("close: %v", err)
			}
		}()
		if err := c.Start(ctx); err != nil {
			log.Printf("start: %v", err)
			return err
		}
		if err := c.Run(ctx, os.Stdin); err != nil {
			log.Printf("run: %v", err)
			return err
		}
		log.Printf("romiarm finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
