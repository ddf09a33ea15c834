/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Seann-Moser/romiarm/pkg/config"
)

var (
	cfgPath string
	backend string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "romiarm",
	Short: "Drive the Romi arm servos through a PCA9685",
	Long: `romiarm initializes a PCA9685 PWM controller at 50 Hz and moves the
gripper, lift and wrist servos from 0-255 commands, keeping every servo
inside the travel limits of its channel mapping.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file (defaults to the built-in Romi arm layout)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "override bus.backend: periph, gobot or sim")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	if backend != "" {
		switch backend {
		case config.BackendPeriph, config.BackendGobot, config.BackendSim:
			cfg.Bus.Backend = backend
		default:
			return config.Config{}, fmt.Errorf("unknown backend %q", backend)
		}
	}
	return cfg, nil
}
