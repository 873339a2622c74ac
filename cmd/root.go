package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/classroom-monitor/internal/config"
	"github.com/spf13/cobra"
)

var policyFile string

var rootCmd = &cobra.Command{
	Use:   "classroom-monitor",
	Short: "Attention and drowsiness monitoring for online classes",
	Long: `Classroom Monitor watches a student's webcam frames during an online class
and turns per-frame face, eye and head-pose signals into debounced warnings:
not visible on screen, looking away, and falling asleep.

It runs as an HTTP service for browser clients, or offline against recorded
signals and image sequences.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", "", "YAML file overriding the attention thresholds (env ATTENTION_POLICY_FILE)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig reads the environment and applies the policy override, if any.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	path := policyFile
	if path == "" {
		path = cfg.PolicyFile
	}
	if path != "" {
		if err := cfg.ApplyPolicyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
