package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "miniquest",
	Short: "Personalized day-adventure planner",
	Long:  "Turns a free-text request into researched, routed day itineraries: resolves the location, scouts real venues, researches them concurrently, and composes adventures with shareable map links.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
