package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "archon",
	Short: "Archon is a bus-driven architecture guidance agent",
	Long: `Archon runs an AI agent on a NATS message bus that explains
event-driven architecture concepts, produces visualization payloads,
guides users through workflows and holds multi-turn dialogs.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML configuration file")
}
