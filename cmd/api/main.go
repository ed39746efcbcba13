package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobilize/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mobilize",
		Short:         "Mobilize API Server",
		Long:          `Mobilize serves the movement dashboard: financial flows, boycotts, the strike fund, referendums and the participative areas, all persisted in a single JSON document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewStoreCommand())
	rootCmd.AddCommand(commands.NewAuthCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
