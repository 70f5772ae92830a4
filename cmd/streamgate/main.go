package main

import (
	"os"

	"github.com/spf13/cobra"

	"streamgate/internal/interfaces/cli/migrate"
	"streamgate/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "streamgate",
		Short: "Streamgate - entitlement service for streamed applications",
		Long:  `Streamgate authorizes third-party credentials, grants streaming sessions against subscription quotas and reconciles running sessions with the provisioning service.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
