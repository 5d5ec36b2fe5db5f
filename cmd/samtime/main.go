// Command samtime runs the SamTime roster and punch clock backend.
package main

import (
	"fmt"
	"os"

	"github.com/samtime/samtime-backend/pkg/config"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/spf13/cobra"

	// the punch clock cuts days in a named timezone even on hosts without zoneinfo
	_ "time/tzdata"
)

var rootCmd = &cobra.Command{
	Use:           "samtime",
	Short:         "SamTime backend",
	Long:          `Employee roster and punch clock API for the SamTime mobile app.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(legacyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the validated configuration and the logger every command needs
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, logger.New(config.ServiceName, cfg.Server.Environment), nil
}
