package main

import (
	"fmt"

	"github.com/spf13/cobra"

	coreconfig "github.com/m3rciful/fuelbot/core/config"
	"github.com/m3rciful/fuelbot/core/database"
	"github.com/m3rciful/fuelbot/core/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := coreconfig.LoadDatabase(configPath)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if db.Driver == coreconfig.DriverMemory {
			return fmt.Errorf("migrate: database.driver %q has nothing to migrate", db.Driver)
		}
		if err := logger.InitLogger(&coreconfig.Config{Database: db}); err != nil {
			return err
		}
		defer func() { _ = logger.Shutdown() }()
		return database.RunMigrations(db)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
