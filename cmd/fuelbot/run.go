package main

import (
	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/fuelbot/core/cmd"
	coreconfig "github.com/m3rciful/fuelbot/core/config"
	"github.com/m3rciful/fuelbot/internal/bot"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Apply migrations and serve Telegram updates until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return corecmd.Run(corecmd.Options{
			ConfigPath: configPath,
			Context:    cmd.Context(),
			Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
				return bot.Bootstrap(cfg)
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
