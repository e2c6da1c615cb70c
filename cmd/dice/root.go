package main

import (
	"github.com/dice-app/dice/app_setting"
	"github.com/dice-app/dice/utils/dotenv"
	"github.com/dice-app/dice/utils/flag"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/spf13/cobra"
)

var sessionConfigPath string

// NewRootCmd returns the root command of the dice cli.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dice",
		Short:         "Operate DICE feed experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flag.ServiceName = flag.CLI
			if err := dotenv.LoadDotEnvs(); err != nil {
				return err
			}
			Logger.InitLogger()
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&sessionConfigPath, "session_config_path", "cmd/server/sessions.yaml", "path to session settings")

	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newExportCmd())
	return rootCmd
}

func loadSetting(name string) (app_setting.SessionSetting, error) {
	settings, err := app_setting.ParseSessionSettings(sessionConfigPath)
	if err != nil {
		return app_setting.SessionSetting{}, err
	}
	return settings.Get(name)
}
