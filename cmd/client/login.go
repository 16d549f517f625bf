package main

import (
	"fmt"

	"github.com/reelsync/reelsync/internal/client/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store a session token in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			if cfg.SessionToken == "" {
				return fmt.Errorf("no token given, use --token or REELSYNC_SESSION_TOKEN")
			}
			cmd.SilenceUsage = true

			path := viper.ConfigFileUsed()
			if path == "" {
				path = config.DefaultConfigPath
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Printf("%s token saved to %s\n", green("ok"), path)
			return nil
		},
	}
}
