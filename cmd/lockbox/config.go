package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockbox-storage/lockbox/config"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFiles, err := cmd.Flags().GetStringSlice("config")
	if err != nil {
		return nil, fmt.Errorf("read config flag: %w", err)
	}

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}
