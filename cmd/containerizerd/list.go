package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/containerizer/pkg/config"
	"github.com/cuemby/containerizer/pkg/engine"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List engine containers under this agent's name prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		client := engine.NewCLIClient(cfg.EngineBin)
		containers, err := client.Ps(context.Background(), true, cfg.NamePrefix)
		if err != nil {
			return fmt.Errorf("list containers: %w", err)
		}

		if len(containers) == 0 {
			fmt.Println("No containers found.")
			return nil
		}
		for _, c := range containers {
			fmt.Printf("%s\t%s\n", c.ID, c.Name)
		}
		return nil
	},
}
