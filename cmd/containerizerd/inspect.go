package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/containerizer/pkg/checkpoint"
	"github.com/cuemby/containerizer/pkg/config"
)

var (
	inspectFrameworkID string
	inspectExecutorID  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect CONTAINER_ID",
	Short: "Show the checkpointed pid for a container, if any",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		containerID := args[0]

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, err := checkpoint.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open checkpoint store: %w", err)
		}
		defer store.Close()

		key := checkpoint.Key{
			SlaveID:     cfg.SlaveID,
			FrameworkID: inspectFrameworkID,
			ExecutorID:  inspectExecutorID,
			ContainerID: containerID,
		}

		pid, found, err := store.ReadPID(key)
		if err != nil {
			return fmt.Errorf("read checkpoint: %w", err)
		}
		if !found {
			fmt.Printf("no checkpoint found for %s\n", containerID)
			return nil
		}
		fmt.Printf("container %s checkpointed pid %d\n", containerID, pid)
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFrameworkID, "framework-id", "", "framework id the container belongs to")
	inspectCmd.Flags().StringVar(&inspectExecutorID, "executor-id", "", "executor id the container belongs to")
}
