package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile workload budgets from last month's spend",
	Long: `Group the organization's linked accounts into workloads, measure each
workload's spend over the previous calendar month through Cost Explorer, and
bring one AWS budget with alert notifications per workload to the desired
state.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	syncer, err := initSyncer(cfg, logger)
	if err != nil {
		return err
	}

	result := syncer.Run(cmd.Context())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if result.Failed() {
		return fmt.Errorf("sync failed: %s", result.Message)
	}
	return nil
}
