package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest account metadata from the CMDB and publish the datasets",
	Long: `Fetch the cloud service account list from the ServiceNow CMDB, derive
workload, platform and contact metadata per account, and publish the flat
CUDOS dataset and the automation metadata mapping.`,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)
	harvestCmd.Flags().StringP("out", "o", "", "Write artifacts to this directory instead of S3")
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	outDir, _ := cmd.Flags().GetString("out")

	harvester, err := initHarvester(cfg, outDir, logger)
	if err != nil {
		return err
	}

	result := harvester.Run(cmd.Context())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if result.Failed() {
		return fmt.Errorf("harvest failed: %s", result.Message)
	}
	return nil
}
