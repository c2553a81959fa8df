package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/yapay-ai/aws-budget-guardian/internal/config"
	"github.com/yapay-ai/aws-budget-guardian/pkg/alerts"
	"github.com/yapay-ai/aws-budget-guardian/pkg/billing"
	"github.com/yapay-ai/aws-budget-guardian/pkg/budget"
	"github.com/yapay-ai/aws-budget-guardian/pkg/harvest"
	"github.com/yapay-ai/aws-budget-guardian/pkg/metadata"
	"github.com/yapay-ai/aws-budget-guardian/pkg/workload"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "abg",
	Short: "AWS Budget Guardian - Workload budgets from measured spend, plus account metadata harvesting",
	Long: `AWS Budget Guardian groups the linked accounts of an AWS organization into
workloads, measures what each workload spent over the previous month through
Cost Explorer, and keeps one AWS budget with alert notifications per workload.
It also harvests account metadata from the ServiceNow CMDB and publishes the
FinOps datasets to S3.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.abg/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initRules loads the workload classification rules, falling back to the
// built-in defaults when no file is configured or the file is unreadable.
func initRules(cfg *config.Config, logger *slog.Logger) *workload.Rules {
	if cfg.Workload.RulesPath == "" {
		return workload.DefaultRules()
	}

	rules, err := workload.LoadRules(cfg.Workload.RulesPath)
	if err != nil {
		logger.Warn("load workload rules, using defaults", "path", cfg.Workload.RulesPath, "error", err)
		return workload.DefaultRules()
	}
	return rules
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// initStore creates the account metadata store from config.
func initStore(cfg *config.Config, clients *billing.Clients, logger *slog.Logger) metadata.Store {
	return metadata.NewS3Store(clients.S3, cfg.Metadata.Bucket, cfg.Metadata.Key, logger)
}

// initSyncer wires the budget sync job.
func initSyncer(cfg *config.Config, logger *slog.Logger) (*budget.Syncer, error) {
	if cfg.Budgets.FinOpsEmail == "" {
		return nil, errors.New("budgets.finops_email must be configured")
	}

	strategy := budget.Strategy(cfg.Budgets.Strategy)
	if !strategy.Valid() {
		return nil, fmt.Errorf("unknown budget strategy %q", cfg.Budgets.Strategy)
	}

	clients, err := billing.NewClients(cfg.AWS.Region, cfg.AWS.AssumeRoleARN)
	if err != nil {
		return nil, err
	}

	policy := budget.Policy{
		Strategy:    strategy,
		FinOpsEmail: cfg.Budgets.FinOpsEmail,
		MarkupPct:   cfg.Budgets.Markup,
		FloorUSD:    cfg.Budgets.FloorUSD,
	}
	reconciler := budget.NewReconciler(billing.NewBudgets(clients.Budgets, logger), policy, logger)

	return budget.NewSyncer(
		billing.NewIdentity(clients.STS),
		billing.NewCostExplorer(clients.CostExplorer, logger),
		reconciler,
		initStore(cfg, clients, logger),
		initRules(cfg, logger),
		initNotifiers(cfg),
		logger,
	), nil
}

// initHarvester wires the metadata harvest job. When outDir is non-empty the
// artifacts go to local files instead of S3.
func initHarvester(cfg *config.Config, outDir string, logger *slog.Logger) (*harvest.Harvester, error) {
	if cfg.Harvest.BaseURL == "" {
		return nil, errors.New("harvest.base_url must be configured")
	}

	fetcher := harvest.NewClient(
		cfg.Harvest.BaseURL,
		cfg.Harvest.Username,
		cfg.Harvest.Password,
		time.Duration(cfg.Harvest.TimeoutSecs)*time.Second,
		logger,
	)
	rules := initRules(cfg, logger)
	notifiers := initNotifiers(cfg)

	if outDir != "" {
		flat := harvest.NewFileFlatWriter(filepath.Join(outDir, "cudos_account_metadata.txt"))
		store := metadata.NewFileStore(filepath.Join(outDir, "lambda_automation_metadata.json"), logger)
		return harvest.NewHarvester(fetcher, flat, store, rules, notifiers, logger), nil
	}

	clients, err := billing.NewClients(cfg.AWS.Region, cfg.AWS.AssumeRoleARN)
	if err != nil {
		return nil, err
	}

	flat := harvest.NewS3FlatWriter(clients.S3, cfg.Harvest.CudosBucket, cfg.Harvest.CudosKey)
	return harvest.NewHarvester(fetcher, flat, initStore(cfg, clients, logger), rules, notifiers, logger), nil
}
