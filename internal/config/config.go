package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all AWS Budget Guardian configuration.
type Config struct {
	AWS      AWSConfig      `mapstructure:"aws"`
	Budgets  BudgetsConfig  `mapstructure:"budgets"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Harvest  HarvestConfig  `mapstructure:"harvest"`
	Workload WorkloadConfig `mapstructure:"workload"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Server   ServerConfig   `mapstructure:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AWSConfig defines how the AWS clients are built.
type AWSConfig struct {
	Region        string `mapstructure:"region"`
	AssumeRoleARN string `mapstructure:"assume_role_arn"`
}

// BudgetsConfig defines budget reconciliation settings.
type BudgetsConfig struct {
	Strategy    string  `mapstructure:"strategy"`
	FinOpsEmail string  `mapstructure:"finops_email"`
	FloorUSD    float64 `mapstructure:"floor_usd"`
	Markup      float64 `mapstructure:"markup"`
}

// MetadataConfig defines where the account metadata mapping lives.
type MetadataConfig struct {
	Bucket string `mapstructure:"bucket"`
	Key    string `mapstructure:"key"`
}

// HarvestConfig defines the CMDB harvest settings.
type HarvestConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	CudosBucket string `mapstructure:"cudos_bucket"`
	CudosKey    string `mapstructure:"cudos_key"`
}

// WorkloadConfig defines workload classification settings.
type WorkloadConfig struct {
	RulesPath string `mapstructure:"rules_path"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// ServerConfig defines the job server settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// ScheduleConfig defines cron expressions for the serve mode.
type ScheduleConfig struct {
	Sync    string `mapstructure:"sync"`
	Harvest string `mapstructure:"harvest"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".abg"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults. Every key carries one: AutomaticEnv resolves env vars only
	// for keys viper already knows, so a key without a default is invisible
	// to Unmarshal when set purely through the environment.
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.assume_role_arn", "")
	v.SetDefault("budgets.strategy", "recreate")
	v.SetDefault("budgets.finops_email", "")
	v.SetDefault("budgets.floor_usd", 50.0)
	v.SetDefault("budgets.markup", 1.15)
	v.SetDefault("metadata.bucket", "")
	v.SetDefault("metadata.key", "reference_data/lambda_automation_metadata.json")
	v.SetDefault("harvest.base_url", "")
	v.SetDefault("harvest.username", "")
	v.SetDefault("harvest.password", "")
	v.SetDefault("harvest.timeout_secs", 10)
	v.SetDefault("harvest.cudos_bucket", "")
	v.SetDefault("harvest.cudos_key", "reference_data/cudos_account_metadata.txt")
	v.SetDefault("workload.rules_path", "")
	v.SetDefault("alerts.slack.enabled", false)
	v.SetDefault("alerts.slack.webhook_url", "")
	v.SetDefault("alerts.slack.channel", "#finops")
	v.SetDefault("alerts.webhook.enabled", false)
	v.SetDefault("alerts.webhook.url", "")
	v.SetDefault("alerts.webhook.secret", "")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	// Sync runs inline in the request handler and can take minutes.
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("schedule.sync", "@monthly")
	v.SetDefault("schedule.harvest", "@daily")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("ABG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// The CUDOS dataset lands next to the metadata mapping unless told
	// otherwise.
	if cfg.Harvest.CudosBucket == "" {
		cfg.Harvest.CudosBucket = cfg.Metadata.Bucket
	}

	return &cfg, nil
}
