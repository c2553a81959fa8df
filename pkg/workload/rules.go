package workload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules controls workload derivation: which name prefixes and keywords map to
// which platform, and which workloads never receive alert mail.
type Rules struct {
	BSPPrefixes          []string `yaml:"bsp_prefixes"`
	DataPlatformPrefixes []string `yaml:"dataplatform_prefixes"`
	DataPlatformKeywords []string `yaml:"dataplatform_keywords"`
	IgnoreAlertWorkloads []string `yaml:"ignore_alert_workloads"`
}

// DefaultRules returns the built-in classification rules.
func DefaultRules() *Rules {
	return &Rules{
		BSPPrefixes:          []string{"bsp"},
		DataPlatformPrefixes: []string{"dp"},
		DataPlatformKeywords: []string{"dataplatform", "marketingdata", "hrpoc"},
		IgnoreAlertWorkloads: []string{"finopsmanagement", "cloudintelligencedashboard"},
	}
}

// LoadRules reads a YAML rules file. Sections left empty fall back to the
// built-in defaults.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}

	r, err := LoadRulesFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return r, nil
}

// LoadRulesFromBytes parses YAML rules data from raw bytes.
func LoadRulesFromBytes(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	def := DefaultRules()
	if len(r.BSPPrefixes) == 0 {
		r.BSPPrefixes = def.BSPPrefixes
	}
	if len(r.DataPlatformPrefixes) == 0 {
		r.DataPlatformPrefixes = def.DataPlatformPrefixes
	}
	if len(r.DataPlatformKeywords) == 0 {
		r.DataPlatformKeywords = def.DataPlatformKeywords
	}
	if len(r.IgnoreAlertWorkloads) == 0 {
		r.IgnoreAlertWorkloads = def.IgnoreAlertWorkloads
	}

	return &r, nil
}
