// Package config loads and saves the shiftcover configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/shiftcover/internal/core/escalation"
	"github.com/example/shiftcover/internal/ports/secondary"
)

// Config holds the engine configuration, including the default escalation
// ladder and per-location overrides.
type Config struct {
	DBPath        string `yaml:"db_path,omitempty"`
	SweepInterval string `yaml:"sweep_interval"`
	MetricsAddr   string `yaml:"metrics_addr"`
	ExpireOverdue *bool  `yaml:"expire_overdue,omitempty"`

	Rules         []RuleConfig            `yaml:"rules"`
	LocationRules map[string][]RuleConfig `yaml:"location_rules,omitempty"`
}

// RuleConfig is one escalation rule as written in the config file.
type RuleConfig struct {
	TriggerAfterMinutes int    `yaml:"trigger_after_minutes"`
	Action              string `yaml:"action"`
	NewUrgency          string `yaml:"new_urgency,omitempty"`
	ExtendMinutes       int    `yaml:"extend_minutes,omitempty"`
}

// Default returns the built-in configuration: the standard five-step
// escalation ladder, a one-minute sweep, and overdue expiry enabled.
func Default() *Config {
	return &Config{
		SweepInterval: "1m",
		MetricsAddr:   ":9190",
		Rules: []RuleConfig{
			{TriggerAfterMinutes: 30, Action: escalation.ActionEscalateTier},
			{TriggerAfterMinutes: 60, Action: escalation.ActionIncreaseUrgency, NewUrgency: escalation.UrgencyUrgent},
			{TriggerAfterMinutes: 120, Action: escalation.ActionEscalateTier},
			{TriggerAfterMinutes: 180, Action: escalation.ActionIncreaseUrgency, NewUrgency: escalation.UrgencyCritical},
			{TriggerAfterMinutes: 240, Action: escalation.ActionNotifySupervisor},
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".shiftcover", "config.yaml"), nil
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	cfg.Rules = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = Default().Rules
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config file at path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SweepIntervalDuration parses the configured sweep interval.
func (c *Config) SweepIntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid sweep_interval %q: %w", c.SweepInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid sweep_interval %q: must be positive", c.SweepInterval)
	}
	return d, nil
}

// ExpireOverdueEnabled reports whether overdue broadcasts auto-expire.
// Unset means enabled.
func (c *Config) ExpireOverdueEnabled() bool {
	return c.ExpireOverdue == nil || *c.ExpireOverdue
}

// Validate checks every rule set in the config.
func (c *Config) Validate() error {
	if _, err := c.SweepIntervalDuration(); err != nil {
		return err
	}
	if _, err := buildRuleSet(c.Rules); err != nil {
		return fmt.Errorf("invalid default rules: %w", err)
	}
	for loc, rules := range c.LocationRules {
		if _, err := buildRuleSet(rules); err != nil {
			return fmt.Errorf("invalid rules for location %s: %w", loc, err)
		}
	}
	return nil
}

// RulesFor returns the effective escalation ladder for a location, sorted by
// trigger threshold. Locations without an override use the default set.
func (c *Config) RulesFor(locationID string) ([]escalation.Rule, error) {
	rules := c.Rules
	if override, ok := c.LocationRules[locationID]; ok {
		rules = override
	}
	return buildRuleSet(rules)
}

func buildRuleSet(configured []RuleConfig) ([]escalation.Rule, error) {
	rules := make([]escalation.Rule, 0, len(configured))
	for _, rc := range configured {
		rule := escalation.Rule{
			TriggerAfterMinutes: rc.TriggerAfterMinutes,
			Action:              rc.Action,
			NewUrgency:          rc.NewUrgency,
			ExtendMinutes:       rc.ExtendMinutes,
		}
		rule.ID = escalation.DeriveRuleID(rule)
		rules = append(rules, rule)
	}
	rules = escalation.SortRules(rules)
	if err := escalation.ValidateRuleSet(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

var _ secondary.RuleProvider = (*Config)(nil)
