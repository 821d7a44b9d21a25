// Copyright 2025 Lumina Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for cloudcash.
//
// Two inputs drive a run:
//   - settings: the AWS accounts to scan, their credentials and optional
//     region allow-lists, plus output locations (loaded with Viper)
//   - constants: the public <-> catalog name tables and the pricing catalog
//     URLs (see constants.go)
//
// Settings can be overridden with CLOUDCASH_* environment variables.
package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete run configuration (the settings file).
type Config struct {
	// Accounts is the list of AWS accounts to scan. Accounts are scanned
	// sequentially in the order listed here.
	Accounts []Account `mapstructure:"accounts"`

	// DefaultRegion is the region used for STS and other non-regional calls.
	// Default: us-east-1
	DefaultRegion string `mapstructure:"defaultRegion"`

	// Regions is the global region allow-list. Can be overridden per account
	// via Account.Regions. If both are empty every region known to the
	// constants region table is scanned.
	Regions []string `mapstructure:"regions"`

	// LogLevel controls the verbosity of logs.
	// Valid values: debug, info, warn, error
	// Default: info
	LogLevel string `mapstructure:"logLevel"`

	// Output is the path of the HTML statement.
	// Default: bill.html
	Output string `mapstructure:"output"`

	// CacheDir is the directory holding the raw HTTP document cache.
	// Default: cache
	CacheDir string `mapstructure:"cacheDir"`

	// ConstantsFile is the path of the constants file. When empty the
	// constants embedded in the binary are used.
	ConstantsFile string `mapstructure:"constantsFile"`

	// MetricsFile is an optional path where run metrics are written in the
	// Prometheus text exposition format (node-exporter textfile collector).
	MetricsFile string `mapstructure:"metricsFile"`
}

// Account represents a single AWS account to scan.
type Account struct {
	// Name is a human-readable name for the account. It labels the account
	// rows of the statement, logs and metrics, so it must be unique.
	Name string `mapstructure:"name"`

	// AccountID is the 12-digit AWS account ID (optional).
	AccountID string `mapstructure:"accountId"`

	// AccessKeyID and SecretAccessKey are static credentials for the account.
	// When both are empty the default credential chain is used.
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`

	// AssumeRoleARN is an optional IAM role to assume (with the static or
	// default credentials) before scanning.
	// Format: arn:aws:iam::ACCOUNT_ID:role/ROLE_NAME
	AssumeRoleARN string `mapstructure:"assumeRoleArn"`

	// Regions is the region allow-list for this account.
	// If empty, uses Config.Regions.
	Regions []string `mapstructure:"regions"`
}

// Load loads configuration from a YAML file and validates it.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (CLOUDCASH_* prefix)
//  2. Configuration file values
//  3. Default values
//
// For example:
//   - CLOUDCASH_LOG_LEVEL overrides logLevel
//   - CLOUDCASH_OUTPUT overrides output
//   - CLOUDCASH_CACHE_DIR overrides cacheDir
//
// Account entries are not overridable via env vars.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	v.SetDefault("defaultRegion", "us-east-1")
	v.SetDefault("logLevel", "info")
	v.SetDefault("output", "bill.html")
	v.SetDefault("cacheDir", "cache")

	// Viper's automatic mapping doesn't handle camelCase to SCREAMING_SNAKE_CASE,
	// so every overridable key is bound explicitly.
	v.SetEnvPrefix("CLOUDCASH")
	_ = v.BindEnv("defaultRegion", "CLOUDCASH_DEFAULT_REGION")
	_ = v.BindEnv("logLevel", "CLOUDCASH_LOG_LEVEL")
	_ = v.BindEnv("output", "CLOUDCASH_OUTPUT")
	_ = v.BindEnv("cacheDir", "CLOUDCASH_CACHE_DIR")
	_ = v.BindEnv("constantsFile", "CLOUDCASH_CONSTANTS_FILE")
	_ = v.BindEnv("metricsFile", "CLOUDCASH_METRICS_FILE")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one AWS account must be configured")
	}

	names := make(map[string]bool)
	for i, account := range c.Accounts {
		if err := account.Validate(); err != nil {
			return fmt.Errorf("invalid account at index %d: %w", i, err)
		}
		if names[account.Name] {
			return fmt.Errorf("duplicate account name: %s", account.Name)
		}
		names[account.Name] = true
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if err := validateRegions(c.Regions); err != nil {
		return err
	}

	return nil
}

// Validate checks that the AWS account configuration is valid.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account name is required")
	}

	if a.AccountID != "" && !isValidAccountID(a.AccountID) {
		return fmt.Errorf("invalid account ID %q: must be 12 digits", a.AccountID)
	}

	// Static credentials come in pairs
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return fmt.Errorf("account %q: accessKeyId and secretAccessKey must be set together", a.Name)
	}

	if a.AssumeRoleARN != "" {
		if !isValidIAMRoleARN(a.AssumeRoleARN) {
			return fmt.Errorf(
				"invalid AssumeRole ARN %q: must be in format arn:aws:iam::ACCOUNT_ID:role/ROLE_NAME",
				a.AssumeRoleARN,
			)
		}
		arnAccountID := extractAccountIDFromARN(a.AssumeRoleARN)
		if a.AccountID != "" && arnAccountID != a.AccountID {
			return fmt.Errorf("AssumeRole ARN account ID %q does not match configured account ID %q",
				arnAccountID, a.AccountID)
		}
	}

	if err := validateRegions(a.Regions); err != nil {
		return fmt.Errorf("account %q: %w", a.Name, err)
	}

	return nil
}

// RegionsFor returns the region allow-list for an account: the account's own
// list, else the global list. A nil result means "every known region".
func (c *Config) RegionsFor(account Account) []string {
	if len(account.Regions) > 0 {
		return account.Regions
	}
	return c.Regions
}

// validateRegions rejects empty and repeated entries.
func validateRegions(regions []string) error {
	seen := make(map[string]bool, len(regions))
	for _, region := range regions {
		if strings.TrimSpace(region) == "" {
			return fmt.Errorf("empty region in regions list")
		}
		if seen[region] {
			return fmt.Errorf("duplicate region %q in regions list", region)
		}
		seen[region] = true
	}
	return nil
}

// isValidAccountID checks if a string is a valid 12-digit AWS account ID.
func isValidAccountID(accountID string) bool {
	matched, _ := regexp.MatchString(`^\d{12}$`, accountID)
	return matched
}

// isValidIAMRoleARN checks if a string is a valid IAM role ARN.
// Partition can be "aws", "aws-us-gov" or "aws-cn".
func isValidIAMRoleARN(arn string) bool {
	matched, _ := regexp.MatchString(`^arn:(aws|aws-us-gov|aws-cn):iam::\d{12}:role/[a-zA-Z0-9+=,.@\-_/]+$`, arn)
	return matched
}

// extractAccountIDFromARN extracts the account ID from an IAM role ARN.
// Returns empty string if the ARN is invalid.
func extractAccountIDFromARN(arn string) string {
	// ARN format: arn:aws:iam::123456789012:role/RoleName
	parts := strings.Split(arn, ":")
	if len(parts) >= 5 {
		return parts[4]
	}
	return ""
}
