package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "flowtag.yaml"

type Config struct {
	LookupTable  string            `yaml:"lookup_table"`
	FlowLogs     string            `yaml:"flow_logs"`
	Output       string            `yaml:"output"`
	OutputFormat string            `yaml:"output_format"`
	SortBy       string            `yaml:"sort_by"`
	Strict       bool              `yaml:"strict"`
	Lookup       LookupConfig      `yaml:"lookup"`
	Protocols    map[string]string `yaml:"protocols"`
	AWS          AWSConfig         `yaml:"aws"`
	LogLevel     string            `yaml:"log_level"`
	LogFormat    string            `yaml:"log_format"`
	Metrics      MetricsConfig     `yaml:"metrics"`
	Slack        SlackConfig       `yaml:"slack"`
}

type LookupConfig struct {
	Header          string `yaml:"header"`
	DuplicatePolicy string `yaml:"duplicate_policy"`
}

type AWSConfig struct {
	Region string `yaml:"region"`
}

type MetricsConfig struct {
	Textfile    string `yaml:"textfile"`
	Pushgateway string `yaml:"pushgateway"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// Default returns the conventional locations used when nothing is configured.
func Default() *Config {
	return &Config{
		LookupTable:  "input_files/lookup_table.csv",
		FlowLogs:     "input_files/flow_logs.txt",
		Output:       "out/output.csv",
		OutputFormat: "csv",
		SortBy:       "key",
		Lookup: LookupConfig{
			Header:          "auto",
			DuplicatePolicy: "overwrite",
		},
		AWS:       AWSConfig{Region: "us-east-1"},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig reads path on top of Default. Fields absent from the file keep
// their default value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadOptional behaves like LoadConfig but falls back to Default when path
// does not exist and was not explicitly requested.
func LoadOptional(path string, explicit bool) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.LookupTable) == "" {
		return fmt.Errorf("lookup_table must not be empty")
	}
	if strings.TrimSpace(c.FlowLogs) == "" {
		return fmt.Errorf("flow_logs must not be empty")
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output must not be empty")
	}

	if c.OutputFormat != "csv" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %s", c.OutputFormat)
	}
	if c.SortBy != "key" && c.SortBy != "count" {
		return fmt.Errorf("invalid sort_by: %s", c.SortBy)
	}

	switch c.Lookup.Header {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid lookup.header: %s", c.Lookup.Header)
	}
	switch c.Lookup.DuplicatePolicy {
	case "overwrite", "keep-first", "error":
	default:
		return fmt.Errorf("invalid lookup.duplicate_policy: %s", c.Lookup.DuplicatePolicy)
	}

	for num, name := range c.Protocols {
		n, err := strconv.Atoi(num)
		if err != nil || n < 0 || n > 255 {
			return fmt.Errorf("invalid protocol number: %q", num)
		}
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("empty protocol name for number %s", num)
		}
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}

	return nil
}
