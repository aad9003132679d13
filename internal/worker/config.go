package worker

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"sigs.k8s.io/yaml"
)

const (
	// DefaultConfigDir is the default directory where the worker's configuration is stored
	DefaultConfigDir = "/etc/docflow"
	// DefaultConfigFile is the default path to the worker's configuration file
	DefaultConfigFile = DefaultConfigDir + "/worker.yaml"
	// DefaultExchangeRoot is the default root of the shared exchange tree
	DefaultExchangeRoot = "/var/lib/docflow/exchange"
	// DefaultDownloadDir is the default directory where portal runs deposit downloads
	DefaultDownloadDir = "/var/lib/docflow/downloads"
)

// DefaultPollInterval is the default interval between two queue scans
var DefaultPollInterval = Duration{2 * time.Second}

// Duration wraps time.Duration so the YAML config can say "2s" or "500ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	// PortalExchangeDir is the exchange tree consumed by the browser runner
	PortalExchangeDir string `json:"portal-exchange-dir"`
	// DocumentExchangeDir is the exchange tree consumed by the document analyzer
	DocumentExchangeDir string `json:"document-exchange-dir"`
	// DownloadDir is where portal runs deposit exported files
	DownloadDir string `json:"download-dir"`

	// PollInterval is the interval between two queue scans
	PollInterval Duration `json:"poll-interval,omitempty"`

	// LogLevel is the level of logging. can be: "panic", "fatal", "error",
	// "warn"/"warning", "info" or "debug", any other will be treated as "info"
	LogLevel string `json:"log-level,omitempty"`
}

func NewDefault() *Config {
	return &Config{
		PortalExchangeDir:   DefaultExchangeRoot + "/portal",
		DocumentExchangeDir: DefaultExchangeRoot + "/ocr",
		DownloadDir:         DefaultDownloadDir,
		PollInterval:        DefaultPollInterval,
		LogLevel:            "info",
	}
}

// Validate checks that the required fields are set and that the exchange
// trees are reachable.
func (cfg *Config) Validate() error {
	requiredFields := []struct {
		value     string
		name      string
		checkPath bool
	}{
		{cfg.PortalExchangeDir, "portal-exchange-dir", true},
		{cfg.DocumentExchangeDir, "document-exchange-dir", true},
		{cfg.DownloadDir, "download-dir", false},
	}

	for _, field := range requiredFields {
		if field.value == "" {
			return fmt.Errorf("%s is required", field.name)
		}
		if field.checkPath {
			if _, err := os.Stat(field.value); err != nil {
				return fmt.Errorf("%s: %w", field.name, err)
			}
		}
	}

	if cfg.PollInterval.Duration <= 0 {
		return fmt.Errorf("poll-interval must be positive")
	}
	return nil
}

// ParseConfigFile reads the config file and unmarshals it into the Config struct
func (cfg *Config) ParseConfigFile(cfgFile string) error {
	contents, err := os.ReadFile(cfgFile)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return fmt.Errorf("unmarshalling config file: %w", err)
	}
	return nil
}

func (cfg *Config) String() string {
	contents, err := json.Marshal(cfg)
	if err != nil {
		return "<error>"
	}
	return string(contents)
}
