// Package config handles loading and validating application configuration.
// Config lives in a JSON file with environment variable overrides for
// credentials. A missing or invalid credential is a fatal startup error;
// nothing else in the system aborts the process.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Defaults applied by Validate when the config file leaves a knob unset.
const (
	DefaultMaxInputLength        = 800
	DefaultMaxRequestsPerSession = 30
	DefaultPriceInputPerMillion  = 0.05
	DefaultPriceOutputPerMillion = 0.40
)

// Config represents the application configuration.
type Config struct {
	OpenAIAPIKey          string        `json:"openai_api_key"`
	Model                 string        `json:"model,omitempty"`
	ModerationModel       string        `json:"moderation_model,omitempty"`
	MaxInputLength        int           `json:"max_input_length,omitempty"`
	MaxRequestsPerSession int           `json:"max_requests_per_session,omitempty"`
	Pricing               PricingConfig `json:"pricing,omitempty"`
	PresetsFile           string        `json:"presets_file,omitempty"`
}

// PricingConfig holds per-million-token prices in USD for the configured
// model. Swappable per provider/model.
type PricingConfig struct {
	InputPerMillion  float64 `json:"input_per_million,omitempty"`
	OutputPerMillion float64 `json:"output_per_million,omitempty"`
}

// Load reads configuration from file with environment variable overrides.
func Load(configPath string) (cfg Config, err error) {
	// Determine config file location
	path := configPath
	if path == "" {
		var homeDir string
		homeDir, err = os.UserHomeDir()
		if err != nil {
			err = errors.Wrap(err, "failed to get user home directory")
			return cfg, err
		}
		path = filepath.Join(homeDir, ".interview-coach", "config.json")
	}

	// Read config file
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = errors.Errorf("config file not found: %s (run 'interview-coach init' to create)", path)
			return cfg, err
		}
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	// Parse JSON
	err = json.Unmarshal(data, &cfg)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse config file: %s", path)
		return cfg, err
	}

	// Override with environment variable if set
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.OpenAIAPIKey = apiKey
	}

	// Validate required fields and apply defaults
	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// Validate checks required configuration and fills in defaults.
func (c *Config) Validate() (err error) {
	if c.OpenAIAPIKey == "" {
		err = errors.New("openai_api_key is required (set in config or OPENAI_API_KEY env var)")
		return err
	}

	if c.MaxInputLength <= 0 {
		c.MaxInputLength = DefaultMaxInputLength
	}

	if c.MaxRequestsPerSession <= 0 {
		c.MaxRequestsPerSession = DefaultMaxRequestsPerSession
	}

	if c.Pricing.InputPerMillion <= 0 {
		c.Pricing.InputPerMillion = DefaultPriceInputPerMillion
	}

	if c.Pricing.OutputPerMillion <= 0 {
		c.Pricing.OutputPerMillion = DefaultPriceOutputPerMillion
	}

	if c.PresetsFile != "" {
		_, err = os.Stat(c.PresetsFile)
		if os.IsNotExist(err) {
			err = errors.Errorf("presets file not found: %s", c.PresetsFile)
			return err
		}
		err = nil
	}

	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (err error) {
	// Determine config file location
	path := configPath
	if path == "" {
		var homeDir string
		homeDir, err = os.UserHomeDir()
		if err != nil {
			err = errors.Wrap(err, "failed to get user home directory")
			return err
		}
		path = filepath.Join(homeDir, ".interview-coach", "config.json")
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	// Check if file already exists
	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	defaultConfig := Config{
		OpenAIAPIKey:          "sk-...",
		Model:                 "gpt-4o-mini",
		ModerationModel:       "omni-moderation-latest",
		MaxInputLength:        DefaultMaxInputLength,
		MaxRequestsPerSession: DefaultMaxRequestsPerSession,
		Pricing: PricingConfig{
			InputPerMillion:  DefaultPriceInputPerMillion,
			OutputPerMillion: DefaultPriceOutputPerMillion,
		},
	}

	// Write to file
	var data []byte
	data, err = json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	return err
}
