package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

const (
	SourceFile = "file"
	SourceTree = "tree"
)

// Config holds all configuration for the application
type Config struct {
	DataDir    string       `mapstructure:"data_dir"`
	Parameters Parameters   `mapstructure:"parameters"`
	Logger     LoggerConfig `mapstructure:"logger"`

	// raw parameters as found in config.json, used for the start-up summary
	raw map[string]any
}

// Parameters holds the component parameters from config.json
type Parameters struct {
	InputFilename  string `mapstructure:"input_filename"`
	OutputFilename string `mapstructure:"output_filename"`
	Source         string `mapstructure:"source"`

	APIURL    string `mapstructure:"api_url"`
	SleepTime int    `mapstructure:"sleep_time"`
	ChunkSize int    `mapstructure:"chunk_size"`
	Timeout   int    `mapstructure:"timeout"`
	Debug     bool   `mapstructure:"debug"`

	Proxies []string `mapstructure:"proxies"`

	// Authentication
	Login    int64  `mapstructure:"login"`
	Password string `mapstructure:"#password"`
}

// LoggerConfig holds the log collector address provided by the platform
type LoggerConfig struct {
	Addr string `mapstructure:"addr"`
	Port int    `mapstructure:"port"`
}

// Load reads config.json from dataDir. An empty dataDir falls back to
// KBC_DATADIR and then to /data/.
func Load(dataDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := v.BindEnv("data_dir", "KBC_DATADIR"); err != nil {
		return nil, fmt.Errorf("failed to bind data dir env: %w", err)
	}
	if err := v.BindEnv("logger.addr", "KBC_LOGGER_ADDR"); err != nil {
		return nil, fmt.Errorf("failed to bind logger addr env: %w", err)
	}
	if err := v.BindEnv("logger.port", "KBC_LOGGER_PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind logger port env: %w", err)
	}

	if dataDir != "" {
		v.Set("data_dir", dataDir)
	}

	v.SetConfigFile(filepath.Join(v.GetString("data_dir"), "config.json"))
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.raw = v.GetStringMap("parameters")

	if config.Parameters.Source == "" {
		config.Parameters.Source = config.Parameters.DefaultSource()
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "/data/")

	v.SetDefault("parameters.output_filename", "results.csv")
	v.SetDefault("parameters.source", "")
	v.SetDefault("parameters.sleep_time", 0)
	v.SetDefault("parameters.timeout", 60)
	v.SetDefault("parameters.debug", false)
}

// DefaultSource picks the file variant when an input table is configured
func (p Parameters) DefaultSource() string {
	if p.InputFilename != "" {
		return SourceFile
	}
	return SourceTree
}

// Validate checks that everything needed for a run is present
func (c *Config) Validate() error {
	var errs []error

	p := c.Parameters
	if p.APIURL == "" {
		errs = append(errs, errors.New("api_url is required"))
	}
	if p.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", p.ChunkSize))
	}
	if p.SleepTime < 0 {
		errs = append(errs, fmt.Errorf("sleep_time must not be negative, got %d", p.SleepTime))
	}
	if p.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %d", p.Timeout))
	}
	if p.Login == 0 {
		errs = append(errs, errors.New("login is required"))
	}
	if p.Password == "" {
		errs = append(errs, errors.New("#password is required"))
	}

	switch p.Source {
	case SourceFile:
		if p.InputFilename == "" {
			errs = append(errs, errors.New("input_filename is required for the file source"))
		}
	case SourceTree:
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", p.Source))
	}

	return errors.Join(errs...)
}

// InputPath is where the platform mounts the input table
func (c *Config) InputPath() string {
	return filepath.Join(c.DataDir, "in", "tables", c.Parameters.InputFilename)
}

// OutputPath is where the result table is written
func (c *Config) OutputPath() string {
	return filepath.Join(c.DataDir, "out", "tables", c.Parameters.OutputFilename)
}

// Redacted returns the raw parameters without secret keys (any key containing #)
func (c *Config) Redacted() map[string]any {
	redacted := make(map[string]any, len(c.raw))
	for k, v := range c.raw {
		if strings.Contains(k, "#") {
			continue
		}
		redacted[k] = v
	}
	return redacted
}

// RedactedKeys lists the parameter names that were hidden by Redacted
func (c *Config) RedactedKeys() []string {
	keys := make([]string, 0)
	for k := range c.raw {
		if strings.Contains(k, "#") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
