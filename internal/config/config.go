package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sopdash/internal/utils"
)

// EnvPrefix is prepended to every key when read from the environment, e.g. SOPDASH_TOP_N.
const EnvPrefix = "SOPDASH"

// Global configuration structure.
type Global struct {
	// Input
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	MaxRows   int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Report
	SampleRows        int     `mapstructure:"sample_rows" yaml:"sample_rows"`
	TopN              int     `mapstructure:"top_n" yaml:"top_n"`
	LeaderboardMetric string  `mapstructure:"leaderboard_metric" yaml:"leaderboard_metric"`
	OutlierThreshold  float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`

	// Export
	ExportFormat string `mapstructure:"export_format" yaml:"export_format"`
	PostgresDSN  string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`

	// Server
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"delimiter", "max_rows", "sample_rows", "top_n", "leaderboard_metric",
	"outlier_threshold", "export_format", "postgres_dsn", "serve_addr", "log_level",
}

// Defaults returns the built-in settings used when neither file nor env sets a key.
func Defaults() *Global {
	return &Global{
		SampleRows:        5,
		TopN:              10,
		LeaderboardMetric: "partner_revenue_pct",
		OutlierThreshold:  3.5,
		ExportFormat:      "csv",
		ServeAddr:         "127.0.0.1:8080",
		LogLevel:          "info",
	}
}

// Path returns cfgFile, or the default ~/.sopdash/config.yaml when it is empty.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return defaultPath()
}

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sopdash", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sopdash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("sample_rows", d.SampleRows)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("leaderboard_metric", d.LeaderboardMetric)
	v.SetDefault("outlier_threshold", d.OutlierThreshold)
	v.SetDefault("export_format", d.ExportFormat)
	v.SetDefault("postgres_dsn", d.PostgresDSN)
	v.SetDefault("serve_addr", d.ServeAddr)
	v.SetDefault("log_level", d.LogLevel)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Get returns the display value of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "delimiter":
		return c.Delimiter, nil
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	case "top_n":
		return strconv.Itoa(c.TopN), nil
	case "leaderboard_metric":
		return c.LeaderboardMetric, nil
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'f', -1, 64), nil
	case "export_format":
		return c.ExportFormat, nil
	case "postgres_dsn":
		return mask(c.PostgresDSN), nil
	case "serve_addr":
		return c.ServeAddr, nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val for key and stores it. Semantic checks that need other packages
// (metric and format names) are left to the caller.
func (c *Global) Set(key, val string) error {
	switch key {
	case "delimiter":
		if r := []rune(val); len(r) > 1 && val != `\t` {
			return fmt.Errorf("invalid delimiter: %q (use a single character)", val)
		}
		c.Delimiter = val
	case "max_rows", "sample_rows", "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "max_rows":
			c.MaxRows = i
		case "sample_rows":
			c.SampleRows = i
		default:
			c.TopN = i
		}
	case "leaderboard_metric":
		c.LeaderboardMetric = val
	case "outlier_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for outlier_threshold: %v", val)
		}
		c.OutlierThreshold = f
	case "export_format":
		c.ExportFormat = val
	case "postgres_dsn":
		c.PostgresDSN = val
	case "serve_addr":
		c.ServeAddr = val
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// DelimiterRune returns the configured CSV delimiter, or 0 to auto-detect.
func (c *Global) DelimiterRune() rune {
	if c.Delimiter == `\t` {
		return '\t'
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0
	}
	return r[0]
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
