package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/adcorr-cli/internal/ingest"
	"github.com/KaramelBytes/adcorr-cli/internal/metric"
)

const (
	appDirName = ".adcorr"
	envPrefix  = "ADCORR"
)

// Global configuration structure.
type Global struct {
	WorkspacesDir    string   `mapstructure:"workspaces_dir" yaml:"workspaces_dir"`
	DateOrder        string   `mapstructure:"date_order" yaml:"date_order" validate:"oneof=dmy mdy"`
	DecimalSeparator string   `mapstructure:"decimal_separator" yaml:"decimal_separator" validate:"oneof=. 0x2C"`
	Platforms        []string `mapstructure:"platforms" yaml:"platforms" validate:"min=1,dive,required"`
	DefaultMetric    string   `mapstructure:"default_metric" yaml:"default_metric"`
	// Aliases extends the built-in header vocabulary. A list keeps canonical
	// names intact; viper lowercases map keys.
	Aliases []metric.Entry `mapstructure:"aliases" yaml:"aliases,omitempty"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`

	// HTTP surface
	ServeAddr            string `mapstructure:"serve_addr" yaml:"serve_addr" validate:"required"`
	MaxUploadBytes       int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`
	ReadHeaderTimeoutSec int    `mapstructure:"read_header_timeout_sec" yaml:"read_header_timeout_sec" validate:"gt=0"`
}

// Defaults returns the built-in settings. WorkspacesDir is left empty and
// resolved under the home directory by Load.
func Defaults() *Global {
	return &Global{
		DateOrder:            string(ingest.DayFirst),
		DecimalSeparator:     ".",
		Platforms:            []string{"Meta", "Google"},
		DefaultMetric:        metric.Spend,
		LogLevel:             "info",
		LogFormat:            "text",
		ServeAddr:            "127.0.0.1:8080",
		MaxUploadBytes:       32 << 20,
		ReadHeaderTimeoutSec: 10,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report yaml key names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and that configured aliases merge cleanly.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.AliasTable(); err != nil {
		return fmt.Errorf("invalid config: aliases: %w", err)
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// AliasTable returns the built-in vocabulary extended with configured aliases.
func (c *Global) AliasTable() (*metric.AliasTable, error) {
	base := metric.Default()
	if len(c.Aliases) == 0 {
		return base, nil
	}
	extra := make(map[string][]string, len(c.Aliases))
	for _, e := range c.Aliases {
		extra[e.Name] = append(extra[e.Name], e.Aliases...)
	}
	return base.Merge(extra)
}

// IngestOptions maps parsing settings onto ingest.Options.
func (c *Global) IngestOptions() ingest.Options {
	opt := ingest.DefaultOptions()
	if c.DateOrder == string(ingest.MonthFirst) {
		opt.DateOrder = ingest.MonthFirst
	}
	if c.DecimalSeparator == "," {
		opt.DecimalSeparator = ','
	}
	return opt
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.adcorr/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, appDirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, file, env, and defaults.
// Precedence: env > config file > defaults. A .env in the working directory
// seeds the environment without overriding variables already set.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("workspaces_dir", d.WorkspacesDir)
	v.SetDefault("date_order", d.DateOrder)
	v.SetDefault("decimal_separator", d.DecimalSeparator)
	v.SetDefault("platforms", d.Platforms)
	v.SetDefault("default_metric", d.DefaultMetric)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("serve_addr", d.ServeAddr)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("read_header_timeout_sec", d.ReadHeaderTimeoutSec)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, appDirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Platforms = splitList(strings.Join(c.Platforms, ","))
	if c.WorkspacesDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.WorkspacesDir = filepath.Join(home, appDirName, "workspaces")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
