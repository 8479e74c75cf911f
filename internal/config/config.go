// Package config loads inferform settings.
//
// Sources, later ones overriding earlier ones:
//  1. Defaults
//  2. Configuration file (./inferform.yaml, ~/.config/inferform/inferform.yaml)
//  3. INFERFORM_* entries of a dotenv file (./.env unless set with SetDotEnv)
//  4. INFERFORM_* environment variables (nested keys use underscores,
//     e.g. INFERFORM_RETRY_MAX_ELAPSED=30s)
//  5. Command line flags bound through BindFlags
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables.
const EnvPrefix = "INFERFORM"

const defaultDotEnv = ".env"

// Config is the full runtime configuration.
type Config struct {
	// APIURL is the root of the inference service.
	APIURL string `mapstructure:"api_url"`
	// SchemaPath is the schema document location relative to APIURL, or an
	// absolute URL or local file.
	SchemaPath string `mapstructure:"schema_path"`
	// Endpoint is the path suffix selecting the prediction endpoint.
	Endpoint string `mapstructure:"endpoint"`
	// MIME forces a produced content type; MIMEIndex picks one by position.
	MIME      string `mapstructure:"mime"`
	MIMEIndex int    `mapstructure:"mime_index"`
	// OutputDefinition names the schema definition holding the output fields.
	OutputDefinition string `mapstructure:"output_definition"`
	// Preset is an optional YAML patch file applied to the endpoint.
	Preset string `mapstructure:"preset"`
	// TempDir holds transient files; empty means the system default.
	TempDir        string        `mapstructure:"temp_dir"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	UIHost       string `mapstructure:"ui_host"`
	UIPort       int    `mapstructure:"ui_port"`
	MaxArtifacts int    `mapstructure:"max_artifacts"`

	Retry RetryConfig `mapstructure:"retry"`
	Log   LogConfig   `mapstructure:"log"`
}

// RetryConfig bounds waiting for the service to come up.
type RetryConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed"`
}

// LogConfig selects log level and destination.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// UIAddr returns the listen address of the web form.
func (c Config) UIAddr() string {
	return fmt.Sprintf("%s:%d", c.UIHost, c.UIPort)
}

// SchemaLocation resolves SchemaPath against APIURL unless it is already an
// absolute URL or an existing local file.
func (c Config) SchemaLocation() string {
	path := strings.TrimSpace(c.SchemaPath)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return strings.TrimSuffix(c.APIURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// Loader wraps a viper instance so flags can be bound before loading.
type Loader struct {
	v      *viper.Viper
	dotEnv string
}

// NewLoader constructs a loader with defaults applied.
func NewLoader() *Loader {
	l := &Loader{v: viper.New()}
	l.setDefaults()
	return l
}

// SetDotEnv names the dotenv file to read. Unlike the default ./.env, an
// explicit file must exist.
func (l *Loader) SetDotEnv(path string) {
	l.dotEnv = strings.TrimSpace(path)
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("api_url", "http://0.0.0.0:5000/")
	l.v.SetDefault("schema_path", "swagger.json")
	l.v.SetDefault("endpoint", "predict/")
	l.v.SetDefault("mime", "")
	l.v.SetDefault("mime_index", 0)
	l.v.SetDefault("output_definition", "ModelPredictionResponse")
	l.v.SetDefault("preset", "")
	l.v.SetDefault("temp_dir", "")
	l.v.SetDefault("request_timeout", "0s")

	l.v.SetDefault("ui_host", "0.0.0.0")
	l.v.SetDefault("ui_port", 8000)
	l.v.SetDefault("max_artifacts", 64)

	l.v.SetDefault("retry.initial_interval", "1s")
	l.v.SetDefault("retry.max_elapsed", "5m")

	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.file", "")
}

// BindFlags binds every flag of the set whose name matches a configuration
// key once dashes are replaced by underscores ("api-url" binds "api_url",
// "retry-max-elapsed" binds "retry.max_elapsed").
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key := flagKey(flag.Name)
		if !isKnownKey(l.v, key) {
			return
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			bindErr = fmt.Errorf("config: bind flag %s: %w", flag.Name, err)
		}
	})
	return bindErr
}

func flagKey(name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	for _, section := range []string{"retry_", "log_"} {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

func isKnownKey(v *viper.Viper, key string) bool {
	for _, known := range v.AllKeys() {
		if known == key {
			return true
		}
	}
	return false
}

// Load reads the optional configuration file and the environment, then
// decodes and validates the result. An explicit cfgFile must exist.
func (l *Loader) Load(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		l.v.SetConfigName("inferform")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("$HOME/.config/inferform")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	if err := l.mergeDotEnv(); err != nil {
		return nil, err
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// mergeDotEnv layers the prefixed dotenv entries above the config file. Keys
// that are not configuration keys are ignored.
func (l *Loader) mergeDotEnv() error {
	path := l.dotEnv
	if path == "" {
		path = defaultDotEnv
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if l.dotEnv == "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read dotenv %s: %w", path, err)
	}
	entries, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("config: parse dotenv %s: %w", path, err)
	}

	layer := map[string]any{}
	for _, key := range l.v.AllKeys() {
		name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		value, ok := entries[name]
		if !ok {
			continue
		}
		section, leaf, nested := strings.Cut(key, ".")
		if !nested {
			layer[key] = value
			continue
		}
		inner, _ := layer[section].(map[string]any)
		if inner == nil {
			inner = map[string]any{}
			layer[section] = inner
		}
		inner[leaf] = value
	}
	if len(layer) == 0 {
		return nil
	}
	return l.v.MergeConfigMap(layer)
}

// Load is a convenience wrapper around NewLoader().Load.
func Load(cfgFile string) (*Config, error) {
	return NewLoader().Load(cfgFile)
}

// Validate checks the loaded configuration.
func Validate(cfg *Config) error {
	parsed, err := url.Parse(cfg.APIURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid api_url %q", cfg.APIURL)
	}
	if cfg.UIPort < 1 || cfg.UIPort > 65535 {
		return fmt.Errorf("invalid ui_port: %d", cfg.UIPort)
	}
	if cfg.MIMEIndex < 0 {
		return fmt.Errorf("invalid mime_index: %d", cfg.MIMEIndex)
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return errors.New("endpoint suffix is required")
	}
	if cfg.RequestTimeout < 0 || cfg.Retry.MaxElapsed < 0 || cfg.Retry.InitialInterval < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}
