// Package config loads sigil's configuration through viper.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/sigil/internal/errors"
)

// Cache backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
)

// Config is the root configuration.
type Config struct {
	Templates TemplatesConfig `yaml:"templates" mapstructure:"templates"`
	Cache     CacheConfig     `yaml:"cache"     mapstructure:"cache"`
	Data      DataConfig      `yaml:"data"      mapstructure:"data"`
	Render    RenderConfig    `yaml:"render"    mapstructure:"render"`
	Server    ServerConfig    `yaml:"server"    mapstructure:"server"`
	Log       LogConfig       `yaml:"log"       mapstructure:"log"`
}

// TemplatesConfig configures the file loader.
type TemplatesConfig struct {
	Dir       string   `yaml:"dir"       mapstructure:"dir"`
	Extension string   `yaml:"extension" mapstructure:"extension"`
	Exclude   []string `yaml:"exclude"   mapstructure:"exclude"`
}

// CacheConfig selects and tunes the snapshot cache.
type CacheConfig struct {
	Backend string        `yaml:"backend"  mapstructure:"backend"`
	Dir     string        `yaml:"dir"      mapstructure:"dir"`
	MaxSize int64         `yaml:"max_size" mapstructure:"max_size"`
	TTL     time.Duration `yaml:"ttl"      mapstructure:"ttl"`
	Prefix  string        `yaml:"prefix"   mapstructure:"prefix"`
}

// DataConfig names the data root handed to templates.
type DataConfig struct {
	File   string `yaml:"file"   mapstructure:"file"`
	Inline string `yaml:"inline" mapstructure:"inline"`
}

type RenderConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"  mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Address returns host:port for the preview server.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)

	return cfg
}

// Keys lists every configuration key. viper only unmarshals keys it
// knows about, so environment variables are bound for each of them.
var Keys = []string{
	"templates.dir", "templates.extension", "templates.exclude",
	"cache.backend", "cache.dir", "cache.max_size", "cache.ttl", "cache.prefix",
	"data.file", "data.inline",
	"render.mode",
	"server.host", "server.port",
	"log.level", "log.format",
}

// BindEnv binds SIGIL_<SECTION>_<OPTION> for every key in Keys.
func BindEnv() error {
	for _, key := range Keys {
		env := "SIGIL_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := viper.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	return nil
}

// Load unmarshals the global viper instance and validates the result.
func Load() (*Config, error) {
	var config Config

	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	// Explicit empty lists from flags arrive as a single empty string.
	if len(config.Templates.Exclude) == 1 && config.Templates.Exclude[0] == "" {
		config.Templates.Exclude = nil
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Templates.Dir == "" {
		config.Templates.Dir = "./templates"
	}
	if config.Templates.Extension == "" {
		config.Templates.Extension = "html"
	}
	config.Templates.Extension = strings.TrimPrefix(config.Templates.Extension, ".")

	if config.Cache.Backend == "" {
		config.Cache.Backend = BackendMemory
	}
	config.Cache.Backend = strings.ToLower(config.Cache.Backend)
	if config.Cache.Dir == "" {
		config.Cache.Dir = ".sigil/cache"
	}

	if config.Render.Mode == "" {
		config.Render.Mode = "concatenate"
	}

	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 && !viper.IsSet("server.port") {
		config.Server.Port = 8080
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

func validateConfig(config *Config) error {
	if err := validateTemplatesConfig(&config.Templates); err != nil {
		return err
	}
	if err := validateCacheConfig(&config.Cache); err != nil {
		return err
	}
	if err := validateRenderConfig(&config.Render); err != nil {
		return err
	}
	if err := validateServerConfig(&config.Server); err != nil {
		return err
	}

	return validateLogConfig(&config.Log)
}

func validateTemplatesConfig(config *TemplatesConfig) error {
	if err := validatePath(config.Dir); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid templates dir: %v", err))
	}
	if strings.ContainsAny(config.Extension, `/\`) {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid template extension %q", config.Extension))
	}
	for _, prefix := range config.Exclude {
		if strings.Contains(prefix, "..") {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("exclude prefix %q contains path traversal", prefix))
		}
	}

	return nil
}

func validateCacheConfig(config *CacheConfig) error {
	switch config.Backend {
	case BackendNone, BackendMemory, BackendFile:
	default:
		return errors.NewConfigError(errors.ErrCodeCacheBackend,
			fmt.Sprintf("unknown cache backend %q", config.Backend)).
			WithSuggestions(BackendNone, BackendMemory, BackendFile)
	}

	if strings.Contains(config.Dir, "..") {
		return errors.NewConfigError(errors.ErrCodeCacheBackend,
			fmt.Sprintf("cache dir %q contains path traversal", config.Dir))
	}
	if filepath.IsAbs(config.Dir) {
		return errors.NewConfigError(errors.ErrCodeCacheBackend,
			fmt.Sprintf("cache dir %q should be relative to the project", config.Dir))
	}
	if config.MaxSize < 0 {
		return errors.NewConfigError(errors.ErrCodeCacheBackend, "cache max_size cannot be negative")
	}
	if config.TTL < 0 {
		return errors.NewConfigError(errors.ErrCodeCacheBackend, "cache ttl cannot be negative")
	}

	return nil
}

// RenderModes lists the accepted render.mode values.
var RenderModes = []string{"output", "concatenate", "tokenize"}

func validateRenderConfig(config *RenderConfig) error {
	mode := strings.ToLower(config.Mode)
	if mode == "concat" {
		return nil
	}
	for _, m := range RenderModes {
		if m == mode {
			return nil
		}
	}

	return errors.NewConfigError(errors.ErrCodeInvalidConfig,
		fmt.Sprintf("unknown render mode %q", config.Mode)).WithSuggestions(RenderModes...)
}

func validateServerConfig(config *ServerConfig) error {
	if config.Port < 0 || config.Port > 65535 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid port %d: must be between 0 and 65535", config.Port))
	}

	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", " ", "\t", "\n"}
	for _, char := range dangerous {
		if strings.Contains(config.Host, char) {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("host contains dangerous character %q", char))
		}
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown log level %q", config.Level))
	}
	switch strings.ToLower(config.Format) {
	case "text", "json":
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown log format %q", config.Format))
	}

	return nil
}

// validatePath validates a path for security issues.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains directory traversal: %s", path)
	}

	dangerous := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerous {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character %q: %s", char, path)
		}
	}

	return nil
}
