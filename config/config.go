// Package config loads gridwalk tool configuration from defaults, an
// optional YAML file and GRIDWALK_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gridwalk/gridwalk"
)

// Config carries everything the gridwalk CLI needs to drive a session.
type Config struct {
	// Engine picks the adapter: "selenium", "playwright" or "rod".
	Engine string `mapstructure:"engine" yaml:"engine"`
	// RemoteURL is the WebDriver endpoint, used by the selenium engine.
	RemoteURL string `mapstructure:"remote_url" yaml:"remote_url"`
	Browser   string `mapstructure:"browser" yaml:"browser"`
	Headless  bool   `mapstructure:"headless" yaml:"headless"`

	Waits    WaitConfig `mapstructure:"waits" yaml:"waits"`
	MaxPages int        `mapstructure:"max_pages" yaml:"max_pages"`

	Results      ResultsConfig `mapstructure:"results" yaml:"results"`
	ArtifactsDir string        `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
}

// WaitConfig mirrors gridwalk.WaitPolicy in file-friendly form.
type WaitConfig struct {
	First time.Duration `mapstructure:"first" yaml:"first"`
	Other time.Duration `mapstructure:"other" yaml:"other"`
	Poll  time.Duration `mapstructure:"poll" yaml:"poll"`
}

// MarshalYAML renders the waits as duration strings ("5s") rather than raw
// nanosecond counts.
func (w WaitConfig) MarshalYAML() (interface{}, error) {
	type waits struct {
		First string `yaml:"first"`
		Other string `yaml:"other"`
		Poll  string `yaml:"poll"`
	}
	return waits{w.First.String(), w.Other.String(), w.Poll.String()}, nil
}

// ResultsConfig points at a results server for report uploads. Token may
// reference an environment variable with ${VAR} syntax.
type ResultsConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Token string `mapstructure:"token" yaml:"token"`
}

// DefaultConfig returns the configuration used when no file and no
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Engine:   "rod",
		Browser:  "chrome",
		Headless: true,
		Waits: WaitConfig{
			First: 5 * time.Second,
			Other: time.Second,
			Poll:  100 * time.Millisecond,
		},
		MaxPages:     gridwalk.DefaultMaxPages,
		ArtifactsDir: "artifacts",
	}
}

// WaitPolicy converts the configured waits into a gridwalk policy.
func (c *Config) WaitPolicy() gridwalk.WaitPolicy {
	return gridwalk.WaitPolicy{
		FirstTimeout: c.Waits.First,
		OtherTimeout: c.Waits.Other,
		PollInterval: c.Waits.Poll,
	}
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a config manager and loads the initial config. An empty
// cfgFile searches the working directory and $HOME/.gridwalk for
// gridwalk.yaml.
func NewManager(cfgFile string) (*Manager, error) {
	m := &Manager{}
	if err := initViper(cfgFile); err != nil {
		return nil, err
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	m.config = cfg
	return m, nil
}

// initViper sets up viper with defaults, the config file and the
// environment.
func initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("engine", defaults.Engine)
	viper.SetDefault("remote_url", defaults.RemoteURL)
	viper.SetDefault("browser", defaults.Browser)
	viper.SetDefault("headless", defaults.Headless)
	viper.SetDefault("waits.first", defaults.Waits.First)
	viper.SetDefault("waits.other", defaults.Waits.Other)
	viper.SetDefault("waits.poll", defaults.Waits.Poll)
	viper.SetDefault("max_pages", defaults.MaxPages)
	viper.SetDefault("results.url", defaults.Results.URL)
	viper.SetDefault("results.token", defaults.Results.Token)
	viper.SetDefault("artifacts_dir", defaults.ArtifactsDir)

	viper.SetEnvPrefix("GRIDWALK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gridwalk")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.gridwalk")
	}

	// The config file is optional.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

// load parses the current viper state into a Config.
func load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnChange registers a callback invoked after each successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// WatchConfig enables hot-reloading of the configuration file.
func (m *Manager) WatchConfig() {
	viper.OnConfigChange(func(fsnotify.Event) {
		cfg, err := load()
		if err != nil {
			return
		}
		m.mu.Lock()
		m.config = cfg
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte(`# gridwalk configuration
# The results token may use ${ENV_VAR} syntax to reference an environment
# variable, e.g. token: ${GRIDWALK_RESULTS_TOKEN}

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
