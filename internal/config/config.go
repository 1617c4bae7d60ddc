// Package config provides configuration management for keeper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/xvierd/keeper/internal/domain"
)

// Config holds all configuration for the keeper application.
type Config struct {
	Daemon        DaemonConfig       `mapstructure:"daemon"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Badge         BadgeConfig        `mapstructure:"badge"`
	View          ViewConfig         `mapstructure:"view"`
	Defaults      DefaultsConfig     `mapstructure:"defaults"`
}

// DaemonConfig holds settings for the background timer process.
type DaemonConfig struct {
	Socket            string   `mapstructure:"socket"`
	WakeInterval      Duration `mapstructure:"wake_interval"`
	KeepAliveInterval Duration `mapstructure:"keepalive_interval"`
	LogFile           string   `mapstructure:"log_file"`
	RequestTimeout    Duration `mapstructure:"request_timeout"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// BadgeConfig holds the countdown badge settings.
type BadgeConfig struct {
	File          string `mapstructure:"file"`
	ColorPomodoro string `mapstructure:"color_pomodoro"`
	ColorBreak    string `mapstructure:"color_break"`
}

// ViewConfig holds the foreground refresh cadence.
type ViewConfig struct {
	TickInterval      Duration `mapstructure:"tick_interval"`
	SyncInterval      Duration `mapstructure:"sync_interval"`
	DriftTolerance    Duration `mapstructure:"drift_tolerance"`
	SettleDelay       Duration `mapstructure:"settle_delay"`
	ForceSyncInterval Duration `mapstructure:"force_sync_interval"`
}

// DefaultsConfig holds the settings seeded into the store on first install.
type DefaultsConfig struct {
	PomodoroDuration   int    `mapstructure:"pomodoro_duration"`
	ShortBreakDuration int    `mapstructure:"short_break_duration"`
	LongBreakDuration  int    `mapstructure:"long_break_duration"`
	AutoStartBreaks    bool   `mapstructure:"auto_start_breaks"`
	AutoStartPomodoros bool   `mapstructure:"auto_start_pomodoros"`
	NotificationSound  string `mapstructure:"notification_sound"`
}

// Settings converts the install defaults into domain settings.
func (d DefaultsConfig) Settings() domain.Settings {
	s := domain.DefaultSettings()
	if d.PomodoroDuration > 0 {
		s.PomodoroDuration = d.PomodoroDuration
	}
	if d.ShortBreakDuration > 0 {
		s.ShortBreakDuration = d.ShortBreakDuration
	}
	if d.LongBreakDuration > 0 {
		s.LongBreakDuration = d.LongBreakDuration
	}
	s.AutoStartBreaks = d.AutoStartBreaks
	s.AutoStartPomodoros = d.AutoStartPomodoros
	if d.NotificationSound != "" {
		s.NotificationSound = d.NotificationSound
	}
	return s
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

const defaultDataDir = "~/.keeper"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			WakeInterval:      Duration(time.Second),
			KeepAliveInterval: Duration(time.Minute),
			RequestTimeout:    Duration(2 * time.Second),
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   true,
		},
		Badge: BadgeConfig{
			ColorPomodoro: "#4dabf7",
			ColorBreak:    "#51cf66",
		},
		View: ViewConfig{
			TickInterval:      Duration(100 * time.Millisecond),
			SyncInterval:      Duration(2 * time.Second),
			DriftTolerance:    Duration(2 * time.Second),
			SettleDelay:       Duration(300 * time.Millisecond),
			ForceSyncInterval: Duration(500 * time.Millisecond),
		},
		Defaults: DefaultsConfig{
			PomodoroDuration:   25,
			ShortBreakDuration: 5,
			LongBreakDuration:  15,
			NotificationSound:  domain.SoundBell,
		},
	}
}

// Load loads the configuration from the default config file.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFile(configPath)
}

// LoadFile loads the configuration from configPath, creating it with defaults if missing.
func LoadFile(configPath string) (*Config, error) {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix("keeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveFile(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.ResolvePaths(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ResolvePaths expands ~ and fills in file locations derived from the data directory.
func (c *Config) ResolvePaths() error {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = defaultDataDir
	}

	var err error
	if c.Storage.DataDir, err = expandHome(c.Storage.DataDir); err != nil {
		return err
	}
	if c.Daemon.Socket == "" {
		c.Daemon.Socket = filepath.Join(c.Storage.DataDir, "keeper.sock")
	}
	if c.Daemon.LogFile == "" {
		c.Daemon.LogFile = filepath.Join(c.Storage.DataDir, "daemon.log")
	}
	if c.Badge.File == "" {
		c.Badge.File = filepath.Join(c.Storage.DataDir, "badge")
	}

	for _, p := range []*string{&c.Daemon.Socket, &c.Daemon.LogFile, &c.Badge.File} {
		if *p, err = expandHome(*p); err != nil {
			return err
		}
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// SaveFile writes the configuration to configPath.
func SaveFile(configPath string, cfg *Config) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Set all values
	v.Set("daemon.socket", cfg.Daemon.Socket)
	v.Set("daemon.wake_interval", cfg.Daemon.WakeInterval.String())
	v.Set("daemon.keepalive_interval", cfg.Daemon.KeepAliveInterval.String())
	v.Set("daemon.log_file", cfg.Daemon.LogFile)
	v.Set("daemon.request_timeout", cfg.Daemon.RequestTimeout.String())
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.sound", cfg.Notifications.Sound)
	v.Set("badge.file", cfg.Badge.File)
	v.Set("badge.color_pomodoro", cfg.Badge.ColorPomodoro)
	v.Set("badge.color_break", cfg.Badge.ColorBreak)
	v.Set("view.tick_interval", cfg.View.TickInterval.String())
	v.Set("view.sync_interval", cfg.View.SyncInterval.String())
	v.Set("view.drift_tolerance", cfg.View.DriftTolerance.String())
	v.Set("view.settle_delay", cfg.View.SettleDelay.String())
	v.Set("view.force_sync_interval", cfg.View.ForceSyncInterval.String())
	v.Set("defaults.pomodoro_duration", cfg.Defaults.PomodoroDuration)
	v.Set("defaults.short_break_duration", cfg.Defaults.ShortBreakDuration)
	v.Set("defaults.long_break_duration", cfg.Defaults.LongBreakDuration)
	v.Set("defaults.auto_start_breaks", cfg.Defaults.AutoStartBreaks)
	v.Set("defaults.auto_start_pomodoros", cfg.Defaults.AutoStartPomodoros)
	v.Set("defaults.notification_sound", cfg.Defaults.NotificationSound)

	return v.WriteConfig()
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".keeper", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "keeper.db")
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("daemon.socket", "")
	v.SetDefault("daemon.wake_interval", d.Daemon.WakeInterval.String())
	v.SetDefault("daemon.keepalive_interval", d.Daemon.KeepAliveInterval.String())
	v.SetDefault("daemon.log_file", "")
	v.SetDefault("daemon.request_timeout", d.Daemon.RequestTimeout.String())
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.sound", true)
	v.SetDefault("badge.file", "")
	v.SetDefault("badge.color_pomodoro", d.Badge.ColorPomodoro)
	v.SetDefault("badge.color_break", d.Badge.ColorBreak)
	v.SetDefault("view.tick_interval", d.View.TickInterval.String())
	v.SetDefault("view.sync_interval", d.View.SyncInterval.String())
	v.SetDefault("view.drift_tolerance", d.View.DriftTolerance.String())
	v.SetDefault("view.settle_delay", d.View.SettleDelay.String())
	v.SetDefault("view.force_sync_interval", d.View.ForceSyncInterval.String())
	v.SetDefault("defaults.pomodoro_duration", d.Defaults.PomodoroDuration)
	v.SetDefault("defaults.short_break_duration", d.Defaults.ShortBreakDuration)
	v.SetDefault("defaults.long_break_duration", d.Defaults.LongBreakDuration)
	v.SetDefault("defaults.auto_start_breaks", false)
	v.SetDefault("defaults.auto_start_pomodoros", false)
	v.SetDefault("defaults.notification_sound", d.Defaults.NotificationSound)
}
