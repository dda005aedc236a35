package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL  = "http://localhost:5500"
	DefaultLivePath = "/socket.io/"
	DefaultDeviceID = 1
	DefaultTimeZone = "America/Mexico_City"

	configName = ".carrito-cli"
	envPrefix  = "CARRITO"
)

// Config is the process-wide configuration. It is loaded once at startup and
// passed around by value.
type Config struct {
	BaseURL  string
	LiveURL  string
	LivePath string
	DeviceID int64
	TimeZone string
	Timeout  time.Duration
	Log      LogConfig
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults() {
	viper.SetDefault("base_url", DefaultBaseURL)
	viper.SetDefault("live_url", "")
	viper.SetDefault("live_path", DefaultLivePath)
	viper.SetDefault("device_id", DefaultDeviceID)
	viper.SetDefault("tz", DefaultTimeZone)
	viper.SetDefault("timeout", "15s")
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		// Search config in home directory with name ".carrito-cli" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(configName)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		// An explicit --config that does not exist is an error; a missing default file is not.
		if cfgFile == "" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load snapshots the current viper state into a Config.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:  strings.TrimRight(viper.GetString("base_url"), "/"),
		LiveURL:  strings.TrimRight(viper.GetString("live_url"), "/"),
		LivePath: viper.GetString("live_path"),
		DeviceID: viper.GetInt64("device_id"),
		TimeZone: viper.GetString("tz"),
		Timeout:  viper.GetDuration("timeout"),
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}

	if cfg.BaseURL == "" {
		return Config{}, errors.New("base_url is not set; run 'carrito-cli configure' or pass --base-url")
	}
	if cfg.DeviceID <= 0 {
		return Config{}, fmt.Errorf("device_id must be positive, got %d", cfg.DeviceID)
	}
	if cfg.LiveURL == "" {
		cfg.LiveURL = cfg.BaseURL + "/ws"
	}
	if cfg.LivePath == "" {
		cfg.LivePath = DefaultLivePath
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultTimeZone
	}
	return cfg, nil
}

// SaveSettings updates the config file with the given keys.
func SaveSettings(values map[string]any) error {
	for k, v := range values {
		viper.Set(k, v)
	}

	// Ensure the file exists before writing
	if err := viper.WriteConfig(); err != nil {
		// If file doesn't exist, create it
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return viper.SafeWriteConfig()
		}
		// If it exists but failed to write, try writing to default path
		home, herr := os.UserHomeDir()
		if herr != nil {
			return err
		}
		return viper.WriteConfigAs(filepath.Join(home, configName+".yaml"))
	}
	return nil
}
