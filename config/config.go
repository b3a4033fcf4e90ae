package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Camera   CameraConfig   `mapstructure:"camera" yaml:"camera"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend"` // memory | file | postgres
	Dir           string `mapstructure:"dir" yaml:"dir"`
	DatabaseURL   string `mapstructure:"database_url" yaml:"database_url"`
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key"`
	Prefix        string `mapstructure:"prefix" yaml:"prefix"`
}

type DetectorConfig struct {
	Kind     string        `mapstructure:"kind" yaml:"kind"` // simulated | gocv | http
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Seed     int64         `mapstructure:"seed" yaml:"seed"`
}

type AnalysisConfig struct {
	FrameInterval time.Duration `mapstructure:"frame_interval" yaml:"frame_interval"`
	Workers       int           `mapstructure:"workers" yaml:"workers"`
	DetectTimeout time.Duration `mapstructure:"detect_timeout" yaml:"detect_timeout"`
}

type CameraConfig struct {
	Device int `mapstructure:"device" yaml:"device"`
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл, затем окружение.
func Load(configPath string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".inspect")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("INSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Исторические имена переменных окружения
	_ = v.BindEnv("telegram.token", "INSPECT_TELEGRAM_TOKEN", "TELEGRAM_TOKEN")
	_ = v.BindEnv("storage.database_url", "INSPECT_STORAGE_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("telegram.token", cfg.Telegram.Token)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.dir", cfg.Storage.Dir)
	v.SetDefault("storage.database_url", cfg.Storage.DatabaseURL)
	v.SetDefault("storage.encryption_key", cfg.Storage.EncryptionKey)
	v.SetDefault("storage.prefix", cfg.Storage.Prefix)
	v.SetDefault("detector.kind", cfg.Detector.Kind)
	v.SetDefault("detector.endpoint", cfg.Detector.Endpoint)
	v.SetDefault("detector.timeout", cfg.Detector.Timeout)
	v.SetDefault("detector.seed", cfg.Detector.Seed)
	v.SetDefault("analysis.frame_interval", cfg.Analysis.FrameInterval)
	v.SetDefault("analysis.workers", cfg.Analysis.Workers)
	v.SetDefault("analysis.detect_timeout", cfg.Analysis.DetectTimeout)
	v.SetDefault("camera.device", cfg.Camera.Device)
}

func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Backend:       "file",
			Dir:           ".inspect-data",
			EncryptionKey: "speed-inspect-secret-key-2024",
			Prefix:        "speed_inspect_",
		},
		Detector: DetectorConfig{
			Kind:    "simulated",
			Timeout: 2 * time.Minute,
		},
		Analysis: AnalysisConfig{
			FrameInterval: 500 * time.Millisecond,
			Workers:       1,
		},
	}
}

func (c *Config) Validate() error {
	if err := c.validateLog(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be non-negative")
	}
	return nil
}

func (c *Config) validateLog() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "memory":
	case "file":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir must be set for the file backend")
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of memory, file, postgres")
	}
	if c.Storage.EncryptionKey == "" {
		return fmt.Errorf("storage.encryption_key must not be empty")
	}
	return nil
}

func (c *Config) validateDetector() error {
	switch c.Detector.Kind {
	case "simulated", "gocv":
	case "http":
		if c.Detector.Endpoint == "" {
			return fmt.Errorf("detector.endpoint must be set for the http detector")
		}
	default:
		return fmt.Errorf("detector.kind must be one of simulated, gocv, http")
	}
	if c.Detector.Timeout < 0 {
		return fmt.Errorf("detector.timeout must be non-negative")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.FrameInterval <= 0 {
		return fmt.Errorf("analysis.frame_interval must be positive")
	}
	if c.Analysis.Workers <= 0 {
		return fmt.Errorf("analysis.workers must be positive")
	}
	if c.Analysis.DetectTimeout < 0 {
		return fmt.Errorf("analysis.detect_timeout must be non-negative")
	}
	return nil
}
