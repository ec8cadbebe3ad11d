package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Models     ModelsConfig     `mapstructure:"models"`
	Editing    EditingConfig    `mapstructure:"editing"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	GinMode            string `mapstructure:"gin_mode"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
	MaxUploadSizeMB    int    `mapstructure:"max_upload_size_mb"`
}

type DatabaseConfig struct {
	DSN                  string `mapstructure:"dsn"`
	Slaves               string `mapstructure:"slaves"`
	MaxOpenConns         int    `mapstructure:"max_open_conns"`
	MaxIdleConns         int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec   int    `mapstructure:"conn_max_lifetime_sec"`
	ConnectRetries       int    `mapstructure:"connect_retries"`
	ConnectRetryDelaySec int    `mapstructure:"connect_retry_delay_sec"`
}

// SlaveDSNs returns the comma separated replica DSNs with blanks dropped.
func (c DatabaseConfig) SlaveDSNs() []string {
	parts := strings.Split(c.Slaves, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type MigrationsConfig struct {
	Path string `mapstructure:"path"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type StorageConfig struct {
	Type         string `mapstructure:"type"`
	LocalPath    string `mapstructure:"local_path"`
	CanonicalDir string `mapstructure:"canonical_dir"`
	UploadDir    string `mapstructure:"upload_dir"`
	EditedDir    string `mapstructure:"edited_dir"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

type DatasetConfig struct {
	LabelsFile string   `mapstructure:"labels_file"`
	Extensions []string `mapstructure:"extensions"`
}

type ModelsConfig struct {
	Dir            string   `mapstructure:"dir"`
	BaseURL        string   `mapstructure:"base_url"`
	OnnxRuntimeLib string   `mapstructure:"onnxruntime_lib"`
	InputName      string   `mapstructure:"input_name"`
	OutputName     string   `mapstructure:"output_name"`
	Prewarm        bool     `mapstructure:"prewarm"`
	Allowed        []string `mapstructure:"allowed"`
}

type EditingConfig struct {
	OutputQuality     int `mapstructure:"output_quality"`
	EditedTTLSec      int `mapstructure:"edited_ttl_sec"`
	CleanupIntervalMS int `mapstructure:"cleanup_interval_ms"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Apply sets the global zlog level.
func (c LoggingConfig) Apply() error {
	if err := zlog.SetLevel(c.Level); err != nil {
		return fmt.Errorf("logging.level %q: %w", c.Level, err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(appConfig)
	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("storage_type", appConfig.Storage.Type).
		Str("local_path", appConfig.Storage.LocalPath).
		Str("models_dir", appConfig.Models.Dir).
		Strs("models", appConfig.Models.Allowed).
		Msg("Config loaded successfully via wbf")

	return appConfig, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.GinMode == "" {
		cfg.Server.GinMode = "release"
	}
	if cfg.Storage.CanonicalDir == "" {
		cfg.Storage.CanonicalDir = "imagenet_subset"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.Storage.EditedDir == "" {
		cfg.Storage.EditedDir = "edited"
	}
	if cfg.Dataset.LabelsFile == "" {
		cfg.Dataset.LabelsFile = "imagenet_labels.json"
	}
	if len(cfg.Dataset.Extensions) == 0 {
		cfg.Dataset.Extensions = []string{".JPEG"}
	}
	if cfg.Models.InputName == "" {
		cfg.Models.InputName = "input"
	}
	if cfg.Models.OutputName == "" {
		cfg.Models.OutputName = "output"
	}
	if cfg.Editing.OutputQuality <= 0 {
		cfg.Editing.OutputQuality = 95
	}
	if cfg.Editing.EditedTTLSec <= 0 {
		cfg.Editing.EditedTTLSec = 600
	}
	if cfg.Editing.CleanupIntervalMS <= 0 {
		cfg.Editing.CleanupIntervalMS = 1000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func validateConfig(cfg *Config) error {
	// Server
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server.write_timeout_sec must be positive")
	}
	if cfg.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb must be positive")
	}

	// Database
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be non-negative")
	}
	if cfg.Migrations.Path == "" {
		return fmt.Errorf("migrations.path is required")
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must contain at least one broker")
	}
	if cfg.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required")
	}
	if cfg.Kafka.GroupID == "" {
		return fmt.Errorf("kafka.group_id is required")
	}

	if err := validateStorage(&cfg.Storage); err != nil {
		return err
	}

	// Models
	if cfg.Models.Dir == "" {
		return fmt.Errorf("models.dir is required")
	}

	if cfg.Editing.OutputQuality > 100 {
		return fmt.Errorf("editing.output_quality must be in 1..100")
	}

	return nil
}

func validateStorage(cfg *StorageConfig) error {
	switch cfg.Type {
	case "":
		return fmt.Errorf("storage.type is required (local|s3)")
	case "local":
		if cfg.LocalPath == "" {
			return fmt.Errorf("storage.local_path is required for local storage")
		}
	case "s3":
		if cfg.S3Endpoint == "" {
			return fmt.Errorf("storage.s3_endpoint is required for s3 storage")
		}
		if cfg.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
		if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return fmt.Errorf("storage.s3_access_key and storage.s3_secret_key are required for s3 storage")
		}
	default:
		return fmt.Errorf("storage.type must be 'local' or 's3'")
	}

	dirs := []string{cfg.CanonicalDir, cfg.UploadDir, cfg.EditedDir}
	for i := range dirs {
		for j := i + 1; j < len(dirs); j++ {
			if dirs[i] == dirs[j] {
				return fmt.Errorf("storage tiers must use distinct directories, %q is used twice", dirs[i])
			}
		}
	}
	return nil
}
