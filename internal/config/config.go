package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Supported backends.
const (
	SettingsBackendFile     = "file"
	SettingsBackendPostgres = "postgres"

	DownloadBackendLocal = "local"
	DownloadBackendMinio = "minio"
)

// Config holds the main configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Settings  Settings  `mapstructure:"settings"`
	Database  Database  `mapstructure:"database"`
	Download  Download  `mapstructure:"download"`
	Storage   Storage   `mapstructure:"storage"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Retry     Retry     `mapstructure:"retry"`
	Processor Processor `mapstructure:"processor"`
	Menu      Menu      `mapstructure:"menu"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Settings selects the synchronized settings store.
type Settings struct {
	Backend   string        `mapstructure:"backend"`    // file or postgres
	Path      string        `mapstructure:"path"`       // settings file for the file backend
	StatusTTL time.Duration `mapstructure:"status_ttl"` // how long save messages stay visible
}

// Database holds database master and slave configuration.
type Database struct {
	Master DatabaseNode   `mapstructure:"master"`
	Slaves []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Download selects where converted images are saved.
type Download struct {
	Backend string `mapstructure:"backend"` // local or minio
	Dir     string `mapstructure:"dir"`     // local download directory
	Prefix  string `mapstructure:"prefix"`  // object prefix for minio
}

// Storage holds configuration for the MinIO download backend.
type Storage struct {
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Kafka holds configuration for the Kafka message queue.
// With no brokers, clicks are dispatched in-process.
type Kafka struct {
	Brokers  []string `mapstructure:"brokers"`  // List of Kafka broker addresses
	Clicks   Topic    `mapstructure:"clicks"`   // menu click queue
	Settings Topic    `mapstructure:"settings"` // settings change feed
}

// Topic is a Kafka topic and the consumer group reading it.
type Topic struct {
	Topic   string `mapstructure:"topic"`    // Kafka topic name
	GroupID string `mapstructure:"group_id"` // Consumer group ID
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Processor tunes the conversion pipeline.
type Processor struct {
	MaxDimension int    `mapstructure:"max_dimension"` // longest side for the fixed-size entry
	JPEGQuality  int    `mapstructure:"jpeg_quality"`  // 1..100
	Filter       string `mapstructure:"filter"`        // resampling filter name
	MaxBytes     int64  `mapstructure:"max_bytes"`     // largest accepted source image
}

// Menu holds context-menu options.
type Menu struct {
	Legacy   bool   `mapstructure:"legacy"`   // register the png-only entries
	Language string `mapstructure:"language"` // default title language
}

// Enabled reports whether a Kafka cluster is configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")
	v.SetDefault("settings.backend", SettingsBackendFile)
	v.SetDefault("settings.path", "./data/settings.yml")
	v.SetDefault("settings.status_ttl", time.Second)
	v.SetDefault("download.backend", DownloadBackendLocal)
	v.SetDefault("download.dir", "./downloads")
	v.SetDefault("kafka.clicks.topic", "image-clicks")
	v.SetDefault("kafka.clicks.group_id", "image-converter")
	v.SetDefault("kafka.settings.topic", "settings-changes")
	v.SetDefault("kafka.settings.group_id", "image-converter-settings")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 100*time.Millisecond)
	v.SetDefault("retry.backoff", 2.0)
	v.SetDefault("processor.max_dimension", 300)
	v.SetDefault("processor.jpeg_quality", 92)
	v.SetDefault("processor.filter", "lanczos")
	v.SetDefault("processor.max_bytes", 64<<20)
	v.SetDefault("menu.language", "en")
}

// bindEnv binds critical environment variables to Viper keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",
		"storage.access_key":   "MINIO_ACCESS_KEY",
		"storage.secret_key":   "MINIO_SECRET_KEY",
		"kafka.brokers":        "KAFKA_BROKERS",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	return nil
}

// Load reads the YAML configuration at path, applying defaults and environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}

func (c *Config) validate() error {
	switch c.Settings.Backend {
	case SettingsBackendFile, SettingsBackendPostgres:
	default:
		return fmt.Errorf("unknown settings backend %q", c.Settings.Backend)
	}

	switch c.Download.Backend {
	case DownloadBackendLocal, DownloadBackendMinio:
	default:
		return fmt.Errorf("unknown download backend %q", c.Download.Backend)
	}

	if c.Processor.JPEGQuality < 1 || c.Processor.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality %d out of range [1, 100]", c.Processor.JPEGQuality)
	}

	return nil
}
