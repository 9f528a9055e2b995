// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Dataset   DatasetConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	LogJSON        bool
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	ExportDir string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket used both as a dataset
// source and as the destination of uploaded exports.
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	ExportPrefix string
}

type DatasetConfig struct {
	// Source is one of file, s3, drive, postgres.
	Source               string
	Path                 string
	ObjectKey            string
	DriveFileID          string
	DriveCredentialsJSON string
	Strict               bool
	Watch                bool
	DebounceMillis       int
}

type DashboardConfig struct {
	TargetRate    float64
	ReorderPolicy string
	SearchScope   string
	MaxSessions   int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		setDefaults(v)

		// Read from environment variables
		v.AutomaticEnv()

		instance = fromViper(v)
		ensureDir(instance.App.ExportDir)
	})

	return instance
}

// Debounce returns the quiet period used to coalesce dataset reload triggers.
func (c DatasetConfig) Debounce() time.Duration {
	if c.DebounceMillis <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "invdash")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("APP_EXPORT_DIR", "./data/exports")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_EXPORT_PREFIX", "exports/")
	v.SetDefault("DATASET_SOURCE", "file")
	v.SetDefault("DATASET_PATH", "./data/dataset.json")
	v.SetDefault("DATASET_OBJECT_KEY", "dataset.json")
	v.SetDefault("DATASET_DRIVE_FILE_ID", "")
	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("DATASET_STRICT", true)
	v.SetDefault("DATASET_WATCH", true)
	v.SetDefault("DATASET_DEBOUNCE_MS", 300)
	v.SetDefault("DASHBOARD_TARGET_RATE", 4.0)
	v.SetDefault("DASHBOARD_REORDER_POLICY", "below")
	v.SetDefault("DASHBOARD_SEARCH_SCOPE", "identity")
	v.SetDefault("DASHBOARD_MAX_SESSIONS", 256)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			LogJSON:        v.GetBool("LOG_JSON"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			ExportDir: v.GetString("APP_EXPORT_DIR"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			DashboardTTLSeconds: v.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("STORAGE_ENABLED"),
			Endpoint:     v.GetString("STORAGE_ENDPOINT"),
			AccessKey:    v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:    v.GetString("STORAGE_SECRET_KEY"),
			Bucket:       v.GetString("STORAGE_BUCKET"),
			Region:       v.GetString("STORAGE_REGION"),
			UseSSL:       v.GetBool("STORAGE_USE_SSL"),
			ExportPrefix: v.GetString("STORAGE_EXPORT_PREFIX"),
		},
		Dataset: DatasetConfig{
			Source:               v.GetString("DATASET_SOURCE"),
			Path:                 v.GetString("DATASET_PATH"),
			ObjectKey:            v.GetString("DATASET_OBJECT_KEY"),
			DriveFileID:          v.GetString("DATASET_DRIVE_FILE_ID"),
			DriveCredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			Strict:               v.GetBool("DATASET_STRICT"),
			Watch:                v.GetBool("DATASET_WATCH"),
			DebounceMillis:       v.GetInt("DATASET_DEBOUNCE_MS"),
		},
		Dashboard: DashboardConfig{
			TargetRate:    v.GetFloat64("DASHBOARD_TARGET_RATE"),
			ReorderPolicy: v.GetString("DASHBOARD_REORDER_POLICY"),
			SearchScope:   v.GetString("DASHBOARD_SEARCH_SCOPE"),
			MaxSessions:   v.GetInt("DASHBOARD_MAX_SESSIONS"),
		},
	}
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
