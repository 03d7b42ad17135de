package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"

	StorageFilesystem = "filesystem"
	StorageMinIO      = "minio"
	StorageGridFS     = "gridfs"
)

// devJWTSecret is only accepted when ENV=development.
const devJWTSecret = "medicare-hub-dev-secret"

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	StoreDriver     string        `mapstructure:"STORE_DRIVER"`
	MongoURI        string        `mapstructure:"MONGODB_URI"`
	MongoDatabase   string        `mapstructure:"MONGODB_DATABASE"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn    time.Duration `mapstructure:"JWT_EXPIRES_IN"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	MaxFileSize     int64         `mapstructure:"MAX_FILE_SIZE"`
	StorageBackend  string        `mapstructure:"STORAGE_BACKEND"`
	SharedMountPath string        `mapstructure:"SHARED_MOUNT_PATH"`
	SharedUploadDir string        `mapstructure:"SHARED_UPLOAD_DIR"`
	LocalUploadDir  string        `mapstructure:"LOCAL_UPLOAD_DIR"`
	MinIOEndpoint   string        `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey  string        `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey  string        `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket     string        `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL     bool          `mapstructure:"MINIO_USE_SSL"`
	GridFSBucket    string        `mapstructure:"GRIDFS_BUCKET"`
}

var keys = []string{
	"PORT",
	"ENV",
	"STORE_DRIVER",
	"MONGODB_URI",
	"MONGODB_DATABASE",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"JWT_SECRET",
	"JWT_EXPIRES_IN",
	"CORS_ORIGINS",
	"MAX_FILE_SIZE",
	"STORAGE_BACKEND",
	"SHARED_MOUNT_PATH",
	"SHARED_UPLOAD_DIR",
	"LOCAL_UPLOAD_DIR",
	"MINIO_ENDPOINT",
	"MINIO_ACCESS_KEY",
	"MINIO_SECRET_KEY",
	"MINIO_BUCKET",
	"MINIO_USE_SSL",
	"GRIDFS_BUCKET",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", StoreDriverMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017/medicare_hub")
	v.SetDefault("MONGODB_DATABASE", "medicare_hub")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_EXPIRES_IN", "168h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("STORAGE_BACKEND", StorageFilesystem)
	v.SetDefault("SHARED_MOUNT_PATH", "/mnt/efs")
	v.SetDefault("SHARED_UPLOAD_DIR", "/mnt/efs/reports")
	v.SetDefault("LOCAL_UPLOAD_DIR", "uploads/reports")
	v.SetDefault("MINIO_BUCKET", "reports")
	v.SetDefault("GRIDFS_BUCKET", "reports")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate checks that the configuration is safe to run. Backend-specific
// settings are only required for the backend that is selected.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER is %q", c.StoreDriver)
		}
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverMongo, StoreDriverPostgres, c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV is %q", c.Env)
	}
	if c.JWTSecret == devJWTSecret && !c.IsDev() {
		return fmt.Errorf("JWT_SECRET must be set explicitly outside development")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.JWTExpiresIn)
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}

	switch c.StorageBackend {
	case StorageFilesystem:
		if c.LocalUploadDir == "" {
			return fmt.Errorf("LOCAL_UPLOAD_DIR is required when STORAGE_BACKEND is %q", c.StorageBackend)
		}
	case StorageMinIO:
		if c.MinIOEndpoint == "" || c.MinIOAccessKey == "" || c.MinIOSecretKey == "" || c.MinIOBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required when STORAGE_BACKEND is %q", c.StorageBackend)
		}
	case StorageGridFS:
		if c.StoreDriver != StoreDriverMongo {
			return fmt.Errorf("STORAGE_BACKEND %q requires STORE_DRIVER %q", StorageGridFS, StoreDriverMongo)
		}
		if c.GridFSBucket == "" {
			return fmt.Errorf("GRIDFS_BUCKET is required when STORAGE_BACKEND is %q", c.StorageBackend)
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q, %q or %q, got %q", StorageFilesystem, StorageMinIO, StorageGridFS, c.StorageBackend)
	}

	return nil
}
