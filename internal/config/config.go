package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the env driven console configuration. Entrypoints load a .env
// file through the godotenv autoload import before this is read.
type Config struct {
	Host string
	Port string

	DatabaseURL string

	CORSOrigins []string

	// hosted File Search API
	APIKey  string
	BaseURL string

	// Drive OAuth files
	DriveCredentialsFile string
	DriveTokenFile       string

	// scheduler sweep specs in cron format
	LocalSweep string
	DriveSweep string

	SyncTimeout time.Duration

	BackupDir           string
	BackupCompression   string
	BackupRetentionDays int

	RedisAddr string
	CacheTTL  time.Duration

	KafkaBrokers string
	KafkaTopic   string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Host:                 getEnv("HOST", "0.0.0.0"),
		Port:                 getEnv("PORT", "8000"),
		DatabaseURL:          getEnv("DATABASE_URL", "filesearch.db"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "*")),
		APIKey:               getEnv("FILESEARCH_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		BaseURL:              getEnv("FILESEARCH_BASE_URL", ""),
		DriveCredentialsFile: getEnv("GOOGLE_DRIVE_CREDENTIALS", "credentials.json"),
		DriveTokenFile:       getEnv("GOOGLE_DRIVE_TOKEN", "token.json"),
		LocalSweep:           getEnv("SYNC_LOCAL_SWEEP", "@every 3m"),
		DriveSweep:           getEnv("SYNC_DRIVE_SWEEP", "@every 5m"),
		SyncTimeout:          getDuration("SYNC_TIMEOUT", 2*time.Minute),
		BackupDir:            getEnv("BACKUP_DIR", "backups"),
		BackupCompression:    getEnv("BACKUP_COMPRESSION", "gzip"),
		BackupRetentionDays:  getInt("BACKUP_RETENTION_DAYS", 30),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		CacheTTL:             getDuration("CACHE_TTL", time.Minute),
		KafkaBrokers:         getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "filesearch.sync.events"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
}

// Addr is the REST listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
