package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Lock  LockConfig
	Seed  SeedConfig
	Log   LogConfig
}

type AppConfig struct {
	Port              string
	Env               string
	CanonicalTimezone string
	StorageDriver     string
	SeedOnStartup     bool
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type LockConfig struct {
	TTL           time.Duration
	WaitTimeout   time.Duration
	RetryInterval time.Duration
}

type SeedConfig struct {
	Doctors    int
	Patients   int
	Visits     int
	RandomSeed int64
}

type LogConfig struct {
	Level string
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_CANONICAL_TIMEZONE", "Local")
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("SEED_ON_STARTUP", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("LOCK_WAIT_TIMEOUT", "5s")
	v.SetDefault("LOCK_RETRY_INTERVAL", "50ms")

	v.SetDefault("SEED_DOCTORS", 10)
	v.SetDefault("SEED_PATIENTS", 1000)
	v.SetDefault("SEED_VISITS", 5000)
	v.SetDefault("SEED_RANDOM_SEED", 1)

	v.SetDefault("LOG_LEVEL", "info")
}

// LoadConfig reads .env (optional) and the environment, environment winning.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Port:              v.GetString("APP_PORT"),
			Env:               v.GetString("APP_ENV"),
			CanonicalTimezone: v.GetString("APP_CANONICAL_TIMEZONE"),
			StorageDriver:     v.GetString("STORAGE_DRIVER"),
			SeedOnStartup:     v.GetBool("SEED_ON_STARTUP"),
		},
		DB: DBConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Lock: LockConfig{
			TTL:           durationOr(v, "LOCK_TTL", 10*time.Second),
			WaitTimeout:   durationOr(v, "LOCK_WAIT_TIMEOUT", 5*time.Second),
			RetryInterval: durationOr(v, "LOCK_RETRY_INTERVAL", 50*time.Millisecond),
		},
		Seed: SeedConfig{
			Doctors:    v.GetInt("SEED_DOCTORS"),
			Patients:   v.GetInt("SEED_PATIENTS"),
			Visits:     v.GetInt("SEED_VISITS"),
			RandomSeed: v.GetInt64("SEED_RANDOM_SEED"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// IsProduction returns true when APP_ENV is "production"
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
