package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// The service runs as a pod with DB credentials, queue URLs and AWS settings
// injected as environment variables. Defaults target the docker-compose stack.

type Config struct {
	DBHost           string `mapstructure:"DB_HOST"`
	DBPort           string `mapstructure:"DB_PORT"`
	DBUser           string `mapstructure:"DB_USER"`
	DBPassword       string `mapstructure:"DB_PASSWORD"`
	DBName           string `mapstructure:"DB_NAME"`
	DBMaxOpenConns   int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	ServerPort       string `mapstructure:"SERVER_PORT"`
	AWSRegion        string `mapstructure:"AWS_REGION"`
	AWSEndpoint      string `mapstructure:"AWS_ENDPOINT"`
	ExportSQSQueue   string `mapstructure:"EXPORT_SQS_QUEUE_URL"`
	EmailSQSQueueURL string `mapstructure:"EMAIL_SQS_QUEUE_URL"`
	LegacyAPIURL     string `mapstructure:"LEGACY_API_URL"`
	EmailSender      string `mapstructure:"EMAIL_SENDER"`
	EmailDomain      string `mapstructure:"EMAIL_DOMAIN"`
	TimeZone         string `mapstructure:"TIMEZONE"`
	OTELEndpoint     string `mapstructure:"OTEL_ENDPOINT"`
	IsLocalDev       bool   `mapstructure:"IS_LOCAL_DEV"`
	WorkerPoolSize   int    `mapstructure:"WORKER_POOL_SIZE"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (config Config, err error) {
	v := viper.New()
	setDefaults(v)

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err = config.Location(); err != nil {
		return config, err
	}
	if config.DBMaxOpenConns <= 0 {
		return config, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", config.DBMaxOpenConns)
	}
	if config.WorkerPoolSize <= 0 {
		return config, fmt.Errorf("WORKER_POOL_SIZE must be positive, got %d", config.WorkerPoolSize)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "hr_db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("AWS_REGION", "ap-southeast-3")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("EXPORT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/payroll-export-queue")
	v.SetDefault("EMAIL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/payroll-email-queue")
	v.SetDefault("LEGACY_API_URL", "http://localhost:8081/")
	v.SetDefault("EMAIL_SENDER", "payroll@hr-backoffice.local")
	v.SetDefault("EMAIL_DOMAIN", "")
	v.SetDefault("TIMEZONE", "Asia/Jakarta")
	v.SetDefault("OTEL_ENDPOINT", "jaeger:4317")
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("WORKER_POOL_SIZE", 10)
}

// Location resolves the zone used to map wall-clock events onto session dates.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// DSN builds the postgres connection URL.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
