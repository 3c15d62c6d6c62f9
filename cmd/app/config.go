package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/sushihentaime/dreamblog/internal/common"
)

type Config struct {
	Port        string `mapstructure:"PORT" validate:"required,numeric"`
	Environment string `mapstructure:"ENVIRONMENT" validate:"oneof=development staging production"`
	Version     string `mapstructure:"VERSION"`
	BaseURL     string `mapstructure:"BASE_URL" validate:"required,url"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE" validate:"required_if=Environment production"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE" validate:"required_if=Environment production"`

	MigrationsPath  string        `mapstructure:"MIGRATIONS_PATH" validate:"required"`
	TagsFile        string        `mapstructure:"TAGS_FILE"`
	BlacklistWords  []string      `mapstructure:"BLACKLIST_WORDS"`
	SweeperInterval time.Duration `mapstructure:"SWEEPER_INTERVAL" validate:"gt=0"`

	DB       DBConfig       `mapstructure:",squash"`
	Mail     MailConfig     `mapstructure:",squash"`
	RabbitMQ RabbitMQConfig `mapstructure:",squash"`
	JWT      JWTConfig      `mapstructure:",squash"`
	Limiter  LimiterConfig  `mapstructure:",squash"`
}

type DBConfig struct {
	Host         string        `mapstructure:"POSTGRES_HOST" validate:"required"`
	Port         string        `mapstructure:"POSTGRES_PORT" validate:"required,numeric"`
	User         string        `mapstructure:"POSTGRES_USER" validate:"required"`
	Password     string        `mapstructure:"POSTGRES_PASSWORD" validate:"required"`
	Name         string        `mapstructure:"POSTGRES_DB" validate:"required"`
	MaxOpenConns int           `mapstructure:"POSTGRES_MAX_OPEN_CONNS" validate:"gt=0"`
	MaxIdleConns int           `mapstructure:"POSTGRES_MAX_IDLE_CONNS" validate:"gt=0"`
	MaxIdleTime  time.Duration `mapstructure:"POSTGRES_MAX_IDLE_TIME" validate:"gt=0"`
}

type MailConfig struct {
	Host     string `mapstructure:"MAIL_HOST" validate:"required"`
	Port     int    `mapstructure:"MAIL_PORT" validate:"gt=0"`
	User     string `mapstructure:"MAIL_USER"`
	Password string `mapstructure:"MAIL_PASSWORD"`
	Sender   string `mapstructure:"MAIL_SENDER" validate:"required"`
}

type RabbitMQConfig struct {
	Host     string `mapstructure:"RABBITMQ_HOST" validate:"required"`
	Port     string `mapstructure:"RABBITMQ_PORT" validate:"required,numeric"`
	User     string `mapstructure:"RABBITMQ_USER" validate:"required"`
	Password string `mapstructure:"RABBITMQ_PASSWORD" validate:"required"`
}

// JWTConfig holds one signing secret per token purpose.
type JWTConfig struct {
	AccessSecret       string `mapstructure:"JWT_ACCESS_SECRET" validate:"required,min=32"`
	RefreshSecret      string `mapstructure:"JWT_REFRESH_SECRET" validate:"required,min=32"`
	VerificationSecret string `mapstructure:"JWT_VERIFICATION_SECRET" validate:"required,min=32"`
	DeletionSecret     string `mapstructure:"JWT_DELETION_SECRET" validate:"required,min=32"`
}

// LimiterConfig throttles login attempts per client IP. An RPS of zero disables it.
type LimiterConfig struct {
	RPS   float64 `mapstructure:"LOGIN_RATE_LIMIT" validate:"gte=0"`
	Burst int     `mapstructure:"LOGIN_RATE_BURST" validate:"gte=0"`
}

var configDefaults = map[string]any{
	"PORT":                    "4000",
	"ENVIRONMENT":             "development",
	"VERSION":                 "1.0.0",
	"BASE_URL":                "http://localhost:4000",
	"TLS_CERT_FILE":           "",
	"TLS_KEY_FILE":            "",
	"MIGRATIONS_PATH":         "file://migrations",
	"TAGS_FILE":               "",
	"BLACKLIST_WORDS":         "",
	"SWEEPER_INTERVAL":        "24h",
	"POSTGRES_HOST":           "",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_USER":           "",
	"POSTGRES_PASSWORD":       "",
	"POSTGRES_DB":             "",
	"POSTGRES_MAX_OPEN_CONNS": 25,
	"POSTGRES_MAX_IDLE_CONNS": 25,
	"POSTGRES_MAX_IDLE_TIME":  "15m",
	"MAIL_HOST":               "",
	"MAIL_PORT":               587,
	"MAIL_USER":               "",
	"MAIL_PASSWORD":           "",
	"MAIL_SENDER":             "",
	"RABBITMQ_HOST":           "",
	"RABBITMQ_PORT":           "5672",
	"RABBITMQ_USER":           "",
	"RABBITMQ_PASSWORD":       "",
	"JWT_ACCESS_SECRET":       "",
	"JWT_REFRESH_SECRET":      "",
	"JWT_VERIFICATION_SECRET": "",
	"JWT_DELETION_SECRET":     "",
	"LOGIN_RATE_LIMIT":        2,
	"LOGIN_RATE_BURST":        5,
}

// loadConfig reads the .env file at path. Environment variables override file values.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) dsn() string {
	return common.DSN(c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name)
}

func (c *Config) amqpURI() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
