package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DispatchPolicy decides what happens when an upstream provider rejects or
// fails a dispatched order.
type DispatchPolicy string

const (
	// DispatchReject rolls the placement back and surfaces the failure.
	DispatchReject DispatchPolicy = "reject"
	// DispatchAccept creates the order PENDING without a provider id and
	// leaves it for the sync cron / manual reconciliation.
	DispatchAccept DispatchPolicy = "accept"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cron     CronConfig
	Order    OrderConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type CronConfig struct {
	// Secret guards the HTTP sweep endpoints (query param or bearer token).
	Secret string
	// SweepBatch caps how many pending deposits one sweep processes.
	SweepBatch int
}

type OrderConfig struct {
	InvoicePrefix  string
	DispatchPolicy DispatchPolicy
}

type NotifyConfig struct {
	TelegramToken string
	TelegramAdmin string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CRON_SWEEP_BATCH", 200)
	viper.SetDefault("INVOICE_PREFIX", "INV")
	viper.SetDefault("ORDER_DISPATCH_POLICY", string(DispatchReject))

	policy := DispatchPolicy(viper.GetString("ORDER_DISPATCH_POLICY"))
	if policy != DispatchReject && policy != DispatchAccept {
		log.Printf("WARNING: unknown ORDER_DISPATCH_POLICY %q, using %q", policy, DispatchReject)
		policy = DispatchReject
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Cron: CronConfig{
			Secret:     viper.GetString("CRON_SECRET"),
			SweepBatch: viper.GetInt("CRON_SWEEP_BATCH"),
		},
		Order: OrderConfig{
			InvoicePrefix:  viper.GetString("INVOICE_PREFIX"),
			DispatchPolicy: policy,
		},
		Notify: NotifyConfig{
			TelegramToken: viper.GetString("NOTIFY_TELEGRAM_TOKEN"),
			TelegramAdmin: viper.GetString("NOTIFY_TELEGRAM_ADMIN"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Cron.Secret == "" {
		log.Println("WARNING: CRON_SECRET is not set, sweep endpoints are disabled")
	}

	return cfg, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
