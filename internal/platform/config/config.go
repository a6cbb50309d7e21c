package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// FundingAccount is the external id of the per-scope funding account
	// used as the counter-leg of deposits and withdrawals.
	FundingAccount string

	// Reconciliation worker tuning.
	WorkerInterval    time.Duration
	WorkerGracePeriod time.Duration
	WorkerMaxAge      time.Duration
	WorkerBatchSize   int

	// Event publishing. An empty broker list disables Kafka and events are
	// dropped via the noop publisher.
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("FUNDING_ACCOUNT", "world")
	viper.SetDefault("WORKER_INTERVAL", "10s")
	viper.SetDefault("WORKER_GRACE_PERIOD", "30s")
	viper.SetDefault("WORKER_MAX_AGE", "15m")
	viper.SetDefault("WORKER_BATCH_SIZE", 50)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "ledger.transactions")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.FundingAccount = viper.GetString("FUNDING_ACCOUNT")

	cfg.WorkerInterval = loadDuration("WORKER_INTERVAL", 10*time.Second)
	cfg.WorkerGracePeriod = loadDuration("WORKER_GRACE_PERIOD", 30*time.Second)
	cfg.WorkerMaxAge = loadDuration("WORKER_MAX_AGE", 15*time.Minute)
	cfg.WorkerBatchSize = viper.GetInt("WORKER_BATCH_SIZE")

	brokers := viper.GetString("KAFKA_BROKERS")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.KafkaTopic = viper.GetString("KAFKA_TOPIC")
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("Warning: KAFKA_BROKERS not set. Transaction events will not be published.")
	}

	return cfg, nil
}

func loadDuration(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
