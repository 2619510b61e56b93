package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	AMQPURL            string        `env:"AMQP_URL"`
	EventsExchange     string        `env:"EVENTS_EXCHANGE" envDefault:"banking.events"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`

	InterestSchedule string `env:"INTEREST_SCHEDULE" envDefault:"*/10 * * * *"`

	CoinGeckoURL    string        `env:"COINGECKO_URL" envDefault:"https://api.coingecko.com/api/v3"`
	CoinGeckoAPIKey string        `env:"COINGECKO_API_KEY"`
	CoinGeckoCoins  []string      `env:"COINGECKO_COIN_IDS" envDefault:"bitcoin,ethereum,tether,binancecoin,solana,ripple" envSeparator:","`
	PriceCacheTTL   time.Duration `env:"PRICE_CACHE_TTL" envDefault:"2m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTExpiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	if c.OutboxPollInterval <= 0 {
		return errors.New("OUTBOX_POLL_INTERVAL must be positive")
	}
	if len(c.CoinGeckoCoins) == 0 || strings.TrimSpace(c.CoinGeckoCoins[0]) == "" {
		return errors.New("COINGECKO_COIN_IDS must name at least one coin")
	}
	return nil
}
