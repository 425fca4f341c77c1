package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"palavra-arena"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres   Postgres
	Redis      Redis
	Security   Security
	Matchmaker Matchmaker
	Puzzle     Puzzle
	Presence   Presence
	CORS       CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds pub/sub + cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for token verification.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"palavra-arena"`
}

// Matchmaker governs matcher pass cadence and battleship resolution.
type Matchmaker struct {
	PassInterval         time.Duration `env:"MATCHER_PASS_INTERVAL" envDefault:"5s"`
	ForfeitSweepInterval time.Duration `env:"FORFEIT_SWEEP_INTERVAL" envDefault:"30s"`
	ForfeitTimeout       time.Duration `env:"FORFEIT_TIMEOUT" envDefault:"2m"`
}

// Puzzle governs generation limits and the daily pre-generation schedule.
type Puzzle struct {
	MaxCrosswordWords  int    `env:"PUZZLE_MAX_CROSSWORD_WORDS" envDefault:"12"`
	MaxWordSearchWords int    `env:"PUZZLE_MAX_WORDSEARCH_WORDS" envDefault:"10"`
	DailyCron          string `env:"PUZZLE_DAILY_CRON" envDefault:"0 3 * * *"`
}

// Presence governs lobby beacon lifetime.
type Presence struct {
	AnnouncementTTL time.Duration `env:"PRESENCE_TTL" envDefault:"45s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
