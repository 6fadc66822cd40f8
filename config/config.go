package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server struct {
		Port string `env:"PORT" envDefault:"5250"`

		// Origins allowed to call the API from a browser
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

		// Gin mode: debug, release or test
		Mode string `env:"GIN_MODE" envDefault:"release"`
	}

	Database struct {
		// sqlite or mysql
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
		DSN    string `env:"DB_DSN" envDefault:"database/loopimmo.db?_busy_timeout=5000&_journal_mode=WAL"`
	}

	Auth struct {
		// Shared secret of the identity provider that signs bearer tokens
		JWTSecret string `env:"JWT_SECRET,required"`
	}

	RateLimit struct {
		// Requests per second allowed per client on public endpoints
		RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
		Burst             int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
	}

	Pricing struct {
		// Optional YAML file overriding the default fee schedule
		ScheduleFile string `env:"PRICING_SCHEDULE_FILE"`

		// Fallback market price used when no comparable listing exists
		DefaultPricePerSqm float64 `env:"DEFAULT_PRICE_PER_SQM" envDefault:"3500"`
	}

	// Activity event processing configuration
	Events struct {
		// Number of batches the queue can buffer
		QueueSize int `env:"EVENT_QUEUE_SIZE" envDefault:"256"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"EVENT_MAX_RETRIES" envDefault:"3"`

		// Delay between retries
		RetryDelay time.Duration `env:"EVENT_RETRY_DELAY" envDefault:"2s"`
	}

	Scheduler struct {
		Interval     time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
		ReminderLead time.Duration `env:"VISIT_REMINDER_LEAD" envDefault:"24h"`
	}

	Telegram struct {
		Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}

	Geocoding struct {
		Enabled  bool   `env:"GEOCODING_ENABLED" envDefault:"true"`
		CacheDir string `env:"GEOCODING_CACHE_DIR"`
	}

	Photos struct {
		// Photo uploads are disabled when no bucket is configured
		Bucket       string        `env:"PHOTOS_BUCKET"`
		Region       string        `env:"AWS_REGION" envDefault:"eu-west-3"`
		UploadExpiry time.Duration `env:"PHOTOS_UPLOAD_EXPIRY" envDefault:"15m"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
