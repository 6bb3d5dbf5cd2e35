package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds everything the process needs. It is built once in main and
// passed by pointer to the components that need it.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP   HTTPConfig
	Mongo  MongoConfig
	Auth   AuthConfig
	Mail   MailConfig
	Stripe StripeConfig
	Upload UploadConfig
	Redis  RedisConfig
}

type HTTPConfig struct {
	Port         string `env:"PORT" envDefault:"8080"`
	CorsURL      string `env:"CORS_URL" envDefault:"http://localhost:3000"`
	DashboardURL string `env:"DASHBOARD_URL"`
}

// AllowedOrigins returns the non-empty CORS origins.
func (c HTTPConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range []string{c.CorsURL, c.DashboardURL} {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

type MongoConfig struct {
	URI     string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/"`
	DBName  string        `env:"DB_NAME" envDefault:"marketplace"`
	Timeout time.Duration `env:"MONGO_TIMEOUT" envDefault:"10s"`
}

type AuthConfig struct {
	SecretKey  string        `env:"SECRET_KEY"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"0s"` // zero means tokens carry no exp claim
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}

const (
	MailProviderSMTP     = "smtp"
	MailProviderSendGrid = "sendgrid"
)

type MailConfig struct {
	Provider       string `env:"MAIL_PROVIDER" envDefault:"smtp"`
	SMTPHost       string `env:"EMAIL_SERVER_KEY"`
	SMTPPort       int    `env:"EMAIL_SERVER_PORT" envDefault:"587"`
	From           string `env:"EMAIL"`
	Password       string `env:"PASSWORD"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	ProductName    string `env:"MAIL_PRODUCT_NAME" envDefault:"Suisse Offerten"`
	ProductLink    string `env:"MAIL_PRODUCT_LINK" envDefault:"https://suisse-offerten.ch"`
	SupportMail    string `env:"SUPPORT_MAIL"`
	ResetURL       string `env:"RESET_PASSWORD_URL" envDefault:"https://suisse-offerten.ch/client-change-password"`
}

type StripeConfig struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY"`
	PriceOneMonth  string `env:"PRICING_ID_ONE"`
	PriceThreeMon  string `env:"PRICING_ID_TOW"`
	PriceSixMonth  string `env:"PRICING_ID_THREE"`
	PriceOneYear   string `env:"PRICING_ID_FOUR"`
	CreditCurrency string `env:"CREDIT_CURRENCY" envDefault:"chf"`
	CreditTaxCode  string `env:"CREDIT_TAX_CODE" envDefault:"txcd_20030000"`
}

// PriceID maps a membership plan name to its gateway price id. Unknown or
// unconfigured plans yield "".
func (c StripeConfig) PriceID(plan string) string {
	switch plan {
	case "oneMonth":
		return c.PriceOneMonth
	case "threeMonth":
		return c.PriceThreeMon
	case "sixMonth":
		return c.PriceSixMonth
	case "oneYear":
		return c.PriceOneYear
	}
	return ""
}

const (
	UploadDriverLocal = "local"
	UploadDriverS3    = "s3"
)

type UploadConfig struct {
	Driver     string `env:"UPLOAD_DRIVER" envDefault:"local"`
	Dir        string `env:"UPLOAD_DIR" envDefault:"uploads"`
	AWSRegion  string `env:"AWS_REGION" envDefault:"eu-central-1"`
	BucketName string `env:"AWS_BUCKET_NAME"`
}

type RedisConfig struct {
	Addr     string  `env:"REDIS_ADDR"`
	Password string  `env:"REDIS_PASSWORD"`
	OTPRate  float64 `env:"OTP_RATE" envDefault:"0.2"` // tokens per second
	OTPBurst float64 `env:"OTP_BURST" envDefault:"3"`
}

// Load reads an optional .env file, then parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Msg("No .env file found, using system environment variables")
		} else {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("missing SECRET_KEY environment variable")
	}
	switch c.Mail.Provider {
	case MailProviderSMTP:
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("missing EMAIL_SERVER_KEY environment variable")
		}
	case MailProviderSendGrid:
		if c.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("missing SENDGRID_API_KEY environment variable")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}
	switch c.Upload.Driver {
	case UploadDriverLocal:
	case UploadDriverS3:
		if c.Upload.BucketName == "" {
			return fmt.Errorf("missing AWS_BUCKET_NAME environment variable")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_DRIVER %q", c.Upload.Driver)
	}
	if c.Auth.BcryptCost <= 0 {
		return fmt.Errorf("BCRYPT_COST must be positive")
	}
	return nil
}
