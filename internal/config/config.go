package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBconfig
	RabbitMq RabbitMqconfig
	App      Appconfig
	Mail     Mailconfig
	Media    Mediaconfig
	Srv      Serviceconfig
	Log      Loggerconfig
}

type DBconfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"portal_user"`
	Password string `env:"DB_PASSWORD" envDefault:"portal_pass"`
	Database string `env:"DB_NAME" envDefault:"portal_db"`
}

type RabbitMqconfig struct {
	Host     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	Port     int    `env:"RABBITMQ_PORT" envDefault:"5672"`
	User     string `env:"RABBITMQ_USER" envDefault:"guest"`
	Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	VHost    string `env:"RABBITMQ_VHOST" envDefault:""`
}

// Appconfig holds the session signing secret and the public URL the
// verification link points at. The secret has no default on purpose:
// a service without one must not start.
type Appconfig struct {
	JwtSecret string `env:"JWT_SECRET,required"`
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
}

type Mailconfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	Sender               string `env:"MAIL_SENDER,required"`
}

type Mediaconfig struct {
	Bucket      string `env:"MEDIA_BUCKET,required"`
	Region      string `env:"MEDIA_REGION,required"`
	AccessKeyID string `env:"MEDIA_ACCESS_KEY_ID,required"`
	SecretKey   string `env:"MEDIA_SECRET_KEY,required"`
	Endpoint    string `env:"MEDIA_ENDPOINT" envDefault:""`
	BaseURL     string `env:"MEDIA_BASE_URL,required"`
}

type Serviceconfig struct {
	AuthServicePort string `env:"AUTH_SERVICE_PORT" envDefault:"3000"`
}

type Loggerconfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// New loads the configuration once at process start. A .env file is
// optional; missing required secrets are a fatal startup error.
func New() (*Config, error) {
	_ = godotenv.Load()

	cnf := &Config{}
	if err := env.Parse(cnf); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cnf, nil
}
