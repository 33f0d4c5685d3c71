package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds every environment knob the backend reads. Secrets (DB URL,
// JWT secret, Drive credentials) are injected via the environment; a .env
// file is loaded in main for local development.
type Config struct {
	Addr         string `env:"ADDR" envDefault:":8080"`
	DatabaseURL  string `env:"DATABASE_URL,required"`
	JWTSecret    string `env:"JWT_SECRET,required"`
	AllowOrigins string `env:"ALLOW_ORIGINS" envDefault:"*"`

	// Google Drive acts as the remote image host.
	DriveCredentialsFile string `env:"DRIVE_CREDENTIALS_FILE"`
	DriveFolderID        string `env:"DRIVE_FOLDER_ID"`

	// Optional Kafka audit trail. Empty brokers disables publishing.
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	AuditTopic   string `env:"AUDIT_TOPIC" envDefault:"dress-shop.audit"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
