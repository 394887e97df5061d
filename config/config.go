package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime parameter, loaded from environment variables.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"8000"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	// Korea public data portal (odcloud) scholarship dataset.
	ScholarshipAPIURL string `envconfig:"SCHOLARSHIP_API_URL" default:"https://api.odcloud.kr/api/15028252/v1/uddi:ccd5ddd5-754a-4eb8-90f0-cb9bce54870b"`
	ServiceKey        string `envconfig:"SERVICE_KEY" required:"true"`
	SyncPageSize      int    `envconfig:"SYNC_PAGE_SIZE" default:"100"`
	SyncMaxPages      int    `envconfig:"SYNC_MAX_PAGES" default:"50"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	JWTSecret        string `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL   int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"60"`
	RefreshTokenTTL  int    `envconfig:"REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
	RequireEmailCode bool   `envconfig:"ENABLE_EMAIL_VERIFICATION" default:"false"`

	// One-time code TTLs, in seconds.
	CodeTTL      int `envconfig:"EMAIL_VERIFICATION_CODE_TTL" default:"120"`
	CodeCooldown int `envconfig:"EMAIL_VERIFICATION_COOLDOWN" default:"60"`
	VerifiedTTL  int `envconfig:"EMAIL_VERIFIED_TTL" default:"600"`

	SMTPHost           string   `envconfig:"SMTP_HOST"`
	SMTPPort           int      `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser           string   `envconfig:"SMTP_USER"`
	SMTPPassword       string   `envconfig:"SMTP_PASSWORD"`
	DefaultFromEmail   string   `envconfig:"DEFAULT_FROM_EMAIL"`
	ContactAdminEmails []string `envconfig:"CONTACT_ADMIN_EMAILS"`

	SyncCronSchedule   string `envconfig:"SYNC_CRON_SCHEDULE" default:"0 3 * * *"`
	RegionCronSchedule string `envconfig:"REGION_CRON_SCHEDULE" default:"30 3 * * *"`
}

// DSN returns the data source name for the PostgreSQL connection.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
