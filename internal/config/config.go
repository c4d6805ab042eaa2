package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port               int           `envconfig:"PORT" default:"8080"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat          string        `envconfig:"LOG_FORMAT" default:"json"`
	DatabaseURL        string        `envconfig:"DATABASE_URL" required:"true"`
	Version            string        `envconfig:"VERSION" default:"dev"`
	BcryptCost         int           `envconfig:"BCRYPT_COST" default:"12"`
	JWTSecret          string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL           time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	RedisURL           string        `envconfig:"REDIS_URL" default:""`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	PublicBaseURL      string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT" default:""`
	S3Bucket       string `envconfig:"S3_BUCKET" default:""`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY" default:""`
	S3SecretKey    string `envconfig:"S3_SECRET_KEY" default:""`
	S3UseSSL       bool   `envconfig:"S3_USE_SSL" default:"true"`
	S3PublicURL    string `envconfig:"S3_PUBLIC_URL" default:""`

	PlayIdleTimeout   time.Duration `envconfig:"PLAY_IDLE_TIMEOUT" default:"2h"`
	PlaySweepInterval time.Duration `envconfig:"PLAY_SWEEP_INTERVAL" default:"1m"`
	PlayMaxSessions   int           `envconfig:"PLAY_MAX_SESSIONS" default:"1000"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
