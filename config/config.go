package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "FC"

type Config struct {
	ServerAddres     string        `mapstructure:"server_addr" validate:"required"`
	DbURL            string        `mapstructure:"db_url" validate:"required"`
	JWTSecret        string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL         time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	AdminEmailDomain string        `mapstructure:"admin_email_domain" validate:"omitempty,fqdn"`
	CORSOrigins      []string      `mapstructure:"cors_origins" validate:"dive,required"`

	Log       LogConfig       `mapstructure:"log"`
	Content   ContentConfig   `mapstructure:"content"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type ContentConfig struct {
	Backend   string   `mapstructure:"backend" validate:"oneof=local s3"`
	LocalPath string   `mapstructure:"local_path" validate:"required_if=Backend local"`
	S3        S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
}

// RedisConfig is optional: an empty Addr keeps the listing cache in process.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// RateLimitConfig applies to the routes guests can call.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

var validate = validator.New()

// LoadConfig reads .env (if present), then FC_* environment variables and
// the optional config file, applies defaults and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	// a missing .env is the normal case in containers
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// every key needs a default, otherwise AutomaticEnv never sees it on Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("db_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("admin_email_domain", "")
	v.SetDefault("cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("content.backend", "local")
	v.SetDefault("content.local_path", "uploads")
	v.SetDefault("content.s3.bucket", "")
	v.SetDefault("content.s3.region", "")
	v.SetDefault("content.s3.endpoint", "")
	v.SetDefault("content.s3.access_key_id", "")
	v.SetDefault("content.s3.secret_access_key", "")
	v.SetDefault("content.s3.key_prefix", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")

	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 20)
}

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if cfg.Content.Backend == "s3" {
		if cfg.Content.S3.Bucket == "" || cfg.Content.S3.Region == "" {
			return fmt.Errorf("content.s3: bucket and region are required for the s3 backend")
		}
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
