package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Drivers de armazenamento de arquivos aceitos em FILE_STORAGE_DRIVER.
const (
	StorageLocal    = "local"
	StorageDisabled = "disabled"
	StorageS3       = "s3"
)

// Config agrupa toda a configuração da API.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Storage     StorageConfig
	CORS        CORSConfig
	Log         LogConfig
	Notificacao NotificacaoConfig
	RateLimit   RateLimitConfig
	Cobranca    CobrancaConfig
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr retorna host:porta para o http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig aceita DATABASE_URL ou as variáveis DB_* usadas no deploy com Secrets Manager.
type DatabaseConfig struct {
	URL            string `env:"DATABASE_URL"`
	Host           string `env:"DB_HOST"`
	Port           uint   `env:"DB_PORT" env-default:"5432"`
	Name           string `env:"DB_NAME"`
	Username       string `env:"DB_USERNAME"`
	Password       string `env:"DB_PASSWORD"`
	SecretID       string `env:"DB_SECRET_ID"`
	SSLModeDisable bool   `env:"DB_SSL_MODE_DISABLE"`
	MaxOpenConns   int    `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns   int    `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	LogSQL         bool   `env:"DB_LOG_SQL"`
}

type AuthConfig struct {
	RSAPrivatePath    string        `env:"AUTH_RSA_PRIVATE_PATH"`
	KID               string        `env:"AUTH_KID"             env-default:"jus-connect-1"`
	Issuer            string        `env:"AUTH_ISSUER"          env-default:"jus-connect"`
	Audience          string        `env:"AUTH_AUDIENCE"        env-default:"jus-connect-web"`
	AccessTTL         time.Duration `env:"AUTH_ACCESS_TTL"      env-default:"15m"`
	RefreshTTL        time.Duration `env:"AUTH_REFRESH_TTL"     env-default:"720h"`
	CookieSecure      bool          `env:"COOKIE_SECURE"`
	SupabaseJWTSecret string        `env:"SUPABASE_JWT_SECRET"`
}

type StorageConfig struct {
	Driver    string `env:"FILE_STORAGE_DRIVER"     env-default:"local"`
	Root      string `env:"FILE_STORAGE_ROOT"       env-default:"./uploads"`
	PublicURL string `env:"FILE_STORAGE_PUBLIC_URL" env-default:"/arquivos"`
	S3Bucket  string `env:"FILE_STORAGE_S3_BUCKET"`
	S3Region  string `env:"FILE_STORAGE_S3_REGION"  env-default:"us-east-1"`
	MaxBytes  int64  `env:"FILE_STORAGE_MAX_BYTES"  env-default:"20971520"`
}

type CORSConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
}

// Origins devolve a lista de origens sem espaços e sem itens vazios.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

type NotificacaoConfig struct {
	WebhookURL string        `env:"NOTIFICATION_WEBHOOK_URL"`
	Timeout    time.Duration `env:"NOTIFICATION_TIMEOUT" env-default:"5s"`
}

type RateLimitConfig struct {
	LoginPorMinuto int `env:"LOGIN_RATE_PER_MINUTE" env-default:"10"`
	LoginBurst     int `env:"LOGIN_RATE_BURST"      env-default:"5"`
}

// CobrancaConfig controla a varredura diária de faturas vencidas.
type CobrancaConfig struct {
	CronVencimento string `env:"BILLING_OVERDUE_CRON" env-default:"0 3 * * *"`
	Desabilitado   bool   `env:"BILLING_CRON_DISABLED"`
}

// Load lê o .env (quando existir) e depois as variáveis de ambiente.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: lendo %s: %w", envFile, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: lendo ambiente: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate rejeita combinações que só falhariam mais tarde, em tempo de requisição.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.Root) == "" {
			return errors.New("FILE_STORAGE_ROOT obrigatório para o driver local")
		}
	case StorageS3:
		if strings.TrimSpace(c.Storage.S3Bucket) == "" {
			return errors.New("FILE_STORAGE_S3_BUCKET obrigatório para o driver s3")
		}
	case StorageDisabled:
	default:
		return fmt.Errorf("FILE_STORAGE_DRIVER inválido: %q", c.Storage.Driver)
	}
	if c.Storage.MaxBytes <= 0 {
		return errors.New("FILE_STORAGE_MAX_BYTES deve ser positivo")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("AUTH_ACCESS_TTL e AUTH_REFRESH_TTL devem ser positivos")
	}
	return nil
}
