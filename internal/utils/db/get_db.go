package db

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jusconnect/api/internal/config"
	"gorm.io/gorm"
)

// GetDB resolve a string de conexão e abre o banco.
func GetDB(ctx context.Context, cfg config.DatabaseConfig, secrets SecretsClient) (*gorm.DB, error) {
	dsn, err := ResolveDSN(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}
	return ConnectDataBase(dsn, cfg)
}

// ResolveDSN prefere DATABASE_URL; sem ela monta a URL a partir de DB_HOST e credenciais.
func ResolveDSN(ctx context.Context, cfg config.DatabaseConfig, secrets SecretsClient) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}
	if cfg.Host == "" {
		return "", ErrDatabaseURLAusente
	}

	username, password, err := RetrieveCredentials(ctx, cfg, secrets)
	if err != nil {
		return "", err
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(username, password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Name,
	}
	if cfg.SSLModeDisable {
		u.RawQuery = "sslmode=disable"
	}
	return u.String(), nil
}
