package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jusconnect/api/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDatabaseURLAusente é devolvido quando nenhuma forma de conexão foi configurada.
var ErrDatabaseURLAusente = errors.New("conexão com o banco não configurada: defina DATABASE_URL ou DB_HOST")

// ConnectDataBase abre o pool sem pingar; falhas de conexão aparecem nos inicializadores,
// que sabem esperar o banco subir.
func ConnectDataBase(dsn string, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrDatabaseURLAusente
	}

	level := logger.Error
	if cfg.LogSQL {
		level = logger.Info
	}

	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               logger.Default.LogMode(level),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("abrindo conexão com o banco: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("obtendo pool do banco: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return database, nil
}

// Ping verifica se o banco responde, usado no /health.
func Ping(ctx context.Context, database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
