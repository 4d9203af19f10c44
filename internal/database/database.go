package database

import (
	"database/sql"
	"fmt"

	"bouncer-system/internal/config"
	"bouncer-system/internal/logger"

	_ "github.com/lib/pq"
)

// DB оборачивает подключение к PostgreSQL.
type DB struct {
	*sql.DB
}

// Connect создает подключение к базе данных.
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Successfully connected to PostgreSQL")

	return &DB{DB: db}, nil
}

// Health проверяет доступность базы данных.
func (d *DB) Health() error {
	if d == nil || d.DB == nil {
		return fmt.Errorf("database is not initialized")
	}
	return d.Ping()
}

// Close закрывает подключение.
func (d *DB) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
