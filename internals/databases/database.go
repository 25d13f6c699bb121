package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
)

var DB *gorm.DB

func ConnectDB() {
	configs.Log.Info("connecting to PostgreSQL...")

	// statement_timeout keeps a stuck query below the HTTP request timeout
	cfg := configs.Cfg
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=horseclub&options=-c statement_timeout=3000",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		configs.Log.WithError(err).Fatal("database connection failed")
	}
	DB = db
	configs.Log.Info("DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		configs.Log.WithError(err).Warn("pool tune failed")
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(); err != nil {
			configs.Log.WithError(err).Warn("warm-up ping failed")
		}
	}()
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() {
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
