package config

import (
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.DB.Port != "5432" {
		t.Errorf("DB.Port = %q, want 5432", cfg.DB.Port)
	}
	if cfg.JWT.ExpirationHours != 24 {
		t.Errorf("JWT.ExpirationHours = %d, want 24", cfg.JWT.ExpirationHours)
	}
	if cfg.JWT.RefreshTokenDays != 30 {
		t.Errorf("JWT.RefreshTokenDays = %d, want 30", cfg.JWT.RefreshTokenDays)
	}
	if cfg.Kafka.Enabled() {
		t.Errorf("Kafka.Enabled() = true with no brokers configured")
	}
	if cfg.Storage.MaxUploadMB != 10 {
		t.Errorf("Storage.MaxUploadMB = %d, want 10", cfg.Storage.MaxUploadMB)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DB.Host != "db.internal" {
		t.Errorf("DB.Host = %q, want db.internal", cfg.DB.Host)
	}
	if cfg.DB.MaxOpenConns != 25 {
		t.Errorf("DB.MaxOpenConns = %d, want 25", cfg.DB.MaxOpenConns)
	}
	if cfg.DB.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("DB.ConnMaxLifetime = %v, want 30m", cfg.DB.ConnMaxLifetime)
	}
	if cfg.DB.LogLevel != logger.Silent {
		t.Errorf("DB.LogLevel = %v, want silent", cfg.DB.LogLevel)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("Server.Port = %q, want 9000", cfg.Server.Port)
	}
	if !cfg.Kafka.Enabled() {
		t.Fatalf("Kafka.Enabled() = false, want true")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("Kafka.Brokers = %v, want two trimmed brokers", cfg.Kafka.Brokers)
	}
}

func TestGetDSN(t *testing.T) {
	db := DBConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		DBName:   "finnepal",
		SSLMode:  "disable",
	}
	want := "host=localhost port=5432 user=postgres password=secret dbname=finnepal sslmode=disable"
	if got := db.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_CONNS", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DB.MaxIdleConns != 10 {
		t.Errorf("DB.MaxIdleConns = %d, want default 10 for invalid value", cfg.DB.MaxIdleConns)
	}
}
