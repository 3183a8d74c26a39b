package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
# test config
server:
  port: 9090

database:
  host: db.local
  port: 5433
  user: app
  password: "secret"
  database: orders

rabbitmq:
  host: mq.local
  user: guest
  password: guest

auth:
  secret: test-secret
  access_ttl_min: 15
  admin_username: admin
  admin_password: admin1234

throttle:
  anon_rps: 1.5
  burst: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.local" || cfg.Database.Port != 5433 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("quotes not stripped: %q", cfg.Database.Password)
	}
	if cfg.RabbitMQ.Port != 5672 {
		t.Errorf("rabbitmq.port default = %d, want 5672", cfg.RabbitMQ.Port)
	}
	if cfg.Auth.AccessTTLMin != 15 {
		t.Errorf("auth.access_ttl_min = %d, want 15", cfg.Auth.AccessTTLMin)
	}
	if cfg.Auth.RefreshTTLHours != 168 {
		t.Errorf("auth.refresh_ttl_hours default = %d, want 168", cfg.Auth.RefreshTTLHours)
	}
	if cfg.Throttle.AnonRPS != 1.5 || cfg.Throttle.Burst != 5 {
		t.Errorf("throttle = %+v", cfg.Throttle)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.local
  user: app
  database: orders
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing auth.secret")
	}
}

func TestLoad_IncompleteDatabase(t *testing.T) {
	path := writeConfig(t, `
auth:
  secret: s
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for incomplete database config")
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "h", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}}
	want := "postgres://u:p@h:5432/d?sslmode=disable"
	if got := cfg.DatabaseURL(); got != want {
		t.Errorf("DatabaseURL() = %q, want %q", got, want)
	}
}
