package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
	Throttle ThrottleConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type AuthConfig struct {
	Secret          string
	AccessTTLMin    int
	RefreshTTLHours int
	AdminUsername   string
	AdminPassword   string
}

// ThrottleConfig holds per-role request rates (requests per second).
type ThrottleConfig struct {
	AnonRPS   float64
	ClientRPS float64
	StaffRPS  float64
	Burst     int
}

// Load reads the two-level YAML config format used across the project
// (top-level sections, key: value pairs below them).
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable"},
		RabbitMQ: RabbitMQConfig{Port: 5672, VHost: "/"},
		Auth:     AuthConfig{AccessTTLMin: 30, RefreshTTLHours: 168},
		Throttle: ThrottleConfig{AnonRPS: 2, ClientRPS: 10, StaffRPS: 30, Burst: 20},
	}

	var section string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			section = strings.TrimSuffix(line, ":")
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if err := cfg.setValue(section, key, value); err != nil {
			return nil, fmt.Errorf("config value %s.%s: %w", section, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.Database == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("auth.secret is required")
	}
	return cfg, nil
}

func (c *Config) setValue(section, key, value string) error {
	switch section {
	case "server":
		if key == "port" {
			return setInt(&c.Server.Port, value)
		}
	case "database":
		switch key {
		case "host":
			c.Database.Host = value
		case "port":
			return setInt(&c.Database.Port, value)
		case "user":
			c.Database.User = value
		case "password":
			c.Database.Password = value
		case "database":
			c.Database.Database = value
		case "sslmode":
			c.Database.SSLMode = value
		}
	case "rabbitmq":
		switch key {
		case "host":
			c.RabbitMQ.Host = value
		case "port":
			return setInt(&c.RabbitMQ.Port, value)
		case "user":
			c.RabbitMQ.User = value
		case "password":
			c.RabbitMQ.Password = value
		case "vhost":
			c.RabbitMQ.VHost = value
		}
	case "auth":
		switch key {
		case "secret":
			c.Auth.Secret = value
		case "access_ttl_min":
			return setInt(&c.Auth.AccessTTLMin, value)
		case "refresh_ttl_hours":
			return setInt(&c.Auth.RefreshTTLHours, value)
		case "admin_username":
			c.Auth.AdminUsername = value
		case "admin_password":
			c.Auth.AdminPassword = value
		}
	case "throttle":
		switch key {
		case "anon_rps":
			return setFloat(&c.Throttle.AnonRPS, value)
		case "client_rps":
			return setFloat(&c.Throttle.ClientRPS, value)
		case "staff_rps":
			return setFloat(&c.Throttle.StaffRPS, value)
		case "burst":
			return setInt(&c.Throttle.Burst, value)
		}
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer %q", value)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", value)
	}
	*dst = f
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
		c.Database.Database, c.Database.SSLMode)
}

// RabbitMQURL returns an AMQP connection URL.
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port,
		strings.TrimPrefix(c.RabbitMQ.VHost, "/"))
}
