package config

import (
	"fmt"
)

// ServerConfig contains HTTP server settings, shared by WatchtowerConfig.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains database connection settings, shared by WatchtowerConfig.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// MonitoringConfig contains monitoring and metrics settings, shared by WatchtowerConfig.
type MonitoringConfig struct {
	Enabled        bool   `yaml:"enabled"`
	MetricsPort    int    `yaml:"metrics_port"`
	HealthCheckURL string `yaml:"health_check_url"`
}

// LoggingConfig contains logging settings, shared by WatchtowerConfig.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"output_path"`
}

// GetConnectionString returns a PostgreSQL connection string for c.
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
