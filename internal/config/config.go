// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fawad-mazhar/delos/internal/models"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Loader    LoaderConfig      `yaml:"loader"`
	LoadPlans []models.LoadPlan `yaml:"load_plans"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
}

// LoaderConfig holds async loader configuration
type LoaderConfig struct {
	MaxThreads      int  `yaml:"maxThreads"`
	LogFailures     bool `yaml:"logFailures"`
	ShutdownTimeout int  `yaml:"shutdownTimeout"`
}

// Default configuration values
const (
	DefaultServerPort         = "8080"
	DefaultServerReadTimeout  = 30
	DefaultServerWriteTimeout = 30
	DefaultMaxThreads         = 10
	DefaultShutdownTimeout    = 30
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as boolean or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// Load creates a new configuration with environment variables and load
// plan definitions from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override/set configuration with environment variables and defaults
	config.Server = ServerConfig{
		Port:         getEnv("DELOS_SERVER_PORT", firstNonEmpty(config.Server.Port, DefaultServerPort)),
		ReadTimeout:  getEnvInt("DELOS_SERVER_READ_TIMEOUT", orDefault(config.Server.ReadTimeout, DefaultServerReadTimeout)),
		WriteTimeout: getEnvInt("DELOS_SERVER_WRITE_TIMEOUT", orDefault(config.Server.WriteTimeout, DefaultServerWriteTimeout)),
	}

	config.Loader = LoaderConfig{
		MaxThreads:      getEnvInt("DELOS_LOADER_MAX_THREADS", orDefault(config.Loader.MaxThreads, DefaultMaxThreads)),
		LogFailures:     getEnvBool("DELOS_LOADER_LOG_FAILURES", config.Loader.LogFailures),
		ShutdownTimeout: getEnvInt("DELOS_LOADER_SHUTDOWN_TIMEOUT", orDefault(config.Loader.ShutdownTimeout, DefaultShutdownTimeout)),
	}

	// Initialize empty load plan slice if none were loaded from file
	if config.LoadPlans == nil {
		config.LoadPlans = make([]models.LoadPlan, 0)
	}
	for i := range config.LoadPlans {
		if err := config.LoadPlans[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid load plan in config: %w", err)
		}
	}

	return &config, nil
}

func firstNonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
