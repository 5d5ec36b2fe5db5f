package config

import (
	"os"
	"strings"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// GetEnv returns the value of an environment variable or a default value if not set.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvironment returns the current environment, read straight from
// SAMTIME_SERVER_ENVIRONMENT. Defaults to development.
func GetEnvironment() string {
	return strings.ToLower(GetEnv("SAMTIME_SERVER_ENVIRONMENT", EnvDevelopment))
}

// IsProductionLike returns true for staging and production.
func IsProductionLike() bool {
	env := GetEnvironment()
	return env == EnvStaging || env == EnvProduction
}

// IsDevelopment reports whether the given environment name is the development one.
func IsDevelopment(environment string) bool {
	return strings.EqualFold(environment, EnvDevelopment)
}
