// Package config resolves the service configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Environment variables. The JALAPENO_ prefix matches what the deployment
// manifests export alongside the collectors.
const (
	EnvDatabaseServer = "JALAPENO_database_server"
	EnvDatabaseName   = "JALAPENO_database_name"
	EnvUsername       = "JALAPENO_username"
	EnvPassword       = "JALAPENO_password"

	// EnvLocalDev substitutes the developer NodePort endpoint so the server
	// can run against a cluster from a workstation.
	EnvLocalDev = "LOCAL_DEV"

	defaultDatabaseServer = "http://arangodb:8529"
	localDevServer        = "http://localhost:30852"
	defaultDatabaseName   = "jalapeno"
	defaultUsername       = "root"
	defaultPassword       = "jalapeno"
)

// Config is the resolved database configuration.
type Config struct {
	DatabaseServer string
	DatabaseName   string
	Username       string
	Password       string
}

// Load resolves configuration from the environment. Settings explicitly set
// to an empty string are an error rather than a silent fallback.
func Load() (Config, error) {
	cfg := Config{
		DatabaseServer: getenv(EnvDatabaseServer, defaultDatabaseServer),
		DatabaseName:   getenv(EnvDatabaseName, defaultDatabaseName),
		Username:       getenv(EnvUsername, defaultUsername),
		Password:       getenv(EnvPassword, defaultPassword),
	}
	if os.Getenv(EnvLocalDev) == "true" {
		cfg.DatabaseServer = localDevServer
	}

	if cfg.DatabaseServer == "" {
		return Config{}, fmt.Errorf("%s must not be empty", EnvDatabaseServer)
	}
	if cfg.DatabaseName == "" {
		return Config{}, fmt.Errorf("%s must not be empty", EnvDatabaseName)
	}
	if cfg.Username == "" {
		return Config{}, fmt.Errorf("%s must not be empty", EnvUsername)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
