package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://arangodb:8529", cfg.DatabaseServer)
	assert.Equal(t, "jalapeno", cfg.DatabaseName)
	assert.Equal(t, "root", cfg.Username)
	assert.Equal(t, "jalapeno", cfg.Password)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvDatabaseServer, "http://db.example.com:8529")
	t.Setenv(EnvDatabaseName, "topology")
	t.Setenv(EnvUsername, "api")
	t.Setenv(EnvPassword, "hunter2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://db.example.com:8529", cfg.DatabaseServer)
	assert.Equal(t, "topology", cfg.DatabaseName)
	assert.Equal(t, "api", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
}

func TestLoad_LocalDev(t *testing.T) {
	t.Setenv(EnvDatabaseServer, "http://db.example.com:8529")
	t.Setenv(EnvLocalDev, "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:30852", cfg.DatabaseServer)
}

func TestLoad_ExplicitEmptyIsError(t *testing.T) {
	for _, key := range []string{EnvDatabaseServer, EnvDatabaseName, EnvUsername} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "")
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}
