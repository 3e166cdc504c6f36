package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "brokercrm-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
}

func TestValidate(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		require.NoError(t, cfg.validate())
	})

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Database.MaxIdleConns = 50
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires password and ssl", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"
		assert.Error(t, cfg.validate())

		cfg.Database.Password = "secret"
		assert.Error(t, cfg.validate())

		cfg.Database.SSLMode = "require"
		assert.NoError(t, cfg.validate())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Database.Driver = "mysql"
		assert.Error(t, cfg.validate())
	})

	t.Run("production rejects sqlite", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"
		cfg.Database.Driver = DriverSQLite
		assert.Error(t, cfg.validate())
	})

	t.Run("production rejects wildcard cors", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.Error(t, cfg.validate())
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "crm",
		Password: "p@ss/word",
		DBName:   "brokercrm",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss/word")

	d.Driver = DriverSQLite
	d.Path = "local.db"
	assert.Equal(t, "local.db", d.DSN())
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
