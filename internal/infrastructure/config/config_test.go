package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "estudio-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 7, cfg.FX.LookbackDays)
	assert.Equal(t, 3, cfg.FX.MaxAttempts)
	assert.Equal(t, float64(4), cfg.FX.BackfillRatePerSec)
	assert.Equal(t, "03:00", cfg.Scheduler.RunAt)
	assert.Equal(t, 7, cfg.Scheduler.WindowDays)

	t.Run("existing values are kept", func(t *testing.T) {
		cfg := &Config{}
		cfg.App.Port = "9090"
		cfg.FX.LookbackDays = 14
		applyDefaults(cfg)
		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, 14, cfg.FX.LookbackDays)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().validate())
	})

	t.Run("rejects idle conns exceeding open conns", func(t *testing.T) {
		cfg := valid()
		cfg.Database.MaxIdleConns = 100
		cfg.Database.MaxOpenConns = 10
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects a malformed run_at", func(t *testing.T) {
		for _, at := range []string{"3am", "25:00", "03:60", ""} {
			cfg := valid()
			cfg.Scheduler.RunAt = at
			assert.Error(t, cfg.validate(), "expected %q to be rejected", at)
		}
	})

	t.Run("production requires hardened settings", func(t *testing.T) {
		cfg := valid()
		cfg.App.Env = "production"
		assert.Error(t, cfg.validate(), "missing password")

		cfg.Database.Password = "secret"
		assert.Error(t, cfg.validate(), "sslmode disable")

		cfg.Database.SSLMode = "require"
		assert.Error(t, cfg.validate(), "missing provider url")

		cfg.FX.ProviderBaseURL = "https://rates.example.com"
		assert.NoError(t, cfg.validate())

		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.Error(t, cfg.validate(), "wildcard cors")
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "estudio",
		Password: "p@ss:word/1",
		DBName:   "estudio",
		SSLMode:  "require",
	}
	dsn := d.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5433")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss:word/1", "password must be escaped")
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
