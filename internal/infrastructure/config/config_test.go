package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "perception", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "perception", cfg.Database.DBName)
		assert.True(t, cfg.Database.AutoMigrate)
		assert.Equal(t, "memory", cfg.Cache.Backend)
		assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, "perception", cfg.Telemetry.ServiceName)
		assert.True(t, cfg.Telemetry.LogsEnabled)
		assert.True(t, cfg.Perception.FiscalLocalization)
		assert.True(t, cfg.Seed.Enabled)
		assert.Equal(t, "configs/perception_catalog.yaml", cfg.Seed.Path)
		assert.Equal(t, "00000000-0000-0000-0000-000000000001", cfg.Perception.DefaultTenantID)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PERCEPTION_APP_PORT", "9090")
		t.Setenv("PERCEPTION_DATABASE_DRIVER", "sqlite")
		t.Setenv("PERCEPTION_DATABASE_PATH", ":memory:")
		t.Setenv("PERCEPTION_CACHE_BACKEND", "redis")
		t.Setenv("PERCEPTION_CACHE_TTL", "30s")
		t.Setenv("PERCEPTION_PERCEPTION_FISCAL_LOCALIZATION", "false")
		t.Setenv("PERCEPTION_TELEMETRY_LOGS_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.Path)
		assert.Equal(t, "redis", cfg.Cache.Backend)
		assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
		assert.False(t, cfg.Perception.FiscalLocalization)
		assert.False(t, cfg.Telemetry.LogsEnabled)
	})

	t.Run("invalid driver", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PERCEPTION_DATABASE_DRIVER", "mysql")

		_, err := Load()
		assert.ErrorContains(t, err, "database.driver")
	})

	t.Run("production requires password", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PERCEPTION_APP_ENV", "production")

		_, err := Load()
		assert.ErrorContains(t, err, "database.password")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "idle above open", mutate: func(c *Config) { c.Database.MaxIdleConns = 50 }, wantErr: "max_idle_conns"},
		{name: "unknown cache backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: "cache.backend"},
		{name: "sampling ratio", mutate: func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, wantErr: "sampling_ratio"},
		{name: "sqlite in production", mutate: func(c *Config) {
			c.App.Env = "production"
			c.Database.Driver = "sqlite"
		}, wantErr: "sqlite"},
		{name: "production with tls", mutate: func(c *Config) {
			c.App.Env = "production"
			c.Database.Password = "secret"
			c.Database.SSLMode = "require"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "erp", Password: "p@ss word", DBName: "perception", SSLMode: "disable"}
	assert.Equal(t, "postgres://erp:p%40ss%20word@db:5432/perception?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
