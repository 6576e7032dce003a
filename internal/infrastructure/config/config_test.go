package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "payables", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "UTC", cfg.App.Timezone)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "payables", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "memory", cfg.Event.Transport)
		assert.Equal(t, "memory", cfg.Recurrence.TrackerBackend)
		assert.Equal(t, 24*time.Hour, cfg.Recurrence.StepTrackerTTL)
		assert.Equal(t, 360, cfg.Recurrence.MaxInstallments)
		assert.Empty(t, cfg.Ledger.LaunchTypes)
		assert.Equal(t, 10*time.Second, cfg.HTTP.RequestTimeout)
		assert.Empty(t, cfg.HTTP.DefaultTenantID)
	})

	t.Run("loads values from environment variables with PAYABLES prefix", func(t *testing.T) {
		t.Setenv("PAYABLES_APP_PORT", "9000")
		t.Setenv("PAYABLES_APP_TIMEZONE", "America/Sao_Paulo")
		t.Setenv("PAYABLES_DATABASE_HOST", "testdb.local")
		t.Setenv("PAYABLES_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("PAYABLES_EVENT_TRANSPORT", "nats")
		t.Setenv("PAYABLES_RECURRENCE_TRACKER_BACKEND", "redis")
		t.Setenv("PAYABLES_RECURRENCE_STEP_TRACKER_TTL", "2h")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "America/Sao_Paulo", cfg.App.Location().String())
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, "nats", cfg.Event.Transport)
		assert.Equal(t, "redis", cfg.Recurrence.TrackerBackend)
		assert.Equal(t, 2*time.Hour, cfg.Recurrence.StepTrackerTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("PAYABLES_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("PAYABLES_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown transports", func(t *testing.T) {
		t.Setenv("PAYABLES_EVENT_TRANSPORT", "kafka")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event.transport")
	})

	t.Run("rejects a default tenant that is not a UUID", func(t *testing.T) {
		t.Setenv("PAYABLES_HTTP_DEFAULT_TENANT_ID", "acme")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.default_tenant_id")
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		t.Setenv("PAYABLES_APP_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "app.timezone")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires database.password in production", func(t *testing.T) {
		t.Setenv("PAYABLES_APP_ENV", "production")
		t.Setenv("PAYABLES_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		t.Setenv("PAYABLES_APP_ENV", "production")
		t.Setenv("PAYABLES_DATABASE_PASSWORD", "secure-password")
		t.Setenv("PAYABLES_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		t.Setenv("PAYABLES_APP_ENV", "production")
		t.Setenv("PAYABLES_DATABASE_PASSWORD", "secure-password")
		t.Setenv("PAYABLES_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoadFile_LaunchTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payables.toml")
	content := `
[app]
name = "ap-ledger"

[[ledger.launch_types]]
id = "INTEREST"
label = "Interest"
operation = "CREDIT"

[[ledger.launch_types]]
id = "PAYMENT"
label = "Payment"
operation = "DEBIT"
is_settlement = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ap-ledger", cfg.App.Name)
	require.Len(t, cfg.Ledger.LaunchTypes, 2)
	assert.Equal(t, "PAYMENT", cfg.Ledger.LaunchTypes[1].ID)
	assert.True(t, cfg.Ledger.LaunchTypes[1].IsSettlement)
	assert.False(t, cfg.Ledger.LaunchTypes[0].IsSettlement)
}

func TestLoadFile_InvalidLaunchType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payables.toml")
	content := `
[[ledger.launch_types]]
id = "INTEREST"
operation = "SIDEWAYS"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation must be DEBIT or CREDIT")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "testuser", Password: "testpass", DBName: "testdb", SSLMode: "disable"}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
