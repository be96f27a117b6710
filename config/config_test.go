package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "shipbox"
kafka:
  host: "localhost"
  port: 9092
  tracking_updated_topic_name: "tracking.updated"
redis:
  host: "localhost"
  port: 6379
correios:
  username: "file-user"
  password: "file-pass"
shipbox:
  http_addr: ":8080"
  data_dir: "./data"
  sync_schedule: "@every 30m"
`), 0o600))
	return p
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "tracking.updated", cfg.Kafka.TrackingUpdatedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.ShipBox.HTTPAddr)
	require.Equal(t, "@every 30m", cfg.ShipBox.SyncSchedule)
	require.Equal(t, "postgres://u:p@localhost:5432/shipbox?sslmode=disable", cfg.PostgresConnString())
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers())
	require.True(t, cfg.PrimaryEnabled())
	require.True(t, cfg.CorreiosEnabled())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CORREIOS_USERNAME", "env-user")
	t.Setenv("CORREIOS_TOKEN", "tok")
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_ZIP_CODE", "")

	cfg, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)
	require.Equal(t, "env-user", cfg.Correios.Username)
	require.Equal(t, "file-pass", cfg.Correios.Password)
	require.Equal(t, "tok", cfg.Correios.Token)
	require.Equal(t, "production", cfg.ShipBox.Env)
	require.Equal(t, DefaultStoreZipCode, cfg.ShipBox.StoreZipCode)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))

	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte("SHIPBOX_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("SHIPBOX_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SHIPBOX_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(p))
	require.Equal(t, "from-file", os.Getenv("SHIPBOX_TEST_DOTENV"))
}
