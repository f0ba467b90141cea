package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := Load()

	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, 5*24*time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, 15*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Features.EnableEvents)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("GUEST_SESSION_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ENABLE_EVENTS", "true")
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Features.EnableEvents)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=shop sslmode=disable", d.ConnectionString())
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
