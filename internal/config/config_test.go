package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "MIGRATIONS_PATH", "AUTO_MIGRATE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "METRICS_PROMETHEUS", "SIMILAR_ASSESSMENTS_LIMIT"} {
		t.Setenv(k, "")
	}

	if got := ServerAddr(); got != ":8080" {
		t.Errorf("ServerAddr() = %q, want :8080", got)
	}
	if got := MigrationsPath(); got != "migrations" {
		t.Errorf("MigrationsPath() = %q, want migrations", got)
	}
	if AutoMigrate() {
		t.Error("AutoMigrate() should default to false")
	}
	if got := RateLimitRPS(); got != 100 {
		t.Errorf("RateLimitRPS() = %v, want 100", got)
	}
	if got := RateLimitBurst(); got != 20 {
		t.Errorf("RateLimitBurst() = %v, want 20", got)
	}
	if got := LogLevel(); got != "info" {
		t.Errorf("LogLevel() = %q, want info", got)
	}
	if PrometheusEnabled() {
		t.Error("PrometheusEnabled() should default to false")
	}
	if got := SimilarAssessmentsLimit(); got != 5 {
		t.Errorf("SimilarAssessmentsLimit() = %d, want 5", got)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "-3")
	t.Setenv("RATE_LIMIT_BURST", "many")
	t.Setenv("AUTO_MIGRATE", "yes please")

	if got := RateLimitRPS(); got != 100 {
		t.Errorf("RateLimitRPS() = %v, want 100", got)
	}
	if got := RateLimitBurst(); got != 20 {
		t.Errorf("RateLimitBurst() = %v, want 20", got)
	}
	if AutoMigrate() {
		t.Error("unparseable AUTO_MIGRATE should be false")
	}
}

func TestLoadReadsEnvAndSecret(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	if err := os.WriteFile(env, []byte("NETWORK_PATH=nets/course.yaml\nAUTO_MIGRATE=true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env+".secret", []byte("DATABASE_URL=postgres://secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("APTNET_ENV", env)
	t.Setenv("NETWORK_PATH", "")
	t.Setenv("AUTO_MIGRATE", "")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("NETWORK_PATH")
	os.Unsetenv("AUTO_MIGRATE")
	os.Unsetenv("DATABASE_URL")

	if err := Load(); err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if got := NetworkPath(); got != "nets/course.yaml" {
		t.Errorf("NetworkPath() = %q", got)
	}
	if !AutoMigrate() {
		t.Error("AutoMigrate() should be true from env file")
	}
	if got := DatabaseURL(); got != "postgres://secret" {
		t.Errorf("DatabaseURL() = %q", got)
	}
}
