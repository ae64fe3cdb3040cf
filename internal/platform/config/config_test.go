package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TL_TEST_STR", "")
	if got := GetEnv("TL_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("empty: got %q", got)
	}
	t.Setenv("TL_TEST_STR", "value")
	if got := GetEnv("TL_TEST_STR", "fallback"); got != "value" {
		t.Errorf("set: got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TL_TEST_INT", "nope")
	if got := GetEnvInt("TL_TEST_INT", 7); got != 7 {
		t.Errorf("invalid: got %d", got)
	}
	t.Setenv("TL_TEST_INT", "42")
	if got := GetEnvInt("TL_TEST_INT", 7); got != 42 {
		t.Errorf("valid: got %d", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TL_TEST_FLOAT", "29.97")
	if got := GetEnvFloat("TL_TEST_FLOAT", 30); got != 29.97 {
		t.Errorf("got %v", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"90", 90 * time.Second},
		{"2m", 2 * time.Minute},
		{"0", time.Minute},
		{"-5s", time.Minute},
		{"soon", time.Minute},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("TL_TEST_DUR", tc.value)
			if got := GetEnvDuration("TL_TEST_DUR", time.Minute); got != tc.want {
				t.Errorf("GetEnvDuration(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestLoad_dotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TL_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TL_TEST_DOTENV", "")
	os.Unsetenv("TL_TEST_DOTENV")

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("TL_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for missing .env")
	}
}

func TestFromEnv_defaults(t *testing.T) {
	for _, k := range []string{"PORT", "HISTORY_STORE", "PROCESSOR", "PROCESS_TIMEOUT", "DEFAULT_FPS",
		"SQLITE_BUSY_TIMEOUT_MS", "RULER_TICKS"} {
		t.Setenv(k, "")
	}
	s := FromEnv()
	if s.Port != "8080" || s.HistoryStore != "memory" || s.Processor != "stub" {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if s.ProcessTimeout != 5*time.Minute || s.DefaultFPS != 30 {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if s.SQLiteBusy != 5*time.Second || s.RulerTicks != 10 {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestFromEnv_integers(t *testing.T) {
	t.Setenv("SQLITE_BUSY_TIMEOUT_MS", "250")
	t.Setenv("RULER_TICKS", "20")
	s := FromEnv()
	if s.SQLiteBusy != 250*time.Millisecond {
		t.Errorf("SQLiteBusy = %v, want 250ms", s.SQLiteBusy)
	}
	if s.RulerTicks != 20 {
		t.Errorf("RulerTicks = %d, want 20", s.RulerTicks)
	}

	t.Setenv("RULER_TICKS", "many")
	if got := FromEnv().RulerTicks; got != 10 {
		t.Errorf("invalid RULER_TICKS: got %d, want fallback 10", got)
	}
}
