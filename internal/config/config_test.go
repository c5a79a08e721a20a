package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantPanic bool
	}{
		{name: "variable set", value: "localhost:6379"},
		{name: "variable not set", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_REQUIRED", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv("TEST_REQUIRED")
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   int
		want  int
	}{
		{"valid integer", "42", 1, 42},
		{"invalid integer uses default", "not_a_number", 7, 7},
		{"missing variable uses default", "", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			if got := getenvInt("TEST_INT", tt.def); got != tt.want {
				t.Errorf("getenvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single value", "value1", []string{"value1"}},
		{"multiple values", "value1, value2 ,value3", []string{"value1", "value2", "value3"}},
		{"quotes and blanks", `"a", ,'b'`, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, splitAndTrim(tt.value)); diff != "" {
				t.Errorf("splitAndTrim() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if result := mustDuration("TEST_DURATION", tt.def); result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"invalid value uses default", "invalid", true, true},
		{"missing variable uses default", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if result := mustBool("TEST_BOOL", tt.def); result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(envPrefix+"REDIS_ADDR", "localhost:6379")
	t.Setenv(envPrefix+"REDIS_PASSWORD_REQUIRED", "false")
	t.Setenv(envPrefix+"CORS_ORIGINS", "https://app.example.com, https://other.example.com")
	t.Setenv(envPrefix+"SESSION_TTL", "2h")
	t.Setenv(envPrefix+"HOMEPAGE_BOOKMARK_FILE", "")

	cfg := Load()

	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %v, want %v", cfg.RedisAddr, "localhost:6379")
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, 2*time.Hour)
	}
	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %v, want %v", cfg.ListenPort, ":8080")
	}
	want := []string{"https://app.example.com", "https://other.example.com"}
	if diff := cmp.Diff(want, cfg.CORSOrigins); diff != "" {
		t.Errorf("CORSOrigins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPanicsWithoutRedisPassword(t *testing.T) {
	t.Setenv(envPrefix+"REDIS_ADDR", "localhost:6379")
	t.Setenv(envPrefix+"REDIS_PASSWORD_REQUIRED", "true")
	t.Setenv(envPrefix+"REDIS_PASSWORD", "")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked")
		}
	}()
	Load()
}
