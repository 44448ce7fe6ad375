package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal bool
		expected   bool
	}{
		{"parses true", "TEST_BOOL_1", "true", false, true},
		{"parses 1", "TEST_BOOL_2", "1", false, true},
		{"parses false", "TEST_BOOL_3", "false", true, false},
		{"parses 0", "TEST_BOOL_4", "0", true, false},
		{"uses default for empty", "TEST_BOOL_5", "", true, true},
		{"uses default for garbage", "TEST_BOOL_6", "maybe", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsBoolOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("SEARCH_PROVIDER")
	os.Unsetenv("SEARCH_CACHE_TTL_SECONDS")
	os.Unsetenv("PRO_MODE_ENABLED")

	cfg := Load()

	if cfg.SearchProvider != "tavily" {
		t.Errorf("Expected default provider 'tavily', got %q", cfg.SearchProvider)
	}
	if cfg.SearchCacheTTL != 7200 {
		t.Errorf("Expected default cache TTL 7200, got %d", cfg.SearchCacheTTL)
	}
	if !cfg.ProModeEnabled {
		t.Error("Expected pro mode enabled by default")
	}
}
