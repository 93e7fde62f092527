package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "livepage"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "livepage" {
			t.Errorf("expected logging service name to follow config name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "livepage", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

type testPages struct {
	BufferSize        int           `mapstructure:"buffer_size"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pages         testPages `mapstructure:"pages"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: livepage
environment: staging
pages:
  buffer_size: 4
  heartbeat_interval: 15s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("livepage", &cfg, WithConfigFile(configPath), WithEnvPrefix("LPTEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "livepage" {
		t.Errorf("expected name 'livepage', got %q", cfg.Name)
	}
	if cfg.Pages.BufferSize != 4 {
		t.Errorf("expected buffer_size 4, got %d", cfg.Pages.BufferSize)
	}
	if cfg.Pages.HeartbeatInterval != 15*time.Second {
		t.Errorf("expected heartbeat 15s, got %v", cfg.Pages.HeartbeatInterval)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: livepage\npages:\n  buffer_size: 1\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("LPTEST_PAGES_BUFFER_SIZE", "8")

	var cfg testConfig
	if err := LoadConfig("livepage", &cfg, WithConfigFile(configPath), WithEnvPrefix("LPTEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pages.BufferSize != 8 {
		t.Errorf("expected env override buffer_size 8, got %d", cfg.Pages.BufferSize)
	}
	if cfg.Name != "livepage" {
		t.Errorf("expected file value to survive, got %q", cfg.Name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvPrefix("LPTEST"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

// envFS serves one env file whose variables are applied on load.
type envFS struct {
	path   string
	env    map[string]string
	loaded []string
	err    error
}

func (f *envFS) Exists(path string) bool { return path == f.path }

func (f *envFS) LoadEnv(path string) error {
	f.loaded = append(f.loaded, path)
	if f.err != nil {
		return f.err
	}
	for k, v := range f.env {
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}

func TestLoadConfigWithFileSystem(t *testing.T) {
	// Registers cleanup for the variable the env file sets.
	t.Setenv("LPFS_PAGES_BUFFER_SIZE", "")

	fs := &envFS{path: "/etc/livepage/.env", env: map[string]string{"LPFS_PAGES_BUFFER_SIZE": "6"}}
	var cfg testConfig
	err := LoadConfig("livepage", &cfg,
		WithFileSystem(fs),
		WithConfigFile("/etc/livepage/missing.yml"),
		WithEnvFile("/etc/livepage/.env"),
		WithEnvPrefix("LPFS"),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(fs.loaded) != 1 || fs.loaded[0] != "/etc/livepage/.env" {
		t.Errorf("expected env file loaded once through the filesystem, got %v", fs.loaded)
	}
	if cfg.Pages.BufferSize != 6 {
		t.Errorf("expected buffer_size 6 from env file, got %d", cfg.Pages.BufferSize)
	}

	failing := &envFS{path: "/etc/livepage/.env", err: os.ErrPermission}
	err = LoadConfig("livepage", &cfg, WithFileSystem(failing), WithEnvFile("/etc/livepage/.env"))
	if err == nil || !strings.Contains(err.Error(), "/etc/livepage/.env") {
		t.Errorf("expected env file error naming the path, got %v", err)
	}
}

func TestResolverSearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/livepage/config.yml": true,
		"./config.yml":              true,
		"./.env":                    true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("livepage", LoaderConfig{})
	if files.ConfigFile != "./cmd/livepage/config.yml" {
		t.Errorf("expected cmd config to win, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{}}
	files := resolver.ResolveFiles("livepage", LoaderConfig{ConfigFile: "/etc/lp.yml", EnvFile: "/etc/lp.env"})
	if files.ConfigFile != "/etc/lp.yml" || files.EnvFile != "/etc/lp.env" {
		t.Errorf("expected explicit paths to be kept, got %+v", files)
	}
}

func TestBindEnvVarsPrefix(t *testing.T) {
	v := viper.New()
	bindEnvVars(v, "LIVEPAGE", []string{
		"LIVEPAGE_SERVER_PORT=9000",
		"HOME=/root",
		"malformed",
	})
	if got := v.GetInt("server.port"); got != 9000 {
		t.Errorf("expected server.port 9000, got %d", got)
	}
	if v.IsSet("home") {
		t.Error("expected unprefixed variable to be ignored")
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("PAGES_BUFFER_SIZE")
	want := map[string]bool{
		"pages_buffer_size": true,
		"pages.buffer.size": true,
		"pages.buffer_size": true,
		"pages_buffer.size": true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d variants, got %v", len(want), got)
	}
	for _, v := range got {
		if !want[v] {
			t.Errorf("unexpected variant %q", v)
		}
	}

	if single := generateEnvKeyVariants("NAME"); len(single) != 1 || single[0] != "name" {
		t.Errorf("expected [name], got %v", single)
	}
}
