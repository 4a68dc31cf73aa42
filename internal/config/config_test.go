package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  addr: 0.0.0.0:9000
  input_dir: docs
  strict_paths: true
client:
  server_url: http://docs.local:9000
log:
  level: debug
`), "test-valid")
	if err != nil {
		t.Fatalf("parse valid config: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" || cfg.Server.InputDir != "docs" || !cfg.Server.StrictPaths {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Client.ServerURL != "http://docs.local:9000" {
		t.Fatalf("unexpected server url: %q", cfg.Client.ServerURL)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.MaxUploadBytes != Default().Server.MaxUploadBytes {
		t.Fatalf("max_upload_bytes lost its default: %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Log.File != "debug.log" {
		t.Fatalf("log.file lost its default: %q", cfg.Log.File)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`
server:
  adress: typo
`), "test-unknown")
	if err == nil || !strings.Contains(err.Error(), "parse YAML") {
		t.Fatalf("expected parse error for unknown key, got: %v", err)
	}
}

func TestValidateRejectsRelativeServerURL(t *testing.T) {
	cfg, err := Parse([]byte(`
client:
  server_url: /api
`), "test-url")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Check(); err == nil || !strings.Contains(err.Error(), "client.server_url") {
		t.Fatalf("expected server_url error, got: %v", err)
	}
}

func TestLoadValidatesAfterEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docpicker.yaml")
	if err := os.WriteFile(path, []byte("client:\n  server_url: /api\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DOCPICKER_SERVER_URL", "http://docs.local:9000")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("environment should fix the file value: %v", err)
	}
	if cfg.Client.ServerURL != "http://docs.local:9000" {
		t.Fatalf("server url: got %q", cfg.Client.ServerURL)
	}

	t.Setenv("DOCPICKER_SERVER_URL", "")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "client.server_url") {
		t.Fatalf("expected server_url error without the override, got: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DOCPICKER_ADDR":       ":7000",
		"DOCPICKER_SERVER_URL": "http://example.test",
		"STRICT_PATHS":         "1",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Server.Addr != ":7000" {
		t.Fatalf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Client.ServerURL != "http://example.test" {
		t.Fatalf("server url: got %q", cfg.Client.ServerURL)
	}
	if !cfg.Server.StrictPaths {
		t.Fatal("STRICT_PATHS=1 should enable strict paths")
	}

	env["STRICT_PATHS"] = "false"
	cfg.ApplyEnv(func(k string) string { return env[k] })
	if cfg.Server.StrictPaths {
		t.Fatal("STRICT_PATHS=false should disable strict paths")
	}

	env["STRICT_PATHS"] = "yes"
	cfg.ApplyEnv(func(k string) string { return env[k] })
	if !cfg.Server.StrictPaths {
		t.Fatal("any non-boolean STRICT_PATHS should enable strict paths")
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Fatalf("expected read error, got: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docpicker.yaml")
	if err := os.WriteFile(path, []byte("server:\n  input_dir: uploads\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.InputDir != "uploads" {
		t.Fatalf("input_dir: got %q", cfg.Server.InputDir)
	}
}

func TestInputPathRelativeToRoot(t *testing.T) {
	root := t.TempDir()
	s := ServerConfig{Root: root, InputDir: "input"}
	got, err := s.InputPath()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(root, "input") {
		t.Fatalf("input path: got %q", got)
	}

	abs := filepath.Join(t.TempDir(), "elsewhere")
	s.InputDir = abs
	got, err = s.InputPath()
	if err != nil {
		t.Fatal(err)
	}
	if got != abs {
		t.Fatalf("absolute input dir should be kept: got %q", got)
	}
}
