package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "docpicker.yaml"

type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	Client ClientConfig `yaml:"client" json:"client"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`

	// Root is the directory relative paths in suggestion queries are
	// resolved against. With StrictPaths set, no path may leave it.
	Root        string `yaml:"root" json:"root"`
	InputDir    string `yaml:"input_dir" json:"input_dir"`
	StrictPaths bool   `yaml:"strict_paths" json:"strict_paths"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes" json:"max_upload_bytes"`
}

type ClientConfig struct {
	ServerURL      string `yaml:"server_url" json:"server_url"`
	RetryMax       int    `yaml:"retry_max" json:"retry_max"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`

	// File is where terminal programs log, since their stdout is the
	// UI.
	File string `yaml:"file" json:"file"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           "127.0.0.1:8188",
			Root:           ".",
			InputDir:       "input",
			MaxUploadBytes: 100 << 20,
		},
		Client: ClientConfig{
			ServerURL:      "http://127.0.0.1:8188",
			RetryMax:       2,
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
			File:  "debug.log",
		},
	}
}

// Load reads the config at path on top of the defaults, applies
// environment overrides, then validates the result. An empty path means
// [DefaultFile] if present, defaults otherwise.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Check(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Read is [Load] without validation, for callers that apply further
// overrides (command-line flags) before calling [Config.Check].
func Read(path string) (Config, error) {
	cfg := Default()

	source := path
	if source == "" {
		source = DefaultFile
	}

	data, err := os.ReadFile(source)
	switch {
	case err == nil:
		cfg, err = Parse(data, source)
		if err != nil {
			return cfg, err
		}
	case path == "" && errors.Is(err, fs.ErrNotExist):
		// No file is fine when none was asked for.
	default:
		return cfg, fmt.Errorf("read config file %q: %w", source, err)
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are errors.
// Values are not validated, since the environment may still override
// them.
func Parse(data []byte, source string) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse YAML in %q: %w", source, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment. STRICT_PATHS keeps
// its old unprefixed name.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("DOCPICKER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("DOCPICKER_ROOT"); v != "" {
		c.Server.Root = v
	}
	if v := getenv("DOCPICKER_INPUT_DIR"); v != "" {
		c.Server.InputDir = v
	}
	if v := getenv("DOCPICKER_SERVER_URL"); v != "" {
		c.Client.ServerURL = v
	}
	if v := getenv("DOCPICKER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("STRICT_PATHS"); v != "" {
		strict, err := strconv.ParseBool(v)
		// Any value that is not an explicit false turns it on, as
		// the mere presence of the variable always did.
		c.Server.StrictPaths = err != nil || strict
	}
}

// Check is [Config.Validate] folded into a single error.
func (c Config) Check() error {
	if errs := c.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c Config) Validate() []string {
	var errs []string

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, "server.addr is required")
	}
	if strings.TrimSpace(c.Server.InputDir) == "" {
		errs = append(errs, "server.input_dir is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, "server.max_upload_bytes must be > 0")
	}

	if u, err := url.Parse(c.Client.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("client.server_url %q is not an absolute URL", c.Client.ServerURL))
	}
	if c.Client.RetryMax < 0 {
		errs = append(errs, "client.retry_max must be >= 0")
	}
	if c.Client.TimeoutSeconds < 0 {
		errs = append(errs, "client.timeout_seconds must be >= 0")
	}

	return errs
}

// InputPath is the absolute upload directory. A relative input_dir is
// taken relative to the root.
func (s ServerConfig) InputPath() (string, error) {
	dir := s.InputDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.Root, dir)
	}
	return filepath.Abs(dir)
}

// RootPath is the absolute root directory.
func (s ServerConfig) RootPath() (string, error) {
	return filepath.Abs(s.Root)
}
