package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the per-user sclik configuration, stored as YAML in the
// sclik home directory.
type Config struct {
	Username string `yaml:"username"`

	// ProfileHash is the CID of the most recently published profile
	// snapshot. Informational: the authoritative pointer lives in IPNS.
	ProfileHash string `yaml:"profile_hash,omitempty"`
}

// Paths describes where sclik keeps its local state.
type Paths struct {
	Home       string // ~/.sclik
	DB         string // ~/.sclik/sclik.db
	ProfileDir string // ~/.sclik/profiles
	ConfigFile string // ~/.sclik/config.yml
}

// DefaultPaths resolves the standard sclik directory layout.
// SCLIK_HOME overrides the base directory (used by tests and for running
// multiple identities on one machine).
func DefaultPaths() (Paths, error) {
	base := os.Getenv("SCLIK_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("failed to determine home directory: %w", err)
		}
		base = filepath.Join(home, ".sclik")
	}
	return Paths{
		Home:       base,
		DB:         filepath.Join(base, "sclik.db"),
		ProfileDir: filepath.Join(base, "profiles"),
		ConfigFile: filepath.Join(base, "config.yml"),
	}, nil
}

// EnsureDirs creates the sclik home and profile directories if missing.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Home, p.ProfileDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Load reads the config file at path. A missing file is not an error: it
// returns an empty config, and the caller decides whether a username must
// be prompted for.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config file at path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// EnsureUsername returns the configured username, prompting on in/out
// until a non-empty name is entered if none is set yet. The chosen name
// is persisted immediately.
func EnsureUsername(path string, in io.Reader, out io.Writer) (string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	if cfg.Username != "" {
		return cfg.Username, nil
	}

	reader := bufio.NewReader(in)
	fmt.Fprint(out, "No username set. Please enter your username: ")
	for {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read username: %w", err)
		}
		username := strings.TrimSpace(line)
		if username != "" {
			cfg.Username = username
			if err := Save(path, cfg); err != nil {
				return "", err
			}
			return username, nil
		}
		fmt.Fprint(out, "Username cannot be empty. Please enter your username: ")
	}
}
