// Package config loads pantheonctl configuration from an HCL file and the
// environment, and owns credential storage.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/pantheon-community/pantheonctl/pkg/pantheon"
)

// Config is the pantheonctl configuration.
//
// Example (HCL):
//
//	base_url   = "https://api.pantheon.io/v0"
//	cache_dir  = "/home/user/.pantheonctl/cache"
//	state_path = "/home/user/.pantheonctl/state.db"
type Config struct {
	// BaseURL of the management API. Default: the production endpoint.
	BaseURL string `hcl:"base_url,optional"`

	// CacheDir holds the file-backed response cache.
	CacheDir string `hcl:"cache_dir,optional"`

	// StatePath is the sqlite database of locally recorded environment
	// state.
	StatePath string `hcl:"state_path,optional"`

	// CredentialFile holds the encrypted machine token.
	CredentialFile string `hcl:"credential_file,optional"`
}

// Default returns the configuration used when no config file exists,
// rooted under ~/.pantheonctl.
func Default() *Config {
	root := DefaultDir()
	return &Config{
		BaseURL:        pantheon.DefaultBaseURL,
		CacheDir:       filepath.Join(root, "cache"),
		StatePath:      filepath.Join(root, "state.db"),
		CredentialFile: filepath.Join(root, "credential"),
	}
}

// DefaultDir returns the pantheonctl data directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pantheonctl"
	}
	return filepath.Join(home, ".pantheonctl")
}

// Load reads the config file at path, filling unset fields with defaults.
// A missing file is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	defaults := Default()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaults.CacheDir
	}
	if cfg.StatePath == "" {
		cfg.StatePath = defaults.StatePath
	}
	if cfg.CredentialFile == "" {
		cfg.CredentialFile = defaults.CredentialFile
	}

	return cfg, nil
}
