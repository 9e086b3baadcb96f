package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/cognicore/teienrich/pkg/teienrich/blacklist"
)

// Environment variables overriding the handle service settings
const (
	EnvHandleUsername = "HANDLE_USERNAME"
	EnvHandlePassword = "HANDLE_PASSWORD"
	EnvHandleProvider = "HANDLE_PROVIDER"
	EnvHandlePrefix   = "HANDLE_PREFIX"
	EnvHandleResolver = "HANDLE_RESOLVER"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	ConfigPath    string
	BlacklistPath string
	// EnvFile is loaded into the environment before overrides are applied.
	// Empty means an optional .env in the working directory; only its
	// absence is ignored.
	EnvFile string
}

// Components holds all loaded configuration components
type Components struct {
	Config    *Config
	Blacklist *blacklist.List
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	cfg := Default()
	if l.ConfigPath != "" {
		loaded, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if l.EnvFile != "" {
		if err := godotenv.Load(l.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	applyEnv(cfg)

	bl := blacklist.New(cfg.Blacklist...)
	for _, path := range []string{cfg.BlacklistFile, l.BlacklistPath} {
		if path == "" {
			continue
		}
		ids, err := LoadBlacklist(path)
		if err != nil {
			return nil, fmt.Errorf("load blacklist: %w", err)
		}
		for _, id := range ids {
			bl.Add(id)
		}
	}

	return &Components{Config: cfg, Blacklist: bl}, nil
}

func applyEnv(cfg *Config) {
	for env, dst := range map[string]*string{
		EnvHandleUsername: &cfg.Handle.Username,
		EnvHandlePassword: &cfg.Handle.Password,
		EnvHandleProvider: &cfg.Handle.Provider,
		EnvHandlePrefix:   &cfg.Handle.Prefix,
		EnvHandleResolver: &cfg.Handle.Resolver,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}
