package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muurk/ocast/pkg/discovery"
	"github.com/muurk/ocast/pkg/transport"
)

const (
	appName    = "ocast"
	configFile = "config.yaml"
)

// fileMutex serializes writes within the process.
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
//   - Linux: $XDG_CONFIG_HOME/ocast or $HOME/.config/ocast
//   - macOS: $HOME/.config/ocast
//   - Windows: %LOCALAPPDATA%\ocast
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return GetConfigPath()
}

// Load reads the configuration at path, or at the default location when
// path is empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func marshal(c *Config, path string) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte(`# OCast command line configuration
#
# Certificate passwords are NEVER stored in this file. Set
# tls.client_certificate_password_env to the variable that holds it.
#
# Location: ` + path + `

`)
	return append(header, data...), nil
}

// Save writes the configuration to path, or to the default location when
// path is empty. The write is atomic.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	path, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := marshal(c, path)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// DiscoveryOptions converts the discovery preferences to engine options.
func (c *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		SearchTargets: c.Discovery.SearchTargets,
		Interval:      c.Discovery.Interval,
		MaxTime:       c.Discovery.MaxTime,
		EvictionGrace: c.Discovery.EvictionGrace,
	}
}

// SSLConfig loads the certificate files named in the TLS preferences.
func (c *Config) SSLConfig() (transport.SSLConfig, error) {
	ssl := transport.SSLConfig{
		ValidatesHost:             !c.TLS.SkipHostCheck,
		ValidatesCertificateChain: !c.TLS.SkipChainCheck,
		DisablesValidation:        c.TLS.Insecure,
	}

	for _, path := range c.TLS.DeviceCertificates {
		data, err := os.ReadFile(path)
		if err != nil {
			return transport.SSLConfig{}, fmt.Errorf("failed to read device certificate: %w", err)
		}
		ssl.DeviceCertificates = append(ssl.DeviceCertificates, data)
	}

	if c.TLS.ClientCertificate != "" {
		data, err := os.ReadFile(c.TLS.ClientCertificate)
		if err != nil {
			return transport.SSLConfig{}, fmt.Errorf("failed to read client certificate: %w", err)
		}
		ssl.ClientCertificate = data
		if c.TLS.PasswordEnv != "" {
			ssl.ClientCertificatePassword = os.Getenv(c.TLS.PasswordEnv)
		}
	}
	return ssl, nil
}
