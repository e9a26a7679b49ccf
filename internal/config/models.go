package config

import (
	"strings"
	"time"

	"github.com/muurk/ocast/pkg/upnp"
)

// CurrentVersion is the only config file version understood.
const CurrentVersion = 1

// Config represents the entire user configuration file.
type Config struct {
	Version     int                  `yaml:"version"`
	LogLevel    string               `yaml:"log_level,omitempty"` // debug, info, warn or error
	Discovery   *DiscoveryPrefs      `yaml:"discovery,omitempty"`
	Application *ApplicationPrefs    `yaml:"application,omitempty"`
	TLS         *TLSPrefs            `yaml:"tls,omitempty"`
	Receivers   map[string]*Receiver `yaml:"receivers,omitempty"` // Keyed by device id
}

// DiscoveryPrefs tunes the SSDP engine.
type DiscoveryPrefs struct {
	SearchTargets []string      `yaml:"search_targets,omitempty"`
	Interval      time.Duration `yaml:"interval"`
	MaxTime       time.Duration `yaml:"max_time"`
	EvictionGrace time.Duration `yaml:"eviction_grace"`
	ScanTimeout   time.Duration `yaml:"scan_timeout"`
}

// ApplicationPrefs names the receiver web application to drive.
type ApplicationPrefs struct {
	Name         string        `yaml:"name,omitempty"`
	StartTimeout time.Duration `yaml:"start_timeout"`
}

// TLSPrefs points at certificate files. The PKCS#12 password is NEVER stored;
// PasswordEnv names the environment variable holding it.
type TLSPrefs struct {
	DeviceCertificates []string `yaml:"device_certificates,omitempty"` // PEM or DER files
	ClientCertificate  string   `yaml:"client_certificate,omitempty"`  // PKCS#12 file
	PasswordEnv        string   `yaml:"client_certificate_password_env,omitempty"`
	SkipHostCheck      bool     `yaml:"skip_host_check,omitempty"`
	SkipChainCheck     bool     `yaml:"skip_chain_check,omitempty"`
	Insecure           bool     `yaml:"insecure,omitempty"` // accept any certificate
}

// Receiver is what the CLI remembers about a receiver it has seen.
type Receiver struct {
	Nickname     string    `yaml:"nickname,omitempty"`
	FriendlyName string    `yaml:"friendly_name,omitempty"`
	Manufacturer string    `yaml:"manufacturer,omitempty"`
	Location     string    `yaml:"location"`
	LastSeen     time.Time `yaml:"last_seen,omitempty"`
}

// Default values applied on load.
const (
	DefaultInterval      = 30 * time.Second
	DefaultMaxTime       = 3 * time.Second
	DefaultEvictionGrace = time.Second
	DefaultScanTimeout   = 5 * time.Second
	DefaultStartTimeout  = 60 * time.Second
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	c := &Config{Version: CurrentVersion}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Discovery == nil {
		c.Discovery = &DiscoveryPrefs{}
	}
	if c.Discovery.Interval <= 0 {
		c.Discovery.Interval = DefaultInterval
	}
	if c.Discovery.MaxTime <= 0 {
		c.Discovery.MaxTime = DefaultMaxTime
	}
	if c.Discovery.EvictionGrace <= 0 {
		c.Discovery.EvictionGrace = DefaultEvictionGrace
	}
	if c.Discovery.ScanTimeout <= 0 {
		c.Discovery.ScanTimeout = DefaultScanTimeout
	}
	if c.Application == nil {
		c.Application = &ApplicationPrefs{}
	}
	if c.Application.StartTimeout <= 0 {
		c.Application.StartTimeout = DefaultStartTimeout
	}
	if c.TLS == nil {
		c.TLS = &TLSPrefs{}
	}
	if c.Receivers == nil {
		c.Receivers = make(map[string]*Receiver)
	}
}

// RememberReceiver records or refreshes a discovered receiver.
func (c *Config) RememberReceiver(d upnp.Device) {
	if c.Receivers == nil {
		c.Receivers = make(map[string]*Receiver)
	}
	r, ok := c.Receivers[d.ID]
	if !ok {
		r = &Receiver{}
		c.Receivers[d.ID] = r
	}
	r.FriendlyName = d.FriendlyName
	r.Manufacturer = d.Manufacturer
	r.Location = d.Location
	r.LastSeen = time.Now()
}

// SetNickname sets a user-friendly name for a known receiver.
func (c *Config) SetNickname(id, nickname string) bool {
	r, ok := c.Receivers[id]
	if !ok {
		return false
	}
	r.Nickname = nickname
	return true
}

// FindReceiver resolves a device id, nickname or friendly name (case
// insensitive) to a remembered receiver.
func (c *Config) FindReceiver(query string) (string, *Receiver, bool) {
	if r, ok := c.Receivers[query]; ok {
		return query, r, true
	}
	for id, r := range c.Receivers {
		if strings.EqualFold(r.Nickname, query) || strings.EqualFold(r.FriendlyName, query) {
			return id, r, true
		}
	}
	return "", nil, false
}
