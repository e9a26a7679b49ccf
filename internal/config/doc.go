// Package config manages the YAML configuration file of the ocast command.
//
// The file holds discovery tuning, the receiver application to drive, TLS
// certificate locations, the log level and the receivers seen so far, so
// that commands can address a receiver by nickname instead of descriptor
// URL.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/ocast/config.yaml or $HOME/.config/ocast/config.yaml
//   - macOS: $HOME/.config/ocast/config.yaml
//   - Windows: %LOCALAPPDATA%\ocast\config.yaml
//
// The --config flag overrides the location.
//
// # Security
//
// Certificate passwords are NEVER stored. The file names the environment
// variable that holds the PKCS#12 password instead.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	cfg.RememberReceiver(device)
//	if err := cfg.Save(""); err != nil {
//	    return err
//	}
//
// Save writes to a temporary file and renames it over the old one.
package config
