// Package settings reads receiver settings (org.ocast.settings.device) and
// sends remote control input (org.ocast.settings.input).
package settings
