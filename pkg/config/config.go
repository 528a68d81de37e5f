// Package config defines the runtime configuration surface: the
// listening socket parameters, optional TLS material, the server
// identification string, and the logging section.
package config

import (
	"errors"
	"fmt"
	"os"
)

// Defaults applied by DefaultConfiguration and by Load for omitted
// fields.
const (
	DefaultPort        = 8080
	DefaultReadTimeout = 30
	DefaultBufferSize  = 8 * 1024
	DefaultServerName  = "Hemera/1.1"
)

// Configuration is the externally supplied runtime configuration.
type Configuration struct {
	// Port is the TCP port the listener binds to (0 = OS auto-assign).
	Port int `json:"port" yaml:"port"`
	// ReadTimeout is the per-connection socket read timeout in seconds.
	ReadTimeout int `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	// BufferSize is the socket buffer size in bytes.
	BufferSize int `json:"bufferSize,omitempty" yaml:"bufferSize,omitempty"`
	// ServerName is the server identification string sent in the
	// Server response header.
	ServerName string `json:"serverName,omitempty" yaml:"serverName,omitempty"`
	// TLS configures the optional TLS listener material.
	TLS *TLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
	// Log configures operational logging.
	Log *LogConfig `json:"log,omitempty" yaml:"log,omitempty"`
}

// TLSConfig holds the certificate material for a TLS listener.
type TLSConfig struct {
	// Enabled turns the listener into a TLS listener.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// CertFile is the path to the PEM certificate.
	CertFile string `json:"certFile,omitempty" yaml:"certFile,omitempty"`
	// KeyFile is the path to the PEM private key.
	KeyFile string `json:"keyFile,omitempty" yaml:"keyFile,omitempty"`
}

// LogConfig holds the logging section.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is the output format (text, json).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// DefaultConfiguration returns a configuration with all defaults set.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Port:        DefaultPort,
		ReadTimeout: DefaultReadTimeout,
		BufferSize:  DefaultBufferSize,
		ServerName:  DefaultServerName,
	}
}

// applyDefaults fills omitted fields in place.
func (c *Configuration) applyDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.ServerName == "" {
		c.ServerName = DefaultServerName
	}
}

// Validate checks the configuration for values the runtime cannot bind
// or run with.
func (c *Configuration) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("readTimeout must not be negative, got %d", c.ReadTimeout)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("bufferSize must not be negative, got %d", c.BufferSize)
	}
	if c.TLS != nil && c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return errors.New("tls requires both certFile and keyFile")
		}
		if _, err := os.Stat(c.TLS.CertFile); err != nil {
			return fmt.Errorf("tls certFile: %w", err)
		}
		if _, err := os.Stat(c.TLS.KeyFile); err != nil {
			return fmt.Errorf("tls keyFile: %w", err)
		}
	}
	return nil
}
