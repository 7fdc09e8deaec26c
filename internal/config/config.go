// Package config reads process settings from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/celerix-dev/celerix-extract/internal/engine"
	"github.com/celerix-dev/celerix-extract/internal/layout"
)

// Config holds the settings shared by the extract CLI and the daemon.
type Config struct {
	DataDir        string
	HTTPPort       string
	TCPPort        string
	DisableTLS     bool
	RemoteAddr     string // daemon HTTP address used by the CLI; empty means local
	RemoteTCPAddr  string // daemon TCP address used by the CLI for CPF checks
	LayoutPath     string // optional YAML layout file
	CPFElement     string
	CPFAttribute   string
	MaxUploadBytes int64
	LogLevel       string
	LogFormat      string
}

const defaultMaxUploadMB = 32

// FromEnv builds a Config from EXTRACT_* variables, falling back to defaults.
func FromEnv() Config {
	def := engine.DefaultCPFOptions()

	maxMB, err := strconv.ParseInt(getEnv("EXTRACT_MAX_UPLOAD_MB", ""), 10, 64)
	if err != nil || maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}

	return Config{
		DataDir:        getEnv("EXTRACT_DATA_DIR", "./data"),
		HTTPPort:       getEnv("EXTRACT_HTTP_PORT", "7002"),
		TCPPort:        getEnv("EXTRACT_PORT", "7001"),
		DisableTLS:     os.Getenv("EXTRACT_DISABLE_TLS") == "true",
		RemoteAddr:     os.Getenv("EXTRACT_ADDR"),
		RemoteTCPAddr:  os.Getenv("EXTRACT_TCP_ADDR"),
		LayoutPath:     os.Getenv("EXTRACT_LAYOUT"),
		CPFElement:     getEnv("EXTRACT_CPF_ELEMENT", def.Element),
		CPFAttribute:   getEnv("EXTRACT_CPF_ATTR", def.Attribute),
		MaxUploadBytes: maxMB << 20,
		LogLevel:       getEnv("EXTRACT_LOG_LEVEL", "info"),
		LogFormat:      getEnv("EXTRACT_LOG_FORMAT", "text"),
	}
}

// Layout returns the configured table layout, or the default one when no
// layout file is set.
func (c Config) Layout() (layout.Layout, error) {
	if c.LayoutPath == "" {
		return layout.Default(), nil
	}
	return layout.Load(c.LayoutPath)
}

// CPFOptions returns the XML selectors for the CPF pipeline.
func (c Config) CPFOptions() engine.CPFOptions {
	opts := engine.DefaultCPFOptions()
	opts.Element = c.CPFElement
	opts.Attribute = c.CPFAttribute
	return opts
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
