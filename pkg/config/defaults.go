package config

import (
	"strings"
	"time"

	"github.com/marmos91/nfs4probe/internal/protocol/nfs4"
	"github.com/marmos91/nfs4probe/pkg/capture"
	"github.com/marmos91/nfs4probe/pkg/client"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are filled into every store map so a generated
//     config file documents all of them
//
// Booleans (request.standard_header, request.put_root_fh, metrics.enabled)
// default to false, which keeps the request in its bare form.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyTimeoutsDefaults(&cfg.Timeouts)
	applyRequestDefaults(&cfg.Request)
	applyTransportDefaults(&cfg.Transport)
	applyProbeDefaults(&cfg.Probe)
	applyCaptureDefaults(&cfg.Capture)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = client.DefaultPort
	}
}

func applyTimeoutsDefaults(cfg *TimeoutsConfig) {
	if cfg.Connect == 0 {
		cfg.Connect = 10 * time.Second
	}
	if cfg.Write == 0 {
		cfg.Write = 10 * time.Second
	}
	if cfg.Read == 0 {
		cfg.Read = 30 * time.Second
	}
}

func applyRequestDefaults(cfg *RequestConfig) {
	if cfg.Tag == nil {
		tag := nfs4.DefaultReaddirTag
		cfg.Tag = &tag
	}

	if cfg.Auth.Flavor == "" {
		cfg.Auth.Flavor = AuthFlavorNone
	}
	cfg.Auth.Flavor = strings.ToLower(cfg.Auth.Flavor)

	if cfg.Readdir.DirCount == 0 {
		cfg.Readdir.DirCount = nfs4.DefaultDirCount
	}
	if cfg.Readdir.MaxCount == 0 {
		cfg.Readdir.MaxCount = nfs4.DefaultMaxCount
	}
	if len(cfg.Readdir.Attributes) == 0 {
		cfg.Readdir.Attributes = make([]string, 0, len(nfs4.DefaultReaddirAttrs))
		for _, a := range nfs4.DefaultReaddirAttrs {
			cfg.Readdir.Attributes = append(cfg.Readdir.Attributes, a.String())
		}
	}
}

func applyTransportDefaults(cfg *TransportConfig) {
	if cfg.MaxRecordSize == 0 {
		cfg.MaxRecordSize = client.DefaultMaxRecordSize
	}
}

func applyProbeDefaults(cfg *ProbeConfig) {
	// Count 0 runs a single round; Rate 0 leaves rounds unpaced.
	if cfg.Burst == 0 {
		cfg.Burst = 1
	}
}

// applyCaptureDefaults sets capture store defaults.
func applyCaptureDefaults(cfg *CaptureConfig) {
	if cfg.Type == "" {
		cfg.Type = capture.TypeNone
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = "/tmp/nfs4probe-captures"
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/tmp/nfs4probe-badger"
	}
	if _, ok := cfg.S3["region"]; !ok {
		cfg.S3["region"] = "us-east-1"
	}
	if _, ok := cfg.S3["key_prefix"]; !ok {
		cfg.S3["key_prefix"] = "nfs4probe/"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
