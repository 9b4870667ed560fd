package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marmos91/nfs4probe/internal/protocol/nfs4"
)

// Config represents the complete nfs4probe configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (NFS4PROBE_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// The capture section holds one map per store type (capture.filesystem,
// capture.badger, capture.s3). Only the map matching capture.type is decoded,
// into the store package's own Config type.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server is the NFSv4 endpoint to probe
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Timeouts bound each phase of an exchange
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`

	// Request describes the COMPOUND call that is sent
	Request RequestConfig `mapstructure:"request" yaml:"request"`

	// Transport holds record-marking limits
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`

	// Probe controls repetition and pacing of exchanges
	Probe ProbeConfig `mapstructure:"probe" yaml:"probe"`

	// Capture selects where exchanges are recorded
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`

	// Metrics controls the Prometheus collectors and endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig identifies the server under test.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host" validate:"required"`
	Port int    `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
}

// TimeoutsConfig bounds the connect, write and read phases.
// A zero value disables the corresponding deadline.
type TimeoutsConfig struct {
	Connect time.Duration `mapstructure:"connect" yaml:"connect" validate:"gte=0"`
	Write   time.Duration `mapstructure:"write" yaml:"write" validate:"gte=0"`
	Read    time.Duration `mapstructure:"read" yaml:"read" validate:"gte=0"`
}

// RequestConfig describes the NFSv4 COMPOUND request.
type RequestConfig struct {
	// XID is the transaction id of the first round
	XID uint32 `mapstructure:"xid" yaml:"xid"`

	// Tag is the COMPOUND tag echoed by the server. Unset means "readdir";
	// an explicit empty string sends an empty tag.
	Tag *string `mapstructure:"tag" yaml:"tag" validate:"omitempty,max=1024"`

	// MinorVersion is the NFSv4 minor version
	MinorVersion uint32 `mapstructure:"minor_version" yaml:"minor_version" validate:"lte=2"`

	// StandardHeader adds the RFC 5531 procedure, credential and verifier
	// after the call envelope
	StandardHeader bool `mapstructure:"standard_header" yaml:"standard_header"`

	// Auth is the credential sent when StandardHeader is set
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// PutRootFH prepends PUTROOTFH so READDIR has a current filehandle
	PutRootFH bool `mapstructure:"put_root_fh" yaml:"put_root_fh"`

	// FileHandle is a hex filehandle sent with PUTFH instead of PUTROOTFH
	FileHandle string `mapstructure:"file_handle" yaml:"file_handle,omitempty" validate:"omitempty,max=256"`

	// Path is walked with one LOOKUP per component before READDIR
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// GetFH adds GETFH before READDIR so the reply carries the directory handle
	GetFH bool `mapstructure:"get_fh" yaml:"get_fh,omitempty"`

	// GetAttr adds GETATTR of the directory, using the READDIR attributes
	GetAttr bool `mapstructure:"get_attr" yaml:"get_attr,omitempty"`

	// RawOps are appended after READDIR with pre-encoded arguments
	RawOps []RawOpConfig `mapstructure:"raw_ops" yaml:"raw_ops,omitempty" validate:"dive"`

	// Readdir holds the READDIR arguments
	Readdir ReaddirConfig `mapstructure:"readdir" yaml:"readdir"`
}

// TagValue returns the configured tag, or the default READDIR tag when none
// was set.
func (c *RequestConfig) TagValue() string {
	if c.Tag == nil {
		return nfs4.DefaultReaddirTag
	}
	return *c.Tag
}

// RawOpConfig is an operation this tool has no typed form for.
type RawOpConfig struct {
	// Op is the operation name (e.g. "access") or number
	Op string `mapstructure:"op" yaml:"op" validate:"required"`

	// Args are the XDR-encoded arguments in hex; the length must be a
	// multiple of four bytes
	Args string `mapstructure:"args" yaml:"args"`
}

// AuthConfig selects the RPC credential flavor.
type AuthConfig struct {
	// Flavor is "none" (AUTH_NULL) or "unix" (AUTH_SYS)
	Flavor string `mapstructure:"flavor" yaml:"flavor" validate:"required,oneof=none unix"`

	MachineName string   `mapstructure:"machine_name" yaml:"machine_name" validate:"max=255"`
	UID         uint32   `mapstructure:"uid" yaml:"uid"`
	GID         uint32   `mapstructure:"gid" yaml:"gid"`
	GIDs        []uint32 `mapstructure:"gids" yaml:"gids" validate:"max=16"`
}

// ReaddirConfig holds the READDIR4args fields.
type ReaddirConfig struct {
	Cookie   uint64 `mapstructure:"cookie" yaml:"cookie"`
	DirCount uint32 `mapstructure:"dircount" yaml:"dircount"`
	MaxCount uint32 `mapstructure:"maxcount" yaml:"maxcount" validate:"gt=0"`

	// Attributes are attribute names (e.g. "type", "size") requested per entry
	Attributes []string `mapstructure:"attributes" yaml:"attributes" validate:"required,min=1"`
}

// TransportConfig holds record-marking limits.
type TransportConfig struct {
	// MaxRecordSize bounds a reassembled reply record in bytes
	MaxRecordSize int `mapstructure:"max_record_size" yaml:"max_record_size" validate:"gt=0"`
}

// ProbeConfig controls repeated rounds.
type ProbeConfig struct {
	// Count is the number of rounds; 0 runs a single round
	Count int `mapstructure:"count" yaml:"count" validate:"gte=0"`

	// Rate is the number of rounds per second; 0 means unpaced
	Rate float64 `mapstructure:"rate" yaml:"rate" validate:"gte=0"`

	// Burst is the number of rounds allowed back to back
	Burst int `mapstructure:"burst" yaml:"burst" validate:"gte=1"`
}

// CaptureConfig specifies capture store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type CaptureConfig struct {
	// Type specifies which capture store to use
	// Valid values: none, memory, filesystem, badger, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=none memory filesystem badger s3"`

	// Filesystem is only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// Badger is only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// S3 is only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the address of the /metrics endpoint; empty disables serving
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NFS4PROBE_*)
//  2. Configuration file
//  3. Default values
//
// A missing configuration file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: NFS4PROBE_SERVER_HOST=nfs.example.com
	v.SetEnvPrefix("NFS4PROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// $XDG_CONFIG_HOME/nfs4probe/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys registers every scalar key so AutomaticEnv can override it
// even when the key is absent from the config file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"logging.level", "logging.format", "logging.output",
		"server.host", "server.port",
		"timeouts.connect", "timeouts.write", "timeouts.read",
		"request.xid", "request.tag", "request.minor_version", "request.standard_header",
		"request.put_root_fh", "request.file_handle", "request.path", "request.get_fh", "request.get_attr",
		"request.auth.flavor", "request.auth.machine_name", "request.auth.uid", "request.auth.gid",
		"request.readdir.cookie", "request.readdir.dircount", "request.readdir.maxcount",
		"transport.max_record_size",
		"probe.count", "probe.rate", "probe.burst",
		"capture.type",
		"metrics.enabled", "metrics.listen",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nfs4probe")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "nfs4probe")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
