package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "InvalidLogLevel",
			mutate:  func(c *Config) { c.Logging.Level = "INVALID" },
			wantErr: "oneof",
		},
		{
			name:    "InvalidLogFormat",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "oneof",
		},
		{
			name:    "EmptyHost",
			mutate:  func(c *Config) { c.Server.Host = "" },
			wantErr: "Host",
		},
		{
			name:    "PortOutOfRange",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "Port",
		},
		{
			name:    "NegativeTimeout",
			mutate:  func(c *Config) { c.Timeouts.Read = -time.Second },
			wantErr: "Read",
		},
		{
			name:    "TagTooLong",
			mutate: func(c *Config) {
				tag := strings.Repeat("t", 1025)
				c.Request.Tag = &tag
			},
			wantErr: "Tag",
		},
		{
			name:    "ZeroMaxCount",
			mutate:  func(c *Config) { c.Request.Readdir.MaxCount = 0 },
			wantErr: "MaxCount",
		},
		{
			name:    "NoAttributes",
			mutate:  func(c *Config) { c.Request.Readdir.Attributes = nil },
			wantErr: "Attributes",
		},
		{
			name:    "UnknownAttribute",
			mutate:  func(c *Config) { c.Request.Readdir.Attributes = []string{"type", "colour"} },
			wantErr: "colour",
		},
		{
			name: "DirCountAboveMaxCount",
			mutate: func(c *Config) {
				c.Request.Readdir.DirCount = 8192
				c.Request.Readdir.MaxCount = 4096
			},
			wantErr: "must not exceed maxcount",
		},
		{
			name: "FileHandleWithPutRootFH",
			mutate: func(c *Config) {
				c.Request.PutRootFH = true
				c.Request.FileHandle = "0102"
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "FileHandleNotHex",
			mutate:  func(c *Config) { c.Request.FileHandle = "zz" },
			wantErr: "request.file_handle",
		},
		{
			name:    "FileHandleTooLong",
			mutate:  func(c *Config) { c.Request.FileHandle = strings.Repeat("ab", 129) },
			wantErr: "FileHandle",
		},
		{
			name:    "PathWithoutStartingHandle",
			mutate:  func(c *Config) { c.Request.Path = "export/home" },
			wantErr: "requires put_root_fh or file_handle",
		},
		{
			name: "PathComponentTooLong",
			mutate: func(c *Config) {
				c.Request.PutRootFH = true
				c.Request.Path = "export/" + strings.Repeat("n", 256)
			},
			wantErr: "lookup.objname",
		},
		{
			name:    "RawOpMissingName",
			mutate:  func(c *Config) { c.Request.RawOps = []RawOpConfig{{Args: "00000000"}} },
			wantErr: "Op",
		},
		{
			name:    "RawOpUnknownName",
			mutate:  func(c *Config) { c.Request.RawOps = []RawOpConfig{{Op: "frobnicate"}} },
			wantErr: "request.raw_ops[0].op",
		},
		{
			name:    "RawOpUnalignedArgs",
			mutate:  func(c *Config) { c.Request.RawOps = []RawOpConfig{{Op: "access", Args: "000000"}} },
			wantErr: "not 4-byte aligned",
		},
		{
			name:    "UnknownAuthFlavor",
			mutate:  func(c *Config) { c.Request.Auth.Flavor = "kerberos" },
			wantErr: "oneof",
		},
		{
			name:    "UnixAuthWithoutStandardHeader",
			mutate:  func(c *Config) { c.Request.Auth.Flavor = "unix" },
			wantErr: "requires request.standard_header",
		},
		{
			name:    "TooManyGIDs",
			mutate:  func(c *Config) { c.Request.Auth.GIDs = make([]uint32, 17) },
			wantErr: "GIDs",
		},
		{
			name:    "ZeroBurst",
			mutate:  func(c *Config) { c.Probe.Burst = 0 },
			wantErr: "Burst",
		},
		{
			name:    "NegativeRate",
			mutate:  func(c *Config) { c.Probe.Rate = -1 },
			wantErr: "Rate",
		},
		{
			name:    "UnknownCaptureType",
			mutate:  func(c *Config) { c.Capture.Type = "postgres" },
			wantErr: "oneof",
		},
		{
			name: "S3CaptureWithoutBucket",
			mutate: func(c *Config) {
				c.Capture.Type = "s3"
			},
			wantErr: "Bucket",
		},
		{
			name: "FilesystemCaptureWithoutPath",
			mutate: func(c *Config) {
				c.Capture.Type = "filesystem"
				c.Capture.Filesystem = map[string]any{}
			},
			wantErr: "Path",
		},
		{
			name: "MetricsListenWhileDisabled",
			mutate: func(c *Config) {
				c.Metrics.Listen = ":9090"
			},
			wantErr: "metrics.enabled is false",
		},
		{
			name: "MetricsListenMalformed",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Listen = "9090"
			},
			wantErr: "metrics.listen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_AcceptsLowercaseLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "debug"

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected lowercase log level to be accepted, got: %v", err)
	}
}

func TestValidate_UnixAuthWithStandardHeader(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Request.StandardHeader = true
	cfg.Request.Auth.Flavor = "unix"
	cfg.Request.Auth.GIDs = []uint32{1, 2, 3}

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected unix auth with standard header to be valid, got: %v", err)
	}
}

func TestValidate_S3CaptureComplete(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Capture.Type = "s3"
	cfg.Capture.S3["bucket"] = "captures"
	cfg.Capture.S3["endpoint"] = "http://localhost:4566"

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected complete s3 capture config to be valid, got: %v", err)
	}
}

func TestValidate_LookupPathFromFileHandle(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Request.FileHandle = "deadbeef"
	cfg.Request.Path = "/export//home/"
	cfg.Request.GetFH = true
	cfg.Request.GetAttr = true
	cfg.Request.RawOps = []RawOpConfig{{Op: "access", Args: "0000001f"}}

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected path walk from a filehandle to be valid, got: %v", err)
	}
}
