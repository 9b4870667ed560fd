package config

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_NormalizesLogLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "warn"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected normalized level 'WARN', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 2049 {
		t.Errorf("Expected default port 2049, got %d", cfg.Server.Port)
	}
}

func TestApplyDefaults_Timeouts(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Timeouts.Connect != 10*time.Second {
		t.Errorf("Expected default connect timeout 10s, got %v", cfg.Timeouts.Connect)
	}
	if cfg.Timeouts.Write != 10*time.Second {
		t.Errorf("Expected default write timeout 10s, got %v", cfg.Timeouts.Write)
	}
	if cfg.Timeouts.Read != 30*time.Second {
		t.Errorf("Expected default read timeout 30s, got %v", cfg.Timeouts.Read)
	}
}

func TestApplyDefaults_Request(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Request.XID != 0 {
		t.Errorf("Expected default xid 0, got %d", cfg.Request.XID)
	}
	if cfg.Request.Tag == nil || *cfg.Request.Tag != "readdir" {
		t.Errorf("Expected default tag 'readdir', got %v", cfg.Request.Tag)
	}
	if cfg.Request.MinorVersion != 0 {
		t.Errorf("Expected default minor version 0, got %d", cfg.Request.MinorVersion)
	}
	if cfg.Request.StandardHeader || cfg.Request.PutRootFH {
		t.Error("Expected standard_header and put_root_fh to default to false")
	}
	if cfg.Request.Auth.Flavor != "none" {
		t.Errorf("Expected default auth flavor 'none', got %q", cfg.Request.Auth.Flavor)
	}
	if cfg.Request.Readdir.DirCount != 32768 || cfg.Request.Readdir.MaxCount != 32768 {
		t.Errorf("Expected default counts 32768, got %d/%d",
			cfg.Request.Readdir.DirCount, cfg.Request.Readdir.MaxCount)
	}

	expected := []string{"supported_attrs", "type", "size", "named_attr", "filehandle"}
	if !reflect.DeepEqual(cfg.Request.Readdir.Attributes, expected) {
		t.Errorf("Expected default attributes %v, got %v", expected, cfg.Request.Readdir.Attributes)
	}
}

func TestApplyDefaults_KeepsExplicitEmptyTag(t *testing.T) {
	empty := ""
	cfg := &Config{Request: RequestConfig{Tag: &empty}}
	ApplyDefaults(cfg)

	if cfg.Request.Tag == nil || *cfg.Request.Tag != "" {
		t.Errorf("Expected explicit empty tag to survive defaults, got %v", cfg.Request.Tag)
	}
	if cfg.Request.TagValue() != "" {
		t.Errorf("Expected empty tag value, got %q", cfg.Request.TagValue())
	}
}

func TestApplyDefaults_ProbeAndTransport(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Probe.Count != 0 || cfg.Probe.Rate != 0 {
		t.Errorf("Expected single unpaced round by default, got %+v", cfg.Probe)
	}
	if cfg.Probe.Burst != 1 {
		t.Errorf("Expected default burst 1, got %d", cfg.Probe.Burst)
	}
	if cfg.Transport.MaxRecordSize != 4<<20 {
		t.Errorf("Expected default max record size %d, got %d", 4<<20, cfg.Transport.MaxRecordSize)
	}
}

func TestApplyDefaults_Capture(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Capture.Type != "none" {
		t.Errorf("Expected default capture type 'none', got %q", cfg.Capture.Type)
	}
	if path := cfg.Capture.Filesystem["path"]; path != "/tmp/nfs4probe-captures" {
		t.Errorf("Expected default filesystem path, got %v", path)
	}
	if path := cfg.Capture.Badger["db_path"]; path != "/tmp/nfs4probe-badger" {
		t.Errorf("Expected default badger db_path, got %v", path)
	}
	if region := cfg.Capture.S3["region"]; region != "us-east-1" {
		t.Errorf("Expected default s3 region, got %v", region)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	tag := "custom"
	cfg := &Config{
		Server: ServerConfig{Host: "nfs", Port: 3049},
		Request: RequestConfig{
			Tag: &tag,
			Readdir: ReaddirConfig{
				DirCount:   100,
				MaxCount:   200,
				Attributes: []string{"mode"},
			},
		},
		Capture: CaptureConfig{
			Type:       "filesystem",
			Filesystem: map[string]any{"path": "/data/captures"},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "nfs" || cfg.Server.Port != 3049 {
		t.Errorf("Explicit server overwritten: %+v", cfg.Server)
	}
	if cfg.Request.TagValue() != "custom" {
		t.Errorf("Explicit tag overwritten: %q", cfg.Request.TagValue())
	}
	if cfg.Request.Readdir.DirCount != 100 || cfg.Request.Readdir.MaxCount != 200 {
		t.Errorf("Explicit counts overwritten: %+v", cfg.Request.Readdir)
	}
	if !reflect.DeepEqual(cfg.Request.Readdir.Attributes, []string{"mode"}) {
		t.Errorf("Explicit attributes overwritten: %v", cfg.Request.Readdir.Attributes)
	}
	if cfg.Capture.Filesystem["path"] != "/data/captures" {
		t.Errorf("Explicit capture path overwritten: %v", cfg.Capture.Filesystem["path"])
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
}
