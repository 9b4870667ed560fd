package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a sample configuration file to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path, creating
// parent directories as needed. An existing file is only replaced when force
// is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

type configSection struct {
	key     string
	comment string
	value   any
}

// generateYAMLWithComments renders cfg as YAML with a comment above each
// top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []configSection{
		{"logging", "Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json), output (stdout, stderr, file path)", cfg.Logging},
		{"server", "NFSv4 server to probe", cfg.Server},
		{"timeouts", "Per-phase deadlines of each exchange (0 disables)", cfg.Timeouts},
		{"request", "COMPOUND request. standard_header adds the RFC 5531 procedure, credential and verifier;\n" +
			"put_root_fh prepends PUTROOTFH so READDIR has a current filehandle (file_handle: <hex> uses PUTFH instead);\n" +
			"path adds one LOOKUP per component, get_fh/get_attr add GETFH/GETATTR, raw_ops are appended after READDIR.\n" +
			"An explicit tag: \"\" sends an empty tag", cfg.Request},
		{"transport", "Record-marking limits", cfg.Transport},
		{"probe", "Repeated rounds: count (0 = once), rate (rounds/s, 0 = unpaced), burst", cfg.Probe},
		{"capture", "Exchange capture: type is one of none, memory, filesystem, badger, s3", cfg.Capture},
		{"metrics", "Prometheus metrics; listen serves /metrics while probing (e.g. \":9090\")", cfg.Metrics},
	}

	var b strings.Builder
	b.WriteString("# nfs4probe Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Every setting can be overridden with NFS4PROBE_<SECTION>_<KEY>,\n")
	b.WriteString("# e.g. NFS4PROBE_SERVER_HOST=nfs.example.com\n")

	for _, s := range sections {
		out, err := yaml.Marshal(map[string]any{s.key: s.value})
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s section: %w", s.key, err)
		}

		b.WriteString("\n")
		for _, line := range strings.Split(s.comment, "\n") {
			b.WriteString("# " + line + "\n")
		}
		b.Write(out)
	}

	return b.String(), nil
}
