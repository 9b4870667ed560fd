package config

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/nfs4probe/internal/logger"
	"github.com/marmos91/nfs4probe/internal/protocol/nfs4"
	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
	"github.com/marmos91/nfs4probe/pkg/capture"
	captureBadger "github.com/marmos91/nfs4probe/pkg/capture/badger"
	captureFs "github.com/marmos91/nfs4probe/pkg/capture/fs"
	captureMemory "github.com/marmos91/nfs4probe/pkg/capture/memory"
	captureS3 "github.com/marmos91/nfs4probe/pkg/capture/s3"
	"github.com/marmos91/nfs4probe/pkg/client"
	"github.com/mitchellh/mapstructure"
)

// Credential flavors accepted by request.auth.flavor.
const (
	AuthFlavorNone = "none"
	AuthFlavorUnix = "unix"
)

// CreateCaptureStore creates a capture store based on configuration.
//
// The Type field selects the implementation; the matching type-specific map
// is decoded into that store's Config and passed to its constructor.
//
// Supported types:
//   - "none": no store, returns (nil, nil)
//   - "memory": pkg/capture/memory
//   - "filesystem": pkg/capture/fs (one JSON file per record)
//   - "badger": pkg/capture/badger (embedded BadgerDB)
//   - "s3": pkg/capture/s3 (Amazon S3 or compatible storage)
func CreateCaptureStore(ctx context.Context, cfg *CaptureConfig) (capture.Store, error) {
	opts, err := decodeCaptureOptions(cfg)
	if err != nil {
		return nil, err
	}

	switch storeCfg := opts.(type) {
	case nil:
		if cfg.Type == capture.TypeMemory {
			return captureMemory.New(), nil
		}
		return nil, nil
	case captureFs.Config:
		store, err := captureFs.New(ctx, storeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create filesystem capture store: %w", err)
		}
		return store, nil
	case captureBadger.Config:
		store, err := captureBadger.New(ctx, storeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger capture store: %w", err)
		}
		return store, nil
	case captureS3.Config:
		return createS3CaptureStore(ctx, storeCfg)
	default:
		return nil, fmt.Errorf("unknown capture store type: %q", cfg.Type)
	}
}

// decodeCaptureOptions decodes and validates the options map of the selected
// store type. It returns nil for store types without options.
func decodeCaptureOptions(cfg *CaptureConfig) (any, error) {
	var (
		target  any
		options map[string]any
	)

	switch cfg.Type {
	case capture.TypeNone, capture.TypeMemory:
		return nil, nil
	case capture.TypeFilesystem:
		target, options = &captureFs.Config{}, cfg.Filesystem
	case capture.TypeBadger:
		target, options = &captureBadger.Config{}, cfg.Badger
	case capture.TypeS3:
		target, options = &captureS3.Config{}, cfg.S3
	default:
		return nil, fmt.Errorf("unknown capture store type: %q", cfg.Type)
	}

	if err := mapstructure.Decode(options, target); err != nil {
		return nil, fmt.Errorf("failed to decode %s capture store config: %w", cfg.Type, err)
	}
	if err := validate.Struct(target); err != nil {
		return nil, fmt.Errorf("capture.%s: %w", cfg.Type, formatValidationError(err))
	}

	switch t := target.(type) {
	case *captureFs.Config:
		return *t, nil
	case *captureBadger.Config:
		return *t, nil
	default:
		return *target.(*captureS3.Config), nil
	}
}

// createS3CaptureStore builds the AWS client and verifies bucket access.
func createS3CaptureStore(ctx context.Context, storeCfg captureS3.Config) (capture.Store, error) {
	s3Client, err := captureS3.NewClient(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("Connecting S3 capture store", "bucket", storeCfg.Bucket, "region", storeCfg.Region,
		"endpoint", storeCfg.Endpoint)

	store, err := captureS3.New(ctx, s3Client, storeCfg.Bucket, storeCfg.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 capture store: %w", err)
	}
	return store, nil
}

// BuildRequest assembles the READDIR COMPOUND described by cfg for the given xid.
//
// The operation list is, in order: PUTROOTFH or PUTFH when a starting
// filehandle is configured, one LOOKUP per path component, GETFH, GETATTR,
// READDIR, and finally the raw operations.
func BuildRequest(cfg *RequestConfig, xid uint32) (*nfs4.Request, error) {
	attrs, err := nfs4.ParseAttrs(cfg.Readdir.Attributes)
	if err != nil {
		return nil, fmt.Errorf("request.readdir.attributes: %w", err)
	}
	bitmap := nfs4.NewBitmap(attrs...)

	ops, err := leadingOps(cfg, bitmap)
	if err != nil {
		return nil, err
	}

	ops = append(ops, &nfs4.ReaddirArgs{
		Cookie:      cfg.Readdir.Cookie,
		DirCount:    cfg.Readdir.DirCount,
		MaxCount:    cfg.Readdir.MaxCount,
		AttrRequest: bitmap,
	})

	raw, err := rawOps(cfg.RawOps)
	if err != nil {
		return nil, err
	}
	ops = append(ops, raw...)

	req := nfs4.NewRequest(xid, cfg.TagValue(), ops...)
	req.Compound.MinorVersion = cfg.MinorVersion
	req.StandardHeader = cfg.StandardHeader

	if cfg.StandardHeader {
		cred, err := buildCredential(&cfg.Auth)
		if err != nil {
			return nil, err
		}
		req.Cred = cred
	}

	return req, nil
}

// leadingOps builds the operations that position the current filehandle
// before READDIR.
func leadingOps(cfg *RequestConfig, bitmap nfs4.Bitmap4) ([]nfs4.Operation, error) {
	var ops []nfs4.Operation

	switch {
	case cfg.FileHandle != "" && cfg.PutRootFH:
		return nil, fmt.Errorf("request: file_handle and put_root_fh are mutually exclusive")
	case cfg.FileHandle != "":
		fh, err := hex.DecodeString(cfg.FileHandle)
		if err != nil {
			return nil, fmt.Errorf("request.file_handle: %w", err)
		}
		ops = append(ops, &nfs4.PutFH{FH: fh})
	case cfg.PutRootFH:
		ops = append(ops, nfs4.PutRootFH{})
	}

	components := PathComponents(cfg.Path)
	if len(components) > 0 && len(ops) == 0 {
		return nil, fmt.Errorf("request.path: requires put_root_fh or file_handle")
	}
	for _, name := range components {
		ops = append(ops, &nfs4.Lookup{Name: name})
	}

	if cfg.GetFH {
		ops = append(ops, nfs4.GetFH{})
	}
	if cfg.GetAttr {
		ops = append(ops, &nfs4.GetAttr{AttrRequest: bitmap})
	}

	return ops, nil
}

// PathComponents splits a slash-separated path into LOOKUP names, dropping
// empty components.
func PathComponents(path string) []string {
	var names []string
	for _, name := range strings.Split(path, "/") {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func rawOps(cfgs []RawOpConfig) ([]nfs4.Operation, error) {
	ops := make([]nfs4.Operation, 0, len(cfgs))
	for i, rc := range cfgs {
		code, err := nfs4.ParseOpcode(rc.Op)
		if err != nil {
			return nil, fmt.Errorf("request.raw_ops[%d].op: %w", i, err)
		}
		args, err := hex.DecodeString(strings.TrimSpace(rc.Args))
		if err != nil {
			return nil, fmt.Errorf("request.raw_ops[%d].args: %w", i, err)
		}
		ops = append(ops, &nfs4.RawOp{Code: code, Args: args})
	}
	return ops, nil
}

func buildCredential(cfg *AuthConfig) (rpc.OpaqueAuth, error) {
	switch cfg.Flavor {
	case AuthFlavorNone, "":
		return rpc.NullAuth(), nil
	case AuthFlavorUnix:
		machine := cfg.MachineName
		if machine == "" {
			machine, _ = os.Hostname()
		}
		auth := &rpc.UnixAuth{
			MachineName: machine,
			UID:         cfg.UID,
			GID:         cfg.GID,
			GIDs:        cfg.GIDs,
		}
		return auth.Encode()
	default:
		return rpc.OpaqueAuth{}, fmt.Errorf("request.auth: unknown flavor %q", cfg.Flavor)
	}
}

// ClientConfig returns the transport settings for pkg/client.
func ClientConfig(cfg *Config) client.Config {
	return client.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ConnectTimeout: cfg.Timeouts.Connect,
		WriteTimeout:   cfg.Timeouts.Write,
		ReadTimeout:    cfg.Timeouts.Read,
		MaxRecordSize:  cfg.Transport.MaxRecordSize,
	}
}

// LoggerConfig returns the settings for logger.Init.
func LoggerConfig(cfg *Config) logger.Config {
	return logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
}
