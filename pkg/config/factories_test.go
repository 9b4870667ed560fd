package config

import (
	"bytes"
	"context"
	"encoding/binary"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/nfs4probe/internal/protocol/nfs4"
	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
	captureBadger "github.com/marmos91/nfs4probe/pkg/capture/badger"
	captureFs "github.com/marmos91/nfs4probe/pkg/capture/fs"
	captureMemory "github.com/marmos91/nfs4probe/pkg/capture/memory"
)

func TestCreateCaptureStore_None(t *testing.T) {
	store, err := CreateCaptureStore(context.Background(), &CaptureConfig{Type: "none"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if store != nil {
		t.Fatalf("Expected nil store for type none, got %T", store)
	}
}

func TestCreateCaptureStore_Memory(t *testing.T) {
	store, err := CreateCaptureStore(context.Background(), &CaptureConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory capture store: %v", err)
	}
	if _, ok := store.(*captureMemory.Store); !ok {
		t.Fatalf("Expected *memory.Store, got %T", store)
	}
}

func TestCreateCaptureStore_Filesystem(t *testing.T) {
	cfg := &CaptureConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"path": t.TempDir()},
	}

	store, err := CreateCaptureStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create filesystem capture store: %v", err)
	}
	defer store.Close()

	if _, ok := store.(*captureFs.Store); !ok {
		t.Fatalf("Expected *fs.Store, got %T", store)
	}
}

func TestCreateCaptureStore_FilesystemMissingPath(t *testing.T) {
	cfg := &CaptureConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{},
	}

	_, err := CreateCaptureStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for missing path")
	}
	if !strings.Contains(err.Error(), "capture.filesystem") {
		t.Errorf("Expected error to name the store section, got: %v", err)
	}
}

func TestCreateCaptureStore_Badger(t *testing.T) {
	cfg := &CaptureConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": t.TempDir()},
	}

	store, err := CreateCaptureStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger capture store: %v", err)
	}
	defer store.Close()

	if _, ok := store.(*captureBadger.Store); !ok {
		t.Fatalf("Expected *badger.Store, got %T", store)
	}
}

func TestCreateCaptureStore_BadOptionType(t *testing.T) {
	cfg := &CaptureConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"path": []int{1, 2}},
	}

	if _, err := CreateCaptureStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected decode error for non-string path")
	}
}

func TestCreateCaptureStore_UnknownType(t *testing.T) {
	_, err := CreateCaptureStore(context.Background(), &CaptureConfig{Type: "postgres"})
	if err == nil {
		t.Fatal("Expected error for unknown store type")
	}
	if !strings.Contains(err.Error(), "unknown capture store type") {
		t.Errorf("Expected 'unknown capture store type' error, got: %v", err)
	}
}

func TestBuildRequest_DefaultMatchesCanonicalReaddir(t *testing.T) {
	cfg := GetDefaultConfig()

	req, err := BuildRequest(&cfg.Request, cfg.Request.XID)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}

	got, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want, err := nfs4.DefaultReaddirRequest().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !bytes.Equal(got, want) {
		t.Errorf("Default config should encode the canonical READDIR request\n got: %x\nwant: %x", got, want)
	}
}

func TestBuildRequest_EmptyTag(t *testing.T) {
	cfg := GetDefaultConfig()
	empty := ""
	cfg.Request.Tag = &empty

	req, err := BuildRequest(&cfg.Request, 0)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}

	args, err := req.Compound.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	header, _, err := nfs4.DecodeCompoundArgsHeader(args)
	if err != nil {
		t.Fatalf("DecodeCompoundArgsHeader failed: %v", err)
	}
	if header.Tag != "" {
		t.Errorf("Expected empty tag on the wire, got %q", header.Tag)
	}
	if !bytes.Equal(args[:4], []byte{0, 0, 0, 0}) {
		t.Errorf("Expected zero tag length, got %x", args[:4])
	}
}

func TestBuildRequest_PutRootFHAndXID(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Request.PutRootFH = true

	req, err := BuildRequest(&cfg.Request, 99)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}

	if req.XID != 99 {
		t.Errorf("Expected xid 99, got %d", req.XID)
	}
	names := req.Compound.OpNames()
	if len(names) != 2 || names[0] != "PUTROOTFH" || names[1] != "READDIR" {
		t.Errorf("Expected [PUTROOTFH READDIR], got %v", names)
	}
}

func TestBuildRequest_OperationOrder(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Request.PutRootFH = true
	cfg.Request.Path = "/export/home"
	cfg.Request.GetFH = true
	cfg.Request.GetAttr = true
	cfg.Request.RawOps = []RawOpConfig{{Op: "access", Args: "0000001f"}}

	req, err := BuildRequest(&cfg.Request, 0)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}

	want := []string{"PUTROOTFH", "LOOKUP", "LOOKUP", "GETFH", "GETATTR", "READDIR", "ACCESS"}
	got := req.Compound.OpNames()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Expected %v, got %v", want, got)
	}

	lookup, ok := req.Compound.Ops[2].(*nfs4.Lookup)
	if !ok || lookup.Name != "home" {
		t.Errorf("Expected second LOOKUP of \"home\", got %#v", req.Compound.Ops[2])
	}
	getattr := req.Compound.Ops[4].(*nfs4.GetAttr)
	readdir := req.Compound.Ops[5].(*nfs4.ReaddirArgs)
	if !reflect.DeepEqual(getattr.AttrRequest, readdir.AttrRequest) {
		t.Errorf("Expected GETATTR to request the READDIR attributes, got %v", getattr.AttrRequest)
	}
	raw := req.Compound.Ops[6].(*nfs4.RawOp)
	if !bytes.Equal(raw.Args, []byte{0, 0, 0, 0x1f}) {
		t.Errorf("Expected raw ACCESS args 0000001f, got %x", raw.Args)
	}

	if _, err := req.Encode(); err != nil {
		t.Errorf("Encode failed: %v", err)
	}
}

func TestBuildRequest_PutFHFromHex(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Request.FileHandle = "01020304ff"

	req, err := BuildRequest(&cfg.Request, 0)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}

	putfh, ok := req.Compound.Ops[0].(*nfs4.PutFH)
	if !ok {
		t.Fatalf("Expected PUTFH first, got %v", req.Compound.OpNames())
	}
	if !bytes.Equal(putfh.FH, []byte{1, 2, 3, 4, 0xff}) {
		t.Errorf("Unexpected filehandle %x", putfh.FH)
	}
}

func TestPathComponents(t *testing.T) {
	got := PathComponents("//export/home//user/")
	if strings.Join(got, "|") != "export|home|user" {
		t.Errorf("Unexpected components %q", got)
	}
	if len(PathComponents("/")) != 0 {
		t.Errorf("Expected no components for root path")
	}
}

func TestBuildRequest_ReaddirArguments(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Request.MinorVersion = 1
	cfg.Request.Readdir = ReaddirConfig{
		Cookie:     12,
		DirCount:   512,
		MaxCount:   2048,
		Attributes: []string{"type", "mounted_on_fileid"},
	}

	req, err := BuildRequest(&cfg.Request, 0)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}

	if req.Compound.MinorVersion != 1 {
		t.Errorf("Expected minor version 1, got %d", req.Compound.MinorVersion)
	}
	args, ok := req.Compound.Ops[0].(*nfs4.ReaddirArgs)
	if !ok {
		t.Fatalf("Expected *nfs4.ReaddirArgs, got %T", req.Compound.Ops[0])
	}
	if args.Cookie != 12 || args.DirCount != 512 || args.MaxCount != 2048 {
		t.Errorf("Unexpected readdir args: %+v", args)
	}
	if !args.AttrRequest.IsSet(nfs4.AttrType) || !args.AttrRequest.IsSet(nfs4.AttrMountedOnFileID) {
		t.Errorf("Expected type and mounted_on_fileid in bitmap %v", args.AttrRequest)
	}
	if len(args.AttrRequest) != 2 {
		t.Errorf("Expected a two-word bitmap, got %d words", len(args.AttrRequest))
	}
}

func TestBuildRequest_UnixCredential(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Request.StandardHeader = true
	cfg.Request.Auth = AuthConfig{
		Flavor:      "unix",
		MachineName: "probe-host",
		UID:         1000,
		GID:         100,
		GIDs:        []uint32{4, 27},
	}

	req, err := BuildRequest(&cfg.Request, 5)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}

	if !req.StandardHeader {
		t.Fatal("Expected standard header to be enabled")
	}
	if req.Cred.Flavor != rpc.AuthUnix {
		t.Fatalf("Expected AUTH_UNIX credential, got flavor %d", req.Cred.Flavor)
	}

	auth, err := rpc.ParseUnixAuth(req.Cred.Body)
	if err != nil {
		t.Fatalf("ParseUnixAuth failed: %v", err)
	}
	if auth.MachineName != "probe-host" || auth.UID != 1000 || auth.GID != 100 || len(auth.GIDs) != 2 {
		t.Errorf("Unexpected credential: %+v", auth)
	}

	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// xid, CALL, rpcvers, prog, vers, proc
	if proc := binary.BigEndian.Uint32(data[20:24]); proc != nfs4.ProcCompound {
		t.Errorf("Expected procedure %d, got %d", nfs4.ProcCompound, proc)
	}
}

func TestBuildRequest_UnknownAttribute(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Request.Readdir.Attributes = []string{"bogus"}

	if _, err := BuildRequest(&cfg.Request, 0); err == nil {
		t.Fatal("Expected error for unknown attribute")
	}
}

func TestClientConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Host = "10.1.2.3"
	cfg.Server.Port = 20490
	cfg.Timeouts.Read = 7 * time.Second

	cc := ClientConfig(cfg)
	if cc.Address() != "10.1.2.3:20490" {
		t.Errorf("Expected address 10.1.2.3:20490, got %q", cc.Address())
	}
	if cc.ReadTimeout != 7*time.Second || cc.ConnectTimeout != 10*time.Second {
		t.Errorf("Unexpected timeouts: %+v", cc)
	}
	if cc.MaxRecordSize != cfg.Transport.MaxRecordSize {
		t.Errorf("Expected max record size %d, got %d", cfg.Transport.MaxRecordSize, cc.MaxRecordSize)
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "json"

	lc := LoggerConfig(cfg)
	if lc.Level != "INFO" || lc.Format != "json" || lc.Output != "stdout" {
		t.Errorf("Unexpected logger config: %+v", lc)
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	cfg := GetDefaultConfig()

	result := InitializeMetrics(cfg)
	if result.Server != nil {
		t.Error("Expected no metrics server when metrics are disabled")
	}
	if result.ClientMetrics == nil {
		t.Fatal("Expected no-op client metrics, got nil")
	}
	result.ClientMetrics.RecordCall("readdir", time.Millisecond, nil)
}
