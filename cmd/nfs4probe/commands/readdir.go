package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/nfs4probe/internal/logger"
	"github.com/marmos91/nfs4probe/internal/protocol/nfs4"
	"github.com/marmos91/nfs4probe/internal/ratelimiter"
	"github.com/marmos91/nfs4probe/pkg/config"
	"github.com/marmos91/nfs4probe/pkg/probe"
	"github.com/spf13/cobra"
)

var readdirCmd = &cobra.Command{
	Use:   "readdir",
	Short: "Send a READDIR COMPOUND and report the reply",
	Long: `Send an NFSv4 COMPOUND carrying READDIR to the configured server and print
a summary of each reply. Optional PUTROOTFH/PUTFH, LOOKUP, GETFH and GETATTR
operations position and describe the directory first.

Every round dials a fresh connection, writes one record-marked request, reads
one reply record and closes the connection. Flags override the matching
configuration keys.

Examples:
  # One READDIR against the configured server
  nfs4probe readdir

  # Ten rounds, two per second, against a specific host
  nfs4probe readdir --host 10.0.0.5 --count 10 --rate 2

  # Give READDIR a current filehandle and dump the raw reply
  nfs4probe readdir --put-root-fh --standard-header --hex

  # List /export/home and fetch its filehandle and attributes
  nfs4probe readdir --put-root-fh --path /export/home --get-fh --get-attr

  # Send an empty COMPOUND tag
  nfs4probe readdir --tag ""`,
	RunE: runReaddir,
}

var readdirFlags struct {
	host           string
	port           int
	xid            uint32
	count          int
	rate           float64
	burst          int
	tag            string
	putRootFH      bool
	fileHandle     string
	path           string
	getFH          bool
	getAttr        bool
	standardHeader bool
	hexDump        bool
}

func init() {
	f := readdirCmd.Flags()
	f.StringVar(&readdirFlags.host, "host", "", "server host (overrides server.host)")
	f.IntVar(&readdirFlags.port, "port", 0, "server port (overrides server.port)")
	f.Uint32Var(&readdirFlags.xid, "xid", 0, "xid of the first round (overrides request.xid)")
	f.IntVar(&readdirFlags.count, "count", 0, "number of rounds (overrides probe.count)")
	f.Float64Var(&readdirFlags.rate, "rate", 0, "rounds per second, 0 = unpaced (overrides probe.rate)")
	f.IntVar(&readdirFlags.burst, "burst", 0, "rounds allowed back to back (overrides probe.burst)")
	f.StringVar(&readdirFlags.tag, "tag", "", "COMPOUND tag, may be empty (overrides request.tag)")
	f.BoolVar(&readdirFlags.putRootFH, "put-root-fh", false, "prepend PUTROOTFH (sets request.put_root_fh)")
	f.StringVar(&readdirFlags.fileHandle, "fh", "", "start from this hex filehandle with PUTFH (overrides request.file_handle)")
	f.StringVar(&readdirFlags.path, "path", "", "LOOKUP each component of this path before READDIR (overrides request.path)")
	f.BoolVar(&readdirFlags.getFH, "get-fh", false, "add GETFH before READDIR (sets request.get_fh)")
	f.BoolVar(&readdirFlags.getAttr, "get-attr", false, "add GETATTR of the directory (sets request.get_attr)")
	f.BoolVar(&readdirFlags.standardHeader, "standard-header", false, "send procedure, credential and verifier (sets request.standard_header)")
	f.BoolVar(&readdirFlags.hexDump, "hex", false, "print a hex dump of every reply")
}

// applyReaddirFlags copies explicitly set flags onto cfg.
func applyReaddirFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = readdirFlags.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = readdirFlags.port
	}
	if flags.Changed("xid") {
		cfg.Request.XID = readdirFlags.xid
	}
	if flags.Changed("count") {
		cfg.Probe.Count = readdirFlags.count
	}
	if flags.Changed("rate") {
		cfg.Probe.Rate = readdirFlags.rate
	}
	if flags.Changed("burst") {
		cfg.Probe.Burst = readdirFlags.burst
	}
	if flags.Changed("tag") {
		tag := readdirFlags.tag
		cfg.Request.Tag = &tag
	}
	if flags.Changed("put-root-fh") {
		cfg.Request.PutRootFH = readdirFlags.putRootFH
	}
	if flags.Changed("fh") {
		cfg.Request.FileHandle = readdirFlags.fileHandle
		if !flags.Changed("put-root-fh") {
			cfg.Request.PutRootFH = false
		}
	}
	if flags.Changed("path") {
		cfg.Request.Path = readdirFlags.path
	}
	if flags.Changed("get-fh") {
		cfg.Request.GetFH = readdirFlags.getFH
	}
	if flags.Changed("get-attr") {
		cfg.Request.GetAttr = readdirFlags.getAttr
	}
	if flags.Changed("standard-header") {
		cfg.Request.StandardHeader = readdirFlags.standardHeader
	}
}

func runReaddir(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	applyReaddirFlags(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := config.CreateCaptureStore(ctx, &cfg.Capture)
	if err != nil {
		return fmt.Errorf("failed to create capture store: %w", err)
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close capture store", "error", err)
			}
		}()
	}

	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := metricsResult.Server.Start(metricsCtx); err != nil {
				logger.Error("Metrics server error", "error", err)
			}
		}()
		defer func() {
			stopMetrics()
			<-done
		}()
	}

	opts := []probe.Option{
		probe.WithRateLimiter(ratelimiter.New(cfg.Probe.Rate, cfg.Probe.Burst)),
		probe.WithMetrics(metricsResult.ClientMetrics),
		probe.OnRound(printRound),
	}
	if store != nil {
		opts = append(opts, probe.WithCapture(store))
	}

	runner := probe.NewRunner(probe.Config{
		Client:    config.ClientConfig(cfg),
		Operation: "readdir",
		FirstXID:  cfg.Request.XID,
		Count:     cfg.Probe.Count,
		Build: func(xid uint32) (*nfs4.Request, error) {
			return config.BuildRequest(&cfg.Request, xid)
		},
	}, opts...)

	summary, err := runner.Run(ctx)
	if summary != nil && len(summary.Rounds) > 1 {
		fmt.Printf("\n%d rounds: %d ok, %d rejected, %d failed\n", len(summary.Rounds),
			len(summary.Rounds)-summary.Failed-summary.Rejected, summary.Rejected, summary.Failed)
	}
	if err != nil {
		return fmt.Errorf("probe interrupted: %w", err)
	}
	return summary.Err()
}

func printRound(r *probe.Round) {
	if r.Failed() {
		fmt.Printf("round %d xid=%d: error: %v\n", r.Number, r.XID, r.Err)
		return
	}

	fmt.Printf("round %d: %s (%d bytes in %s)\n", r.Number, r.Reply.Summary(),
		r.Response.BytesReceived, r.Response.Duration)
	if readdirFlags.hexDump {
		fmt.Print(hex.Dump(r.Response.Raw))
	}
}
