package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/marmos91/nfs4probe/internal/cli/output"
	"github.com/marmos91/nfs4probe/internal/logger"
	"github.com/marmos91/nfs4probe/pkg/capture"
	"github.com/marmos91/nfs4probe/pkg/client"
	"github.com/marmos91/nfs4probe/pkg/config"
	"github.com/spf13/cobra"
)

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "Inspect and replay captured exchanges",
	Long: `Inspect exchanges recorded by the configured capture store.

A capture holds the exact request bytes, the reply record and the outcome of
one round. The memory store does not outlive the process that wrote it, so
these commands need a filesystem, badger or s3 store.

Examples:
  # List every capture
  nfs4probe captures list

  # Show one capture with hex dumps
  nfs4probe captures show 6f1c... --hex

  # Send a captured request again and record the new exchange
  nfs4probe captures replay 6f1c...`,
}

var capturesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured exchanges, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCaptureStore(func(ctx context.Context, _ *config.Config, store capture.Store) error {
			format, err := output.ParseFormat(capturesFlags.output)
			if err != nil {
				return err
			}
			return listCaptures(ctx, store, output.NewPrinter(os.Stdout, format))
		})
	},
}

var capturesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one captured exchange",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCaptureStore(func(ctx context.Context, _ *config.Config, store capture.Store) error {
			format, err := output.ParseFormat(capturesFlags.output)
			if err != nil {
				return err
			}
			return showCapture(ctx, store, args[0], os.Stdout, format, capturesFlags.hexDump)
		})
	},
}

var capturesReplayCmd = &cobra.Command{
	Use:   "replay <id>",
	Short: "Resend a captured request to the configured server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCaptureStore(func(ctx context.Context, cfg *config.Config, store capture.Store) error {
			rec, resp, err := replayCapture(ctx, store, args[0], config.ClientConfig(cfg))
			if rec != nil {
				fmt.Printf("replay %s of capture %s: %s\n", rec.ID, args[0], recordResult(rec))
			}
			if err != nil {
				return err
			}
			if capturesFlags.hexDump {
				fmt.Print(hex.Dump(resp.Raw))
			}
			return nil
		})
	},
}

var capturesFlags struct {
	output  string
	hexDump bool
}

func init() {
	capturesCmd.PersistentFlags().StringVarP(&capturesFlags.output, "output", "o", "table", "output format: table, json or yaml")
	capturesShowCmd.Flags().BoolVar(&capturesFlags.hexDump, "hex", false, "include hex dumps of request and response")
	capturesReplayCmd.Flags().BoolVar(&capturesFlags.hexDump, "hex", false, "print a hex dump of the reply")

	capturesCmd.AddCommand(capturesListCmd)
	capturesCmd.AddCommand(capturesShowCmd)
	capturesCmd.AddCommand(capturesReplayCmd)
}

// withCaptureStore loads the configuration, opens the capture store and
// closes it once fn returns.
func withCaptureStore(fn func(context.Context, *config.Config, capture.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := config.CreateCaptureStore(ctx, &cfg.Capture)
	if err != nil {
		return fmt.Errorf("failed to create capture store: %w", err)
	}
	if store == nil {
		return fmt.Errorf("capture.type is %q: no captures are stored", cfg.Capture.Type)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close capture store", "error", err)
		}
	}()

	return fn(ctx, cfg, store)
}

// captureView is the JSON/YAML shape of a record, with payloads in hex.
type captureView struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Server    string    `json:"server" yaml:"server"`
	XID       uint32    `json:"xid" yaml:"xid"`
	Operation string    `json:"operation" yaml:"operation"`
	Duration  string    `json:"duration" yaml:"duration"`
	Result    string    `json:"result" yaml:"result"`
	Request   string    `json:"request" yaml:"request"`
	Response  string    `json:"response,omitempty" yaml:"response,omitempty"`
}

func newCaptureView(rec *capture.Record) captureView {
	return captureView{
		ID:        rec.ID,
		Timestamp: rec.Timestamp,
		Server:    rec.Server,
		XID:       rec.XID,
		Operation: rec.Operation,
		Duration:  rec.Duration.String(),
		Result:    recordResult(rec),
		Request:   hex.EncodeToString(rec.Request),
		Response:  hex.EncodeToString(rec.Response),
	}
}

// captureList renders records as a table.
type captureList []*capture.Record

func (l captureList) Headers() []string {
	return []string{"ID", "Time", "Server", "XID", "Op", "Sent", "Received", "Duration", "Result"}
}

func (l captureList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, rec := range l {
		rows = append(rows, []string{
			rec.ID,
			rec.Timestamp.Format(time.RFC3339),
			rec.Server,
			strconv.FormatUint(uint64(rec.XID), 10),
			rec.Operation,
			strconv.Itoa(len(rec.Request)),
			strconv.Itoa(len(rec.Response)),
			rec.Duration.Round(time.Microsecond).String(),
			recordResult(rec),
		})
	}
	return rows
}

func listCaptures(ctx context.Context, store capture.Store, p *output.Printer) error {
	records, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list captures: %w", err)
	}

	if p.Format() == output.FormatTable {
		return p.Print(captureList(records))
	}
	views := make([]captureView, 0, len(records))
	for _, rec := range records {
		views = append(views, newCaptureView(rec))
	}
	return p.Print(views)
}

func showCapture(ctx context.Context, store capture.Store, id string, w io.Writer, format output.Format, hexDump bool) error {
	rec, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	if format != output.FormatTable {
		return output.NewPrinter(w, format).Print(newCaptureView(rec))
	}

	if err := output.SimpleTable(w, [][2]string{
		{"ID", rec.ID},
		{"Time", rec.Timestamp.Format(time.RFC3339Nano)},
		{"Server", rec.Server},
		{"XID", strconv.FormatUint(uint64(rec.XID), 10)},
		{"Operation", rec.Operation},
		{"Duration", rec.Duration.String()},
		{"Request", fmt.Sprintf("%d bytes", len(rec.Request))},
		{"Response", fmt.Sprintf("%d bytes", len(rec.Response))},
		{"Result", recordResult(rec)},
	}); err != nil {
		return err
	}

	if hexDump {
		_, _ = fmt.Fprintf(w, "\nRequest:\n%s", hex.Dump(rec.Request))
		if len(rec.Response) > 0 {
			_, _ = fmt.Fprintf(w, "\nResponse:\n%s", hex.Dump(rec.Response))
		}
	}
	return nil
}

// replayCapture sends the stored request bytes unchanged and saves the new
// exchange as a record of its own. The returned record is non-nil whenever
// the request was sent.
func replayCapture(ctx context.Context, store capture.Store, id string, cfg client.Config) (*capture.Record, *client.Response, error) {
	orig, err := store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rec := capture.NewRecord(cfg.Address(), orig.XID, "replay:"+orig.Operation, orig.Request)
	start := time.Now()
	resp, callErr := client.Exchange(ctx, cfg, orig.Request, client.WithOperation(rec.Operation))

	var raw []byte
	if resp != nil {
		raw = resp.Raw
	}
	rec.Complete(raw, time.Since(start), callErr)

	if err := store.Save(ctx, rec); err != nil {
		logger.Warn("Failed to save replay capture", "id", rec.ID, "error", err)
	}
	if callErr != nil {
		return rec, nil, fmt.Errorf("replay %s: %w", id, callErr)
	}
	return rec, resp, nil
}

// recordResult is a one-line outcome: the error, or the decoded reply summary.
func recordResult(rec *capture.Record) string {
	if rec.Failed() {
		return "error: " + rec.Error
	}
	if len(rec.Response) == 0 {
		return "no reply"
	}
	reply, err := (&client.Response{Raw: rec.Response}).Decode()
	if err != nil {
		return "undecodable: " + err.Error()
	}
	return reply.Summary()
}
