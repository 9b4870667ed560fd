// Package probe runs repeated request/response rounds against one server.
//
// Each round builds a fresh request, opens a fresh connection, performs one
// framed exchange and closes the connection. Rounds are paced by a token
// bucket, optionally captured to a store, and recorded on client metrics.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/nfs4probe/internal/logger"
	"github.com/marmos91/nfs4probe/internal/protocol/nfs4"
	"github.com/marmos91/nfs4probe/internal/ratelimiter"
	"github.com/marmos91/nfs4probe/pkg/capture"
	"github.com/marmos91/nfs4probe/pkg/client"
	"github.com/marmos91/nfs4probe/pkg/metrics"
)

// RequestBuilder returns the request for a round with the given xid.
type RequestBuilder func(xid uint32) (*nfs4.Request, error)

// Config describes a probe run.
type Config struct {
	// Client holds the endpoint and per-exchange limits.
	Client client.Config

	// Operation labels metrics, logs and captures (e.g. "readdir").
	Operation string

	// FirstXID is the xid of round 1; round n uses FirstXID+n-1.
	FirstXID uint32

	// Count is the number of rounds; values below 1 run a single round.
	Count int

	// Build creates each round's request.
	Build RequestBuilder
}

// Round is the outcome of one exchange.
type Round struct {
	Number   int
	XID      uint32
	Request  []byte
	Response *client.Response
	Reply    *client.Reply
	Err      error
}

// Failed reports whether the exchange itself failed: encoding, transport or
// reply decoding.
func (r *Round) Failed() bool {
	return r.Err != nil
}

// Rejected reports whether a reply arrived but the server did not complete the
// COMPOUND: RPC denial, a non-SUCCESS accept state or a non-OK status.
func (r *Round) Rejected() bool {
	if r.Err != nil || r.Reply == nil {
		return false
	}
	return r.Reply.Compound == nil || r.Reply.Compound.Status != nfs4.StatusOK
}

// Summary aggregates a run.
type Summary struct {
	Rounds   []*Round
	Failed   int
	Rejected int
}

// Err returns an error describing failed rounds, or nil if all succeeded.
func (s *Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d rounds failed", s.Failed, len(s.Rounds))
}

// Runner executes probe rounds.
type Runner struct {
	cfg     Config
	limiter *ratelimiter.RateLimiter
	store   capture.Store
	metrics metrics.ClientMetrics

	// onRound is called after every round; used by the CLI for output.
	onRound func(*Round)
}

// Option customizes a Runner.
type Option func(*Runner)

// WithRateLimiter paces rounds with l.
func WithRateLimiter(l *ratelimiter.RateLimiter) Option {
	return func(r *Runner) { r.limiter = l }
}

// WithCapture saves every round to store.
func WithCapture(store capture.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithMetrics records exchanges on m.
func WithMetrics(m metrics.ClientMetrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// OnRound registers fn to be called after each round.
func OnRound(fn func(*Round)) Option {
	return func(r *Runner) { r.onRound = fn }
}

// NewRunner returns a Runner for cfg.
func NewRunner(cfg Config, opts ...Option) *Runner {
	if cfg.Count < 1 {
		cfg.Count = 1
	}
	if cfg.Operation == "" {
		cfg.Operation = "compound"
	}

	r := &Runner{
		cfg:     cfg,
		limiter: ratelimiter.New(0, 1),
		metrics: metrics.NewNoopClientMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes all rounds in order.
//
// Round failures are logged and counted in the summary; they never stop the
// run. Run only returns an error when ctx ends before all rounds completed,
// together with the rounds finished so far.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	addr := r.cfg.Client.Address()

	logger.Info("Starting probe", "server", addr, "op", r.cfg.Operation, "rounds", r.cfg.Count,
		"unpaced", r.limiter.Unlimited())

	for i := 1; i <= r.cfg.Count; i++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		xid := r.cfg.FirstXID + uint32(i-1)
		roundCtx := logger.WithContext(ctx, &logger.LogContext{Server: addr, XID: xid, Round: i})

		round := r.runRound(roundCtx, i, xid)
		summary.Rounds = append(summary.Rounds, round)
		switch {
		case round.Failed():
			summary.Failed++
		case round.Rejected():
			summary.Rejected++
		}

		if r.onRound != nil {
			r.onRound(round)
		}

		if ctx.Err() != nil && errors.Is(round.Err, ctx.Err()) {
			return summary, ctx.Err()
		}
	}

	logger.Info("Probe finished", "server", addr, "rounds", len(summary.Rounds), "failed", summary.Failed,
		"rejected", summary.Rejected)
	return summary, nil
}

func (r *Runner) runRound(ctx context.Context, n int, xid uint32) *Round {
	round := &Round{Number: n, XID: xid}

	req, err := r.cfg.Build(xid)
	if err != nil {
		round.Err = fmt.Errorf("build request: %w", err)
		logger.ErrorCtx(ctx, "Round failed", "error", round.Err)
		return round
	}

	payload, err := req.Encode()
	if err != nil {
		round.Err = err
		logger.ErrorCtx(ctx, "Round failed", "error", err)
		return round
	}
	round.Request = payload

	var rec *capture.Record
	if r.store != nil {
		rec = capture.NewRecord(r.cfg.Client.Address(), xid, r.cfg.Operation, payload)
	}

	start := time.Now()
	resp, err := client.Exchange(ctx, r.cfg.Client, payload,
		client.WithMetrics(r.metrics), client.WithOperation(r.cfg.Operation))
	round.Response = resp

	if err == nil {
		round.Reply, err = resp.Decode()
		if round.Reply != nil && round.Reply.Compound != nil {
			r.metrics.RecordStatus(round.Reply.Compound.Status.String())
		}
	}
	round.Err = err

	if rec != nil {
		var raw []byte
		duration := time.Since(start)
		if resp != nil {
			raw, duration = resp.Raw, resp.Duration
		}
		rec.Complete(raw, duration, err)
		if serr := r.store.Save(ctx, rec); serr != nil {
			logger.WarnCtx(ctx, "Failed to save capture", "id", rec.ID, "error", serr)
		} else {
			logger.DebugCtx(ctx, "Saved capture", "id", rec.ID)
		}
	}

	switch {
	case round.Err != nil:
		logger.ErrorCtx(ctx, "Round failed", "error", round.Err)
	case round.Rejected():
		logger.WarnCtx(ctx, "Server rejected request", "reply", round.Reply.Summary())
	default:
		logger.InfoCtx(ctx, "Round complete", "reply", round.Reply.Summary(),
			"duration", resp.Duration, "bytes", resp.BytesReceived)
	}

	return round
}
