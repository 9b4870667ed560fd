package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
)

// ClientMetrics provides observability for request/response exchanges.
//
// Implementations must be safe for concurrent use. When metrics are disabled
// a no-op implementation is used.
type ClientMetrics interface {
	// RecordCall records a completed exchange.
	//
	// Parameters:
	//   - op: operation label, e.g. "READDIR" or "PUTROOTFH+READDIR"
	//   - duration: time from first byte sent to last byte received
	//   - err: nil on success; the error kind becomes the "result" label
	RecordCall(op string, duration time.Duration, err error)

	// RecordBytes records bytes moved over the wire.
	//
	// Parameters:
	//   - direction: "sent" or "received"
	//   - n: number of bytes, including record marking
	RecordBytes(direction string, n int)

	// RecordConnection records a dial attempt and its outcome.
	RecordConnection(err error)

	// RecordStatus records the COMPOUND status returned by the server.
	RecordStatus(status string)
}

// Byte direction labels.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

type clientMetrics struct {
	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	bytesTotal    *prometheus.CounterVec
	connections   *prometheus.CounterVec
	statusesTotal *prometheus.CounterVec
}

// NewClientMetrics returns ClientMetrics registered on the global registry,
// or a no-op implementation when metrics are disabled.
func NewClientMetrics() ClientMetrics {
	if !IsEnabled() {
		return NewNoopClientMetrics()
	}
	return NewClientMetricsWith(GetRegistry())
}

// NewClientMetricsWith registers ClientMetrics on reg.
func NewClientMetricsWith(reg prometheus.Registerer) ClientMetrics {
	return &clientMetrics{
		callsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfs4probe_calls_total",
				Help: "Total number of exchanges by operation and result",
			},
			[]string{"op", "result"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nfs4probe_call_duration_milliseconds",
				Help: "Round-trip time of exchanges in milliseconds",
				Buckets: []float64{
					1,    // 1ms
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms
					100,  // 100ms
					500,  // 500ms
					1000, // 1s
					5000, // 5s
				},
			},
			[]string{"op"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfs4probe_bytes_total",
				Help: "Total bytes moved over the wire",
			},
			[]string{"direction"},
		),
		connections: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfs4probe_connections_total",
				Help: "Total number of dial attempts by result",
			},
			[]string{"result"},
		),
		statusesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfs4probe_compound_status_total",
				Help: "COMPOUND status codes returned by the server",
			},
			[]string{"status"},
		),
	}
}

func (m *clientMetrics) RecordCall(op string, duration time.Duration, err error) {
	m.callsTotal.WithLabelValues(op, ResultLabel(err)).Inc()
	m.callDuration.WithLabelValues(op).Observe(duration.Seconds() * 1000)
}

func (m *clientMetrics) RecordBytes(direction string, n int) {
	m.bytesTotal.WithLabelValues(direction).Add(float64(n))
}

func (m *clientMetrics) RecordConnection(err error) {
	m.connections.WithLabelValues(ResultLabel(err)).Inc()
}

func (m *clientMetrics) RecordStatus(status string) {
	m.statusesTotal.WithLabelValues(status).Inc()
}

// ResultLabel maps an error to a low-cardinality label value.
func ResultLabel(err error) string {
	if err == nil {
		return "success"
	}

	var tErr *rpc.TransportError
	if errors.As(err, &tErr) {
		if tErr.Timeout() {
			return "timeout"
		}
		return "transport_error"
	}

	var encErr *rpc.EncodingError
	if errors.As(err, &encErr) {
		return "encoding_error"
	}

	return "error"
}

type noopClientMetrics struct{}

// NewNoopClientMetrics returns ClientMetrics that discard everything.
func NewNoopClientMetrics() ClientMetrics {
	return noopClientMetrics{}
}

func (noopClientMetrics) RecordCall(string, time.Duration, error) {}
func (noopClientMetrics) RecordBytes(string, int)                 {}
func (noopClientMetrics) RecordConnection(error)                  {}
func (noopClientMetrics) RecordStatus(string)                     {}
