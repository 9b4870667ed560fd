package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", ResultLabel(nil))
	assert.Equal(t, "transport_error", ResultLabel(&rpc.TransportError{Op: "read", Err: io.ErrUnexpectedEOF}))
	assert.Equal(t, "timeout", ResultLabel(&rpc.TransportError{Op: "read", Err: timeoutErr{}}))
	assert.Equal(t, "encoding_error", ResultLabel(&rpc.EncodingError{Field: "compound.tag"}))
	assert.Equal(t, "error", ResultLabel(errors.New("other")))
	assert.Equal(t, "timeout", ResultLabel(&rpc.TransportError{Err: os.ErrDeadlineExceeded}))
}

func TestClientMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetricsWith(reg).(*clientMetrics)

	m.RecordCall("READDIR", 12*time.Millisecond, nil)
	m.RecordCall("READDIR", 3*time.Millisecond, &rpc.TransportError{Op: "read"})
	m.RecordBytes(DirectionSent, 80)
	m.RecordBytes(DirectionReceived, 120)
	m.RecordBytes(DirectionReceived, 8)
	m.RecordConnection(nil)
	m.RecordStatus("NFS4_OK")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("READDIR", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("READDIR", "transport_error")))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.bytesTotal.WithLabelValues(DirectionSent)))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.bytesTotal.WithLabelValues(DirectionReceived)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusesTotal.WithLabelValues("NFS4_OK")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.callDuration))
}

func TestNoopClientMetrics(t *testing.T) {
	m := NewNoopClientMetrics()
	m.RecordCall("READDIR", time.Second, nil)
	m.RecordBytes(DirectionSent, 1)
	m.RecordConnection(errors.New("refused"))
	m.RecordStatus("NFS4_OK")
}

func TestServerServesRegistry(t *testing.T) {
	InitRegistry()
	m := NewClientMetrics()
	m.RecordConnection(nil)

	srv := NewServer("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "nfs4probe_connections_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
