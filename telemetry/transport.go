package telemetry

import (
	"context"
	"io"
	"time"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/types"
)

// Compile-time interface checks.
var (
	_ dango.Transport = (*MeteredTransport)(nil)
	_ io.Closer       = (*MeteredTransport)(nil)
)

// MeteredTransport records a count, an error class and a latency
// sample for every query passing through the wrapped transport.
type MeteredTransport struct {
	next    dango.Transport
	metrics *Metrics
	now     func() time.Time
}

// NewMeteredTransport wraps next.
func NewMeteredTransport(next dango.Transport, m *Metrics) *MeteredTransport {
	return &MeteredTransport{next: next, metrics: m, now: time.Now}
}

// Execute implements dango.Transport. Errors pass through unchanged.
func (t *MeteredTransport) Execute(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error) {
	kind := req.Kind().String()
	start := t.now()

	resp, err := t.next.Execute(ctx, req, height)

	status := "ok"
	if err != nil {
		status = "error"
		t.metrics.QueryErrorsTotal.With("kind", kind, "class", Class(err)).Add(1)
	}
	t.metrics.QueriesTotal.With("kind", kind).Add(1)
	t.metrics.QueryDurationSeconds.With("kind", kind, "status", status).Observe(t.now().Sub(start).Seconds())
	return resp, err
}

// Close closes the wrapped transport if it is closable.
func (t *MeteredTransport) Close() error {
	if c, ok := t.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Unwrap returns the wrapped transport.
func (t *MeteredTransport) Unwrap() dango.Transport { return t.next }
