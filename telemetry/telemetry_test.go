package telemetry

import (
	"context"
	"errors"
	"testing"

	errorsmod "cosmossdk.io/errors"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/dango"
	dangotest "github.com/blockberries/dango/testing"
	"github.com/blockberries/dango/types"
)

func TestMeteredTransport_CountsByKind(t *testing.T) {
	m, err := NewMetrics(stdprometheus.NewRegistry())
	require.NoError(t, err)

	mock := &dangotest.MockTransport{
		Responses: map[types.QueryKind]types.QueryResponse{
			types.KindInfo: types.InfoResult(types.InfoResponse{ChainID: "dango-1"}),
		},
	}
	c := dango.NewPublicClient(NewMeteredTransport(mock, m))

	for range 3 {
		_, err := c.Query(context.Background(), types.NewQueryRequest(types.QueryInfoRequest{}), 0)
		require.NoError(t, err)
	}
	_, err = c.Query(context.Background(), types.NewQueryRequest(types.QueryCodesRequest{}), 0)
	require.ErrorIs(t, err, dango.ErrQueryFailed)

	require.Equal(t, 3.0, testutil.ToFloat64(m.queries.WithLabelValues("info")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("codes")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("codes", "query_failed")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.errors.WithLabelValues("info", "query_failed")))
	require.Equal(t, 2, testutil.CollectAndCount(m.durations))
}

func TestMeteredTransport_PassesErrorsThrough(t *testing.T) {
	m, err := NewMetrics(stdprometheus.NewRegistry())
	require.NoError(t, err)

	cause := errorsmod.Wrap(dango.ErrNotFound, "account")
	mock := &dangotest.MockTransport{
		ExecuteFn: func(context.Context, types.QueryRequest, types.Height) (types.QueryResponse, error) {
			return types.QueryResponse{}, cause
		},
	}
	tr := NewMeteredTransport(mock, m)

	_, err = tr.Execute(context.Background(), types.NewQueryRequest(types.QueryAccountRequest{Address: "dango1a"}), 4)
	require.Same(t, cause, err)
	require.Equal(t, types.Height(4), mock.Recorded()[0].Height)
	require.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("account", "not_found")))
}

func TestNewMetrics_SharesRegistry(t *testing.T) {
	reg := stdprometheus.NewRegistry()
	a, err := NewMetrics(reg)
	require.NoError(t, err)
	b, err := NewMetrics(reg)
	require.NoError(t, err)

	a.QueriesTotal.With("kind", "info").Add(1)
	b.QueriesTotal.With("kind", "info").Add(1)
	require.Equal(t, 2.0, testutil.ToFloat64(a.queries.WithLabelValues("info")))
}

func TestMeteredTransport_Close(t *testing.T) {
	m, err := NewMetrics(stdprometheus.NewRegistry())
	require.NoError(t, err)

	h := dangotest.NewHarness(t, "dango-1")
	tr := NewMeteredTransport(h.Transport, m)
	require.NoError(t, tr.Close())
	require.Same(t, h.Transport, tr.Unwrap())

	_, err = tr.Execute(context.Background(), types.NewQueryRequest(types.QueryInfoRequest{}), 0)
	require.ErrorIs(t, err, dango.ErrTransport)
	require.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("info", "transport")))

	require.NoError(t, NewMeteredTransport(&dangotest.MockTransport{}, m).Close())
}

func TestClass(t *testing.T) {
	cases := map[string]error{
		"none":          nil,
		"protocol":      dango.NewProtocolError(types.KindInfo, types.KindCode),
		"not_found":     dango.ErrNotFound,
		"key_not_found": dango.NewKeyNotFoundError("bank", 0),
		"decode":        dango.NewDecodeError("x", errors.New("bad")),
		"query_failed":  errorsmod.Wrap(dango.ErrQueryFailed, "contract"),
		"transport":     dango.ErrTransport,
		"unclassified":  errors.New("boom"),
	}
	for want, err := range cases {
		require.Equal(t, want, Class(err), "%v", err)
	}
}
