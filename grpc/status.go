package dangogrpc

import (
	"context"
	"errors"

	errorsmod "cosmossdk.io/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/types"
)

// toStatus maps a node-side error to the gRPC status the client maps
// back in fromStatus.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Unknown
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, dango.ErrKeyNotFound):
		code = codes.FailedPrecondition
	case errors.Is(err, dango.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, dango.ErrProtocol):
		code = codes.InvalidArgument
	case errors.Is(err, dango.ErrTransport):
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}

// fromStatus classifies an RPC error for a request of the given kind.
func fromStatus(kind types.QueryKind, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return errorsmod.Wrapf(dango.ErrTransport, "%s query: %s", kind, err)
	}

	switch st.Code() {
	case codes.NotFound:
		return errorsmod.Wrap(dango.ErrNotFound, st.Message())
	case codes.FailedPrecondition:
		return errorsmod.Wrap(dango.ErrKeyNotFound, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return errorsmod.Wrapf(dango.ErrTransport, "%s query: %s: %s", kind, st.Code(), st.Message())
	case codes.InvalidArgument:
		return &dango.ProtocolError{Expected: kind, Reason: st.Message()}
	default:
		return errorsmod.Wrapf(dango.ErrQueryFailed, "%s query: %s", kind, st.Message())
	}
}
