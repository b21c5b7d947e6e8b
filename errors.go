package dango

import (
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango/types"
)

const codespace = "dango"

var (
	// ErrTransport: the node could not be reached or did not answer in
	// time. Not retried by this package.
	ErrTransport = errorsmod.Register(codespace, 1, "transport failure")
	// ErrProtocol: request/response variant skew between client and node.
	ErrProtocol = errorsmod.Register(codespace, 2, "protocol error")
	// ErrNotFound: the queried entity does not exist at the given height.
	ErrNotFound = errorsmod.Register(codespace, 3, "not found")
	// ErrKeyNotFound: the app-config registry has no such key.
	ErrKeyNotFound = errorsmod.Register(codespace, 4, "app config key not found")
	// ErrDecode: a payload does not match the expected shape.
	ErrDecode = errorsmod.Register(codespace, 5, "decode error")
	// ErrQueryFailed: the node executed the query and reported a failure
	// other than absence (e.g., a contract error).
	ErrQueryFailed = errorsmod.Register(codespace, 6, "query failed")
)

var sentinels = []error{
	ErrTransport, ErrProtocol, ErrNotFound, ErrKeyNotFound, ErrDecode, ErrQueryFailed,
}

// ProtocolError reports a response whose variant tag does not match the
// request's. It satisfies errors.Is(err, ErrProtocol).
type ProtocolError struct {
	Expected types.QueryKind
	Got      types.QueryKind
	Reason   string
}

func (e *ProtocolError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("protocol error: expected %s response: %s", e.Expected, e.Reason)
	}
	return fmt.Sprintf("protocol error: expected %s response, got %s", e.Expected, e.Got)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

// NewProtocolError creates a variant-mismatch ProtocolError.
func NewProtocolError(expected, got types.QueryKind) *ProtocolError {
	return &ProtocolError{Expected: expected, Got: got}
}

// IsProtocolError checks whether an error is a ProtocolError and
// returns it.
func IsProtocolError(err error) (*ProtocolError, bool) {
	var p *ProtocolError
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}

// KeyNotFoundError reports an app-config key missing at a height. It
// satisfies errors.Is(err, ErrKeyNotFound).
type KeyNotFoundError struct {
	Key    string
	Height types.Height
}

func (e *KeyNotFoundError) Error() string {
	if e.Height == types.LatestHeight {
		return fmt.Sprintf("app config key %q not found at latest height", e.Key)
	}
	return fmt.Sprintf("app config key %q not found at height %d", e.Key, e.Height)
}

func (e *KeyNotFoundError) Unwrap() error { return ErrKeyNotFound }

// NewKeyNotFoundError creates a new KeyNotFoundError.
func NewKeyNotFoundError(key string, height types.Height) *KeyNotFoundError {
	return &KeyNotFoundError{Key: key, Height: height}
}

// IsKeyNotFound checks whether an error is a KeyNotFoundError and
// returns it.
func IsKeyNotFound(err error) (*KeyNotFoundError, bool) {
	var k *KeyNotFoundError
	if errors.As(err, &k) {
		return k, true
	}
	return nil, false
}

// IsNotFound reports whether the node said the queried entity is
// absent.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }

// Classified reports whether err already belongs to the taxonomy above,
// so that layers passing it through do not re-wrap it.
func Classified(err error) bool {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// DecodeError reports a payload that could not be decoded into the
// expected type. It satisfies errors.Is(err, ErrDecode) and unwraps to
// the underlying decoder error.
type DecodeError struct {
	// What names the payload (e.g., "app config key \"bank\"").
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// NewDecodeError creates a new DecodeError.
func NewDecodeError(what string, err error) *DecodeError {
	return &DecodeError{What: what, Err: err}
}

// IsDecodeError checks whether an error is a DecodeError and returns it.
func IsDecodeError(err error) (*DecodeError, bool) {
	var d *DecodeError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
