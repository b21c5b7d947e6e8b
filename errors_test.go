package dango

import (
	"errors"
	"fmt"
	"testing"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango/types"
)

func TestProtocolError(t *testing.T) {
	err := NewProtocolError(types.KindBalance, types.KindSupply)
	expected := "protocol error: expected balance response, got supply"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrProtocol) {
		t.Error("expected ProtocolError to match ErrProtocol")
	}

	wrapped := fmt.Errorf("action: %w", err)
	p, ok := IsProtocolError(wrapped)
	if !ok {
		t.Fatal("expected IsProtocolError to unwrap wrapped error")
	}
	if p.Expected != types.KindBalance || p.Got != types.KindSupply {
		t.Errorf("unexpected kinds %s/%s", p.Expected, p.Got)
	}

	if _, ok := IsProtocolError(ErrProtocol); ok {
		t.Error("bare sentinel is not a *ProtocolError")
	}
	if _, ok := IsProtocolError(nil); ok {
		t.Error("expected false for nil")
	}
}

func TestProtocolError_Reason(t *testing.T) {
	err := &ProtocolError{Expected: types.KindUnknown, Reason: "no variant set"}
	expected := "protocol error: expected unknown(0) response: no variant set"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestKeyNotFoundError(t *testing.T) {
	err := NewKeyNotFoundError("bank", 12)
	if err.Error() != `app config key "bank" not found at height 12` {
		t.Errorf("unexpected message %q", err.Error())
	}
	latest := NewKeyNotFoundError("bank", types.LatestHeight)
	if latest.Error() != `app config key "bank" not found at latest height` {
		t.Errorf("unexpected message %q", latest.Error())
	}

	wrapped := fmt.Errorf("resolve: %w", err)
	if !errors.Is(wrapped, ErrKeyNotFound) {
		t.Error("expected wrapped error to match ErrKeyNotFound")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Error("a missing registry key is not a missing entity")
	}
	k, ok := IsKeyNotFound(wrapped)
	if !ok || k.Key != "bank" || k.Height != 12 {
		t.Errorf("unexpected IsKeyNotFound result %+v, %v", k, ok)
	}
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewDecodeError("smart query answer", cause)

	if !errors.Is(err, ErrDecode) {
		t.Error("expected DecodeError to match ErrDecode")
	}
	if !errors.Is(err, cause) {
		t.Error("expected DecodeError to unwrap to its cause")
	}
	if err.Error() != "decode smart query answer: unexpected end of JSON input" {
		t.Errorf("unexpected message %q", err.Error())
	}
	d, ok := IsDecodeError(fmt.Errorf("x: %w", err))
	if !ok || d.What != "smart query answer" {
		t.Errorf("unexpected IsDecodeError result %+v, %v", d, ok)
	}
}

func TestClassified(t *testing.T) {
	classified := []error{
		errorsmod.Wrap(ErrTransport, "dial"),
		errorsmod.Wrapf(ErrNotFound, "code %s", "00"),
		ErrQueryFailed,
		NewProtocolError(types.KindInfo, types.KindCode),
		NewKeyNotFoundError("k", 0),
		NewDecodeError("x", errors.New("bad")),
		fmt.Errorf("outer: %w", ErrTransport),
	}
	for _, err := range classified {
		if !Classified(err) {
			t.Errorf("expected %v to be classified", err)
		}
	}

	for _, err := range []error{errors.New("boom"), fmt.Errorf("wrapped: %w", errors.New("boom"))} {
		if Classified(err) {
			t.Errorf("expected %v to be unclassified", err)
		}
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(errorsmod.Wrap(ErrNotFound, "account")) {
		t.Error("expected IsNotFound")
	}
	if IsNotFound(ErrTransport) {
		t.Error("transport failure is not absence")
	}
	if !IsTransport(errorsmod.Wrap(ErrTransport, "timeout")) {
		t.Error("expected IsTransport")
	}
}

func TestSentinelsDistinct(t *testing.T) {
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches %v", a, b)
			}
		}
	}
}
