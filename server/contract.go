package server

import (
	"bytes"
	"encoding/json"
	"reflect"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango"
)

// DecodeMsg decodes a contract query message into v, a pointer to a
// struct with one pointer field per message variant. Unknown fields
// and messages setting other than exactly one variant fail with
// dango.ErrQueryFailed.
func DecodeMsg(msg json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errorsmod.Wrapf(dango.ErrQueryFailed, "unknown query message: %s", err)
	}

	rv := reflect.ValueOf(v).Elem()
	set := 0
	for i := 0; i < rv.NumField(); i++ {
		if f := rv.Field(i); f.Kind() == reflect.Pointer && !f.IsNil() {
			set++
		}
	}
	if set != 1 {
		return errorsmod.Wrapf(dango.ErrQueryFailed, "query message must set exactly one variant, got %d", set)
	}
	return nil
}

// EncodeAnswer JSON-encodes a contract answer.
func EncodeAnswer(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errorsmod.Wrapf(dango.ErrQueryFailed, "encode answer: %s", err)
	}
	return raw, nil
}
