package appconfig

import (
	"context"
	"encoding/json"

	"github.com/blockberries/dango/types"
)

// countingQuerier answers app_config queries with an empty registry.
type countingQuerier struct {
	id    string
	calls int
}

func (q *countingQuerier) ID() string {
	if q.id == "" {
		return "counting"
	}
	return q.id
}

func (q *countingQuerier) Query(context.Context, types.QueryRequest, types.Height) (types.QueryResponse, error) {
	q.calls++
	return types.AppConfigResult(json.RawMessage(`{}`)), nil
}
