package tool

import (
	"context"
	"sync"
)

type (
	// CallData is one completed tool invocation: the name, the decoded
	// arguments and the typed result value. Callers that need the structured
	// output of a tool run read these instead of parsing the transcript.
	CallData struct {
		Name      string
		Arguments any
		Result    any
	}

	callDataStore struct {
		mtx  sync.Mutex
		data []CallData
	}

	callDataStoreKey struct{}
)

// WithEmptyCallDataStore attaches a fresh call data store to the context. Each
// generation run gets its own store so concurrent runs never see each other's
// tool results.
func WithEmptyCallDataStore(ctx context.Context) context.Context {
	return context.WithValue(ctx, callDataStoreKey{}, &callDataStore{})
}

func appendCallData(ctx context.Context, data CallData) {
	store, ok := ctx.Value(callDataStoreKey{}).(*callDataStore)
	if !ok {
		return
	}
	store.mtx.Lock()
	defer store.mtx.Unlock()
	store.data = append(store.data, data)
}

// GetCallData returns the tool invocations recorded since
// WithEmptyCallDataStore, in call order.
func GetCallData(ctx context.Context) []CallData {
	store, ok := ctx.Value(callDataStoreKey{}).(*callDataStore)
	if !ok {
		return nil
	}
	store.mtx.Lock()
	defer store.mtx.Unlock()
	return append([]CallData(nil), store.data...)
}
