package server

import (
	"context"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"

	"github.com/chazu/stackvm/vm"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
//
// Every test gets its own VM so pids start at 1 and no process leaks
// between tests.
// ---------------------------------------------------------------------------

// testEnv bundles a fresh VM with its worker and service.
type testEnv struct {
	Worker  *VMWorker
	Service *ProcessService
}

// newTestEnv creates a brand-new VM + worker + service, stopped when the
// test ends.
func newTestEnv(t *testing.T, opts ...vm.Option) *testEnv {
	t.Helper()
	w := NewVMWorker(vm.New(opts...))
	t.Cleanup(w.Stop)
	return &testEnv{Worker: w, Service: NewProcessService(w)}
}

// newTestClient starts an httptest server around a fresh Server and
// returns a client for it.
func newTestClient(t *testing.T) *ProcessServiceClient {
	t.Helper()
	s := New(vm.New())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Stop()
	})
	return NewProcessServiceClient(ts.Client(), ts.URL)
}

// ---------------------------------------------------------------------------
// Request builder helpers.
// ---------------------------------------------------------------------------

func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}

func bg() context.Context {
	return context.Background()
}
