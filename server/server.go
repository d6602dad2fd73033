package server

import (
	"net/http"

	"github.com/tliron/commonlog"

	"github.com/chazu/stackvm/vm"
)

var log = commonlog.GetLogger("stackvm.server")

// Server exposes a VM's process table over Connect (HTTP/JSON).
type Server struct {
	worker    *VMWorker
	processes *ProcessService
	mux       *http.ServeMux
}

// New creates a Server wrapping the given VM. The server owns the VM from
// here on; callers must not use it directly.
func New(v *vm.VM) *Server {
	worker := NewVMWorker(v)

	s := &Server{
		worker:    worker,
		processes: NewProcessService(worker),
		mux:       http.NewServeMux(),
	}

	path, handler := NewProcessServiceHandler(s.processes)
	s.mux.Handle(path, handler)

	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	log.Noticef("stackvm server listening on %s", addr)
	log.Infof("Connect (HTTP/JSON): http://%s%s", addr, ProcessServiceLoadProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the VM worker.
func (s *Server) Stop() {
	s.worker.Stop()
}
