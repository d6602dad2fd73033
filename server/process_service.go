package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/vm"
)

// ProcessServiceName is the fully-qualified name of the process service.
const ProcessServiceName = "stackvm.v1.ProcessService"

// Procedure paths of the process service.
const (
	ProcessServiceLoadProcedure = "/" + ProcessServiceName + "/Load"
	ProcessServiceRunProcedure  = "/" + ProcessServiceName + "/Run"
	ProcessServiceListProcedure = "/" + ProcessServiceName + "/List"
)

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// LoadRequest carries either assembly source or an encoded image.
type LoadRequest struct {
	Name   string `json:"name,omitempty"`
	Source string `json:"source,omitempty"`
	Image  []byte `json:"image,omitempty"`
}

// LoadResponse returns the pid assigned to the new process.
type LoadResponse struct {
	Pid          int `json:"pid"`
	Instructions int `json:"instructions"`
}

// RunRequest names the process to run to termination.
type RunRequest struct {
	Pid int `json:"pid"`
}

// RunResponse reports how a process terminated. A failed run is a
// successful call with Success false.
type RunResponse struct {
	Pid     int    `json:"pid"`
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
	Steps   int    `json:"steps"`
	Slices  int    `json:"slices"`
}

// ListRequest takes no arguments.
type ListRequest struct{}

// ListResponse holds the pids of loaded processes in ascending order.
type ListResponse struct {
	Pids []int `json:"pids"`
}

func (r *LoadRequest) program() (bytecode.Program, error) {
	name := r.Name
	if name == "" {
		name = "remote"
	}
	switch {
	case len(r.Image) > 0 && r.Source != "":
		return bytecode.Program{}, errors.New("source and image are mutually exclusive")
	case len(r.Image) > 0:
		prog, err := bytecode.UnmarshalImage(r.Image)
		if err != nil {
			return bytecode.Program{}, err
		}
		if r.Name != "" {
			prog.Name = r.Name
		}
		return prog, nil
	case r.Source != "":
		return asm.Parse(name, []byte(r.Source))
	default:
		return bytecode.Program{}, errors.New("source or image is required")
	}
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// ProcessService loads and runs processes on a shared VM. Output written by
// print and dump is buffered per pid and returned by Run.
type ProcessService struct {
	worker *VMWorker

	// outputs is only touched on the worker goroutine.
	outputs map[int]*bytes.Buffer
}

// NewProcessService creates a ProcessService.
func NewProcessService(worker *VMWorker) *ProcessService {
	return &ProcessService{
		worker:  worker,
		outputs: make(map[int]*bytes.Buffer),
	}
}

// Load assembles or decodes a program and registers it as a new process.
func (s *ProcessService) Load(
	ctx context.Context,
	req *connect.Request[LoadRequest],
) (*connect.Response[LoadResponse], error) {
	prog, err := req.Msg.program()
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	result, err := s.worker.Do(func(v *vm.VM) any {
		out := &bytes.Buffer{}
		pid := v.LoadTo(prog, out)
		s.outputs[pid] = out
		return pid
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	pid := result.(int)
	log.Infof("loaded process %d (%s)", pid, prog.Name)
	return connect.NewResponse(&LoadResponse{Pid: pid, Instructions: prog.Len()}), nil
}

type runResult struct {
	status vm.Status
	output string
	err    error
}

// Run drives a loaded process to termination and removes it.
func (s *ProcessService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	pid := req.Msg.Pid
	if pid <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid pid %d", pid))
	}

	result, err := s.worker.Do(func(v *vm.VM) any {
		st, runErr := v.Run(pid)
		r := runResult{status: st, err: runErr}
		if out, ok := s.outputs[pid]; ok {
			r.output = out.String()
			delete(s.outputs, pid)
		}
		return r
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	r := result.(runResult)
	if errors.Is(r.err, vm.ErrUnknownProcess) {
		return nil, connect.NewError(connect.CodeNotFound, r.err)
	}

	resp := &RunResponse{
		Pid:     pid,
		Success: r.err == nil,
		Output:  r.output,
		Steps:   r.status.Steps,
		Slices:  r.status.Slices,
	}
	if r.err != nil {
		resp.Error = r.err.Error()
	}
	return connect.NewResponse(resp), nil
}

// List returns the pids of loaded processes.
func (s *ProcessService) List(
	ctx context.Context,
	req *connect.Request[ListRequest],
) (*connect.Response[ListResponse], error) {
	result, err := s.worker.Do(func(v *vm.VM) any {
		return v.Pids()
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListResponse{Pids: result.([]int)}), nil
}

// NewProcessServiceHandler builds an HTTP handler serving every procedure
// of svc. It returns the path prefix to mount it on.
func NewProcessServiceHandler(svc *ProcessService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	load := connect.NewUnaryHandler(ProcessServiceLoadProcedure, svc.Load, opts...)
	run := connect.NewUnaryHandler(ProcessServiceRunProcedure, svc.Run, opts...)
	list := connect.NewUnaryHandler(ProcessServiceListProcedure, svc.List, opts...)

	return "/" + ProcessServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ProcessServiceLoadProcedure:
			load.ServeHTTP(w, r)
		case ProcessServiceRunProcedure:
			run.ServeHTTP(w, r)
		case ProcessServiceListProcedure:
			list.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// ProcessServiceClient calls a remote process service.
type ProcessServiceClient struct {
	load *connect.Client[LoadRequest, LoadResponse]
	run  *connect.Client[RunRequest, RunResponse]
	list *connect.Client[ListRequest, ListResponse]
}

// NewProcessServiceClient creates a client for the service at baseURL,
// e.g. http://localhost:4567.
func NewProcessServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ProcessServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ProcessServiceClient{
		load: connect.NewClient[LoadRequest, LoadResponse](httpClient, baseURL+ProcessServiceLoadProcedure, opts...),
		run:  connect.NewClient[RunRequest, RunResponse](httpClient, baseURL+ProcessServiceRunProcedure, opts...),
		list: connect.NewClient[ListRequest, ListResponse](httpClient, baseURL+ProcessServiceListProcedure, opts...),
	}
}

func (c *ProcessServiceClient) Load(ctx context.Context, req *connect.Request[LoadRequest]) (*connect.Response[LoadResponse], error) {
	return c.load.CallUnary(ctx, req)
}

func (c *ProcessServiceClient) Run(ctx context.Context, req *connect.Request[RunRequest]) (*connect.Response[RunResponse], error) {
	return c.run.CallUnary(ctx, req)
}

func (c *ProcessServiceClient) List(ctx context.Context, req *connect.Request[ListRequest]) (*connect.Response[ListResponse], error) {
	return c.list.CallUnary(ctx, req)
}
