package vm

import (
	"fmt"
	"io"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/chazu/stackvm/pkg/bytecode"
)

// DefaultBudget is the number of instructions a process executes per slice.
const DefaultBudget = 7

var log = commonlog.GetLogger("stackvm.vm")

// ---------------------------------------------------------------------------
// Status and recording
// ---------------------------------------------------------------------------

// Status describes a terminated process.
type Status struct {
	PID     int
	Program string
	Steps   int
	Slices  int
	Err     error
}

// OK reports whether the process reached exit.
func (s Status) OK() bool {
	return s.Err == nil
}

func (s Status) String() string {
	if s.Err != nil {
		return fmt.Sprintf("process %d (%s) failed after %d steps: %v", s.PID, s.Program, s.Steps, s.Err)
	}
	return fmt.Sprintf("process %d (%s) exited after %d steps in %d slices", s.PID, s.Program, s.Steps, s.Slices)
}

// Recorder is notified of every process the VM removes from its table.
type Recorder interface {
	Record(Status) error
}

// ---------------------------------------------------------------------------
// VM
// ---------------------------------------------------------------------------

// Option configures a VM.
type Option func(*VM)

// WithBudget sets the per-slice step budget.
func WithBudget(n int) Option {
	return func(vm *VM) { vm.budget = n }
}

// WithOutput sets the default writer for print and dump.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithRecorder installs a recorder for terminated processes.
func WithRecorder(r Recorder) Option {
	return func(vm *VM) { vm.recorder = r }
}

// VM owns the process table. It is not safe for concurrent use.
type VM struct {
	lastPID  int
	procs    map[int]*Process
	budget   int
	out      io.Writer
	recorder Recorder
}

// New creates an empty VM.
func New(opts ...Option) *VM {
	vm := &VM{
		procs:  make(map[int]*Process),
		budget: DefaultBudget,
		out:    io.Discard,
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.out == nil {
		vm.out = io.Discard
	}
	return vm
}

// Budget returns the per-slice step budget.
func (vm *VM) Budget() int { return vm.budget }

// Load registers program as a new process writing to the VM's output and
// returns its pid. Pids are never reused.
func (vm *VM) Load(program bytecode.Program) int {
	return vm.LoadTo(program, vm.out)
}

// LoadTo is Load with a process-specific output writer.
func (vm *VM) LoadTo(program bytecode.Program, w io.Writer) int {
	vm.lastPID++
	pid := vm.lastPID
	vm.procs[pid] = NewProcess(pid, program, w)
	log.Debugf("loaded process %d (%s, %d instructions)", pid, program.Name, program.Len())
	return pid
}

// Run drives process pid to termination one budget slice at a time and
// removes it from the table, whether it exited or failed.
func (vm *VM) Run(pid int) (Status, error) {
	p, ok := vm.procs[pid]
	if !ok {
		return Status{PID: pid}, fmt.Errorf("%w: %d", ErrUnknownProcess, pid)
	}
	for {
		running, err := vm.slice(p)
		if err != nil || !running {
			st := vm.finish(p, err)
			return st, err
		}
	}
}

// RunAll interleaves every loaded process, one slice per turn in pid order,
// until the table is empty. Statuses are returned in termination order.
func (vm *VM) RunAll() []Status {
	var statuses []Status
	for len(vm.procs) > 0 {
		for _, pid := range vm.Pids() {
			p := vm.procs[pid]
			running, err := vm.slice(p)
			if err != nil || !running {
				statuses = append(statuses, vm.finish(p, err))
			}
		}
	}
	return statuses
}

// Pids returns the live pids in ascending order.
func (vm *VM) Pids() []int {
	pids := make([]int, 0, len(vm.procs))
	for pid := range vm.procs {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// Len returns the number of live processes.
func (vm *VM) Len() int { return len(vm.procs) }

// Process returns the live process with the given pid.
func (vm *VM) Process(pid int) (*Process, bool) {
	p, ok := vm.procs[pid]
	return p, ok
}

func (vm *VM) slice(p *Process) (bool, error) {
	p.slices++
	return p.Run(vm.budget)
}

func (vm *VM) finish(p *Process, err error) Status {
	delete(vm.procs, p.pid)
	st := Status{
		PID:     p.pid,
		Program: p.program.Name,
		Steps:   p.steps,
		Slices:  p.slices,
		Err:     err,
	}
	if err != nil {
		log.Infof("%s", st)
	} else {
		log.Debugf("%s", st)
	}
	if vm.recorder != nil {
		if rerr := vm.recorder.Record(st); rerr != nil {
			log.Warningf("recording process %d: %v", p.pid, rerr)
		}
	}
	return st
}
