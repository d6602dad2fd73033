package vm

import (
	"fmt"
	"io"
	"unicode"

	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/value"
)

// State is the lifecycle state of a process. Exited and Failed are
// terminal.
type State int

const (
	StateRunning State = iota
	StateExited
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type register struct {
	value value.Value
	set   bool
}

// Process is one program and its private execution state.
type Process struct {
	pid       int
	program   bytecode.Program
	stack     []value.Value
	registers [bytecode.NumRegisters]register
	ip        int
	state     State
	steps     int
	slices    int
	err       error
	out       io.Writer
}

// NewProcess returns a running process positioned at the first
// instruction. Print and dump write to out; a nil out discards output.
func NewProcess(pid int, program bytecode.Program, out io.Writer) *Process {
	if out == nil {
		out = io.Discard
	}
	return &Process{
		pid:     pid,
		program: program,
		stack:   make([]value.Value, 0, 16),
		out:     out,
	}
}

// PID returns the process id.
func (p *Process) PID() int { return p.pid }

// Program returns the program the process executes.
func (p *Process) Program() bytecode.Program { return p.program }

// State returns the lifecycle state.
func (p *Process) State() State { return p.state }

// IP returns the index of the next instruction to execute.
func (p *Process) IP() int { return p.ip }

// Steps returns the number of instructions executed so far.
func (p *Process) Steps() int { return p.steps }

// Err returns the error that failed the process, if any.
func (p *Process) Err() error { return p.err }

// Stack returns a copy of the operand stack, bottom first.
func (p *Process) Stack() []value.Value {
	return append([]value.Value(nil), p.stack...)
}

// Register returns the content of register r and whether it was ever
// stored.
func (p *Process) Register(r int) (value.Value, bool) {
	if r < 0 || r >= bytecode.NumRegisters {
		return value.Value{}, false
	}
	reg := p.registers[r]
	return reg.value, reg.set
}

// Run executes at most budget instructions. It reports true while the
// process can continue and false once exit has run, in this call or an
// earlier one. Any error fails the process: the stack and registers keep
// the state they had before the faulting instruction and later calls
// return ErrProcessFailed.
func (p *Process) Run(budget int) (bool, error) {
	switch p.state {
	case StateExited:
		return false, nil
	case StateFailed:
		return false, &ExecutionError{PID: p.pid, IP: p.ip, Err: ErrProcessFailed}
	}
	if budget <= 0 {
		return false, p.fail(nil, ErrZeroBudget)
	}

	for n := 0; n < budget; n++ {
		if p.ip >= len(p.program.Code) {
			return false, p.fail(nil, ErrNoExit)
		}
		in := p.program.Code[p.ip]
		if err := p.step(in); err != nil {
			return false, p.fail(&in, err)
		}
		p.ip++
		p.steps++
		if p.state == StateExited {
			return false, nil
		}
	}
	return true, nil
}

func (p *Process) fail(in *bytecode.Instruction, err error) error {
	p.state = StateFailed
	p.err = &ExecutionError{PID: p.pid, IP: p.ip, Instruction: in, Err: err}
	return p.err
}

// step applies one instruction. Every case checks its preconditions before
// touching the stack or registers.
func (p *Process) step(in bytecode.Instruction) error {
	switch in.Op {
	case bytecode.OpNoop:

	case bytecode.OpPush:
		p.push(in.Value)

	case bytecode.OpPop:
		if err := p.need(1); err != nil {
			return err
		}
		p.drop(1)

	case bytecode.OpDump:
		for i := len(p.stack) - 1; i >= 0; i-- {
			if _, err := fmt.Fprintln(p.out, p.stack[i].String()); err != nil {
				return fmt.Errorf("dump: %w", err)
			}
		}

	case bytecode.OpClear:
		clear(p.stack)
		p.stack = p.stack[:0]

	case bytecode.OpDup:
		if err := p.need(1); err != nil {
			return err
		}
		p.push(p.top())

	case bytecode.OpSwap:
		if err := p.need(2); err != nil {
			return err
		}
		n := len(p.stack)
		p.stack[n-1], p.stack[n-2] = p.stack[n-2], p.stack[n-1]

	case bytecode.OpAssert:
		if err := p.need(1); err != nil {
			return err
		}
		if top := p.top(); !value.Equal(top, in.Value) {
			return fmt.Errorf("%w: top of stack is %s, expected %s", ErrAssertionFailed, top.GoString(), in.Value.GoString())
		}

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
		if err := p.need(2); err != nil {
			return err
		}
		n := len(p.stack)
		v1, v2 := p.stack[n-1], p.stack[n-2]
		var r value.Value
		var err error
		switch in.Op {
		case bytecode.OpAdd:
			r, err = value.Add(v1, v2)
		case bytecode.OpMul:
			r, err = value.Mul(v1, v2)
		case bytecode.OpSub:
			r, err = value.Sub(v2, v1)
		case bytecode.OpDiv:
			r, err = value.Div(v2, v1)
		case bytecode.OpMod:
			r, err = value.Mod(v2, v1)
		}
		if err != nil {
			return err
		}
		p.drop(2)
		p.push(r)

	case bytecode.OpLoad:
		if err := in.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		reg := p.registers[in.Register]
		if !reg.set {
			return fmt.Errorf("%w: register %d", ErrUninitializedRegister, in.Register)
		}
		p.push(reg.value)

	case bytecode.OpStore:
		if err := in.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := p.need(1); err != nil {
			return err
		}
		p.registers[in.Register] = register{value: p.top(), set: true}
		p.drop(1)

	case bytecode.OpPrint:
		if err := p.need(1); err != nil {
			return err
		}
		top := p.top()
		code, ok := top.Int()
		if top.Kind() != value.KindInt8 || !ok || !printable(code) {
			return fmt.Errorf("%w: print needs an int8 printable character code, got %s", ErrType, top.GoString())
		}
		if _, err := p.out.Write([]byte{byte(code)}); err != nil {
			return fmt.Errorf("print: %w", err)
		}

	case bytecode.OpExit:
		p.state = StateExited

	default:
		return fmt.Errorf("%w: unknown opcode 0x%02X", ErrMalformed, byte(in.Op))
	}
	return nil
}

// printable accepts printable ASCII plus tab, newline and carriage return.
func printable(code int64) bool {
	if code == '\t' || code == '\n' || code == '\r' {
		return true
	}
	return code >= 0 && code <= unicode.MaxASCII && unicode.IsPrint(rune(code))
}

func (p *Process) need(n int) error {
	if len(p.stack) < n {
		return fmt.Errorf("%w: need %d value(s), have %d", ErrStackUnderflow, n, len(p.stack))
	}
	return nil
}

func (p *Process) push(v value.Value) {
	p.stack = append(p.stack, v)
}

func (p *Process) top() value.Value {
	return p.stack[len(p.stack)-1]
}

func (p *Process) drop(n int) {
	clear(p.stack[len(p.stack)-n:])
	p.stack = p.stack[:len(p.stack)-n]
}
