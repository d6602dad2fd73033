// Package vm implements the stack machine's execution engine and process
// table.
//
// This package contains:
//   - Process: one program plus its private operand stack, 16 registers and
//     instruction pointer, advanced by a step-budgeted Run
//   - VM: the table of loaded processes, keyed by strictly increasing pids,
//     which drives processes to completion one budget slice at a time
//   - The runtime error taxonomy shared by both
//
// The machine is single-threaded. A VM and its processes must be used by
// one goroutine at a time; server.VMWorker provides that for concurrent
// callers.
package vm
