package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"connectrpc.com/connect"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/server"
	"github.com/chazu/stackvm/vm"
)

// loadProgram reads an image or assembles a source file, deciding by
// content rather than extension.
func loadProgram(path string) (bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bytecode.Program{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if bytecode.IsImage(data) {
		prog, err := bytecode.UnmarshalImage(data)
		if err != nil {
			return bytecode.Program{}, fmt.Errorf("%s: %w", path, err)
		}
		return prog, nil
	}
	prog, err := asm.Parse(filepath.Base(path), data)
	if err != nil {
		return bytecode.Program{}, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// loadAll loads every path, stopping at the first failure.
func loadAll(paths []string) ([]bytecode.Program, error) {
	progs := make([]bytecode.Program, 0, len(paths))
	for _, path := range paths {
		prog, err := loadProgram(path)
		if err != nil {
			return nil, err
		}
		progs = append(progs, prog)
	}
	return progs, nil
}

// runLocal runs every input on v and returns 1 if any process failed.
// Sequential runs halt at the first failure and skip the remaining inputs.
// Interleaved runs drop a failed process and let the others finish.
func runLocal(opts options, v *vm.VM, stderr io.Writer) int {
	progs, err := loadAll(opts.paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var statuses []vm.Status
	if opts.interleave {
		for _, prog := range progs {
			v.Load(prog)
		}
		statuses = v.RunAll()
	} else {
		for _, prog := range progs {
			st, err := v.Run(v.Load(prog))
			statuses = append(statuses, st)
			if err != nil {
				break
			}
		}
	}

	code := 0
	for _, st := range statuses {
		if st.Err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", st.Program, st.Err)
			code = 1
		}
	}
	return code
}

func serveVM(opts options, v *vm.VM, stderr io.Writer) int {
	progs, err := loadAll(opts.paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, prog := range progs {
		pid := v.Load(prog)
		log.Infof("process %d waiting: %s", pid, prog.Name)
	}

	srv := server.New(v)
	defer srv.Stop()
	if err := srv.ListenAndServe(opts.addr); err != nil {
		fmt.Fprintf(stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}

// runRemote ships each input as an image to a stackvm server and runs it
// there, one at a time, halting at the first failure.
func runRemote(opts options, stdout, stderr io.Writer) int {
	progs, err := loadAll(opts.paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	client := server.NewProcessServiceClient(http.DefaultClient, opts.remote)
	ctx := context.Background()
	for _, prog := range progs {
		img, err := bytecode.MarshalImage(prog)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog.Name, err)
			return 1
		}
		load, err := client.Load(ctx, connect.NewRequest(&server.LoadRequest{Name: prog.Name, Image: img}))
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog.Name, err)
			return 1
		}
		res, err := client.Run(ctx, connect.NewRequest(&server.RunRequest{Pid: load.Msg.Pid}))
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog.Name, err)
			return 1
		}
		io.WriteString(stdout, res.Msg.Output)
		if !res.Msg.Success {
			fmt.Fprintf(stderr, "%s: %s\n", prog.Name, res.Msg.Error)
			return 1
		}
	}
	return 0
}
