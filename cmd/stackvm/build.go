package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/stackvm/pkg/bytecode"
)

// build assembles the single input named in opts.paths into an image at
// opts.output.
func build(opts options, stdout, stderr io.Writer) int {
	if len(opts.paths) != 1 {
		fmt.Fprintln(stderr, "Error: -o requires exactly one input")
		return 2
	}

	prog, err := loadProgram(opts.paths[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	img, err := bytecode.MarshalImage(prog)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := os.WriteFile(opts.output, img, 0644); err != nil {
		fmt.Fprintf(stderr, "Error writing image: %v\n", err)
		return 1
	}

	log.Infof("wrote %s (%d instructions, %d bytes)", opts.output, prog.Len(), len(img))
	return 0
}

// disassemble prints a listing of every input.
func disassemble(opts options, stdout, stderr io.Writer) int {
	progs, err := loadAll(opts.paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, prog := range progs {
		fmt.Fprint(stdout, prog.Disassemble())
	}
	return 0
}
