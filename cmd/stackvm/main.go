// stackvm CLI - assembles and runs stack machine programs
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/stackvm/journal"
	"github.com/chazu/stackvm/manifest"
	"github.com/chazu/stackvm/server"
	"github.com/chazu/stackvm/vm"
)

var log = commonlog.GetLogger("stackvm.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the effective configuration: manifest values overridden by
// explicitly set flags.
type options struct {
	budget     int
	interleave bool
	journal    string
	verbosity  int
	logFile    *string
	output     string
	disasm     bool
	serve      bool
	addr       string
	lsp        bool
	remote     string
	paths      []string
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stackvm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	budget := fs.Int("budget", vm.DefaultBudget, "Instructions per scheduling slice")
	interleave := fs.Bool("interleave", false, "Round-robin all programs instead of running them one after another")
	journalPath := fs.String("journal", "", "SQLite journal of finished processes")
	verbosity := fs.Int("v", 0, "Log verbosity (1 info, 2 debug)")
	logFile := fs.String("log", "", "Log file (default stderr)")
	output := fs.String("o", "", "Assemble the single input to an image file instead of running it")
	disasm := fs.Bool("disasm", false, "Print the disassembly of each input instead of running it")
	serve := fs.Bool("serve", false, "Load the inputs and serve the process table over Connect (HTTP/JSON)")
	addr := fs.String("addr", manifest.DefaultAddr, "Listen address for -serve")
	lsp := fs.Bool("lsp", false, "Run the assembly language server on stdio")
	remote := fs.String("remote", "", "Run the inputs on the stackvm server at this URL")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: stackvm [options] [files...]\n\n")
		fmt.Fprintf(stderr, "Runs .vasm assembly files or .svmi images. With no files, runs the\n")
		fmt.Fprintf(stderr, "sources listed in the nearest %s.\n\n", manifest.FileName)
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  stackvm hello.vasm                 # Run one program\n")
		fmt.Fprintf(stderr, "  stackvm -interleave a.vasm b.vasm  # Round-robin two programs\n")
		fmt.Fprintf(stderr, "  stackvm -o hello.svmi hello.vasm   # Assemble to an image\n")
		fmt.Fprintf(stderr, "  stackvm -serve -addr :8080         # Serve the process table\n")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(stderr, "Error loading manifest: %v\n", err)
		return 1
	}
	if m == nil {
		wd, _ := os.Getwd()
		m = manifest.Default(wd)
	}

	opts := options{
		budget:     m.VM.Budget,
		interleave: m.VM.Interleave,
		journal:    m.JournalPath(),
		verbosity:  m.Log.Verbosity,
		logFile:    m.LogPath(),
		addr:       m.Server.Addr,
		output:     *output,
		disasm:     *disasm,
		serve:      *serve,
		lsp:        *lsp,
		remote:     *remote,
		paths:      fs.Args(),
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "budget":
			opts.budget = *budget
		case "interleave":
			opts.interleave = *interleave
		case "journal":
			opts.journal = *journalPath
		case "v":
			opts.verbosity = *verbosity
		case "log":
			opts.logFile = logFile
		case "addr":
			opts.addr = *addr
		}
	})

	commonlog.Configure(opts.verbosity, opts.logFile)

	if opts.lsp {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(stderr, "LSP error: %v\n", err)
			return 1
		}
		return 0
	}

	if len(opts.paths) == 0 {
		opts.paths, err = m.SourcePaths()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	if len(opts.paths) == 0 && !opts.serve {
		fs.Usage()
		return 2
	}

	switch {
	case opts.output != "":
		return build(opts, stdout, stderr)
	case opts.disasm:
		return disassemble(opts, stdout, stderr)
	case opts.remote != "":
		return runRemote(opts, stdout, stderr)
	}

	var vmOpts []vm.Option
	vmOpts = append(vmOpts, vm.WithBudget(opts.budget), vm.WithOutput(stdout))
	if opts.journal != "" {
		j, err := journal.Open(opts.journal)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer j.Close()
		vmOpts = append(vmOpts, vm.WithRecorder(j))
	}

	if opts.serve {
		return serveVM(opts, vm.New(vmOpts...), stderr)
	}
	return runLocal(opts, vm.New(vmOpts...), stderr)
}
