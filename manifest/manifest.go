// Package manifest handles stackvm.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/chazu/stackvm/vm"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "stackvm.toml"

// DefaultAddr is the listen address used when [server] sets none.
const DefaultAddr = ":4567"

// Manifest represents a stackvm.toml project configuration.
type Manifest struct {
	Project Project       `toml:"project"`
	Source  Source        `toml:"source"`
	VM      VMConfig      `toml:"vm"`
	Journal JournalConfig `toml:"journal"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`

	// Dir is the directory containing the stackvm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Source lists the assembly files or images to run. Paths are relative to
// the manifest directory.
type Source struct {
	Files []string `toml:"files"`
}

// VMConfig configures the scheduler.
type VMConfig struct {
	Budget     int  `toml:"budget"`
	Interleave bool `toml:"interleave"`
}

// JournalConfig locates the run journal. An empty path disables it.
type JournalConfig struct {
	Path string `toml:"path"`
}

// ServerConfig configures the process service.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig configures commonlog. An empty file logs to stderr.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no manifest exists.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

// Load parses a stackvm.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.VM.Budget < 0 {
		return nil, fmt.Errorf("%s: vm.budget must be positive, got %d", path, m.VM.Budget)
	}
	m.applyDefaults()

	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.VM.Budget == 0 {
		m.VM.Budget = vm.DefaultBudget
	}
	if m.Server.Addr == "" {
		m.Server.Addr = DefaultAddr
	}
	if m.Project.Name == "" && m.Dir != "" {
		m.Project.Name = filepath.Base(m.Dir)
	}
}

// FindAndLoad walks up from startDir to find a stackvm.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// SourcePaths returns absolute paths for the configured source files. With
// no files configured it returns every .vasm file in the manifest directory.
func (m *Manifest) SourcePaths() ([]string, error) {
	if len(m.Source.Files) == 0 {
		paths, err := filepath.Glob(filepath.Join(m.Dir, "*.vasm"))
		if err != nil {
			return nil, err
		}
		sort.Strings(paths)
		return paths, nil
	}

	paths := make([]string, 0, len(m.Source.Files))
	for _, f := range m.Source.Files {
		paths = append(paths, m.resolve(f))
	}
	return paths, nil
}

// JournalPath returns the absolute journal path, or "" when disabled.
func (m *Manifest) JournalPath() string {
	if m.Journal.Path == "" {
		return ""
	}
	return m.resolve(m.Journal.Path)
}

// LogPath returns the absolute log file path, or nil for stderr. The
// pointer form is what commonlog.Configure takes.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.resolve(m.Log.File)
	return &path
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
