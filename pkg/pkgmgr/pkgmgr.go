// Package pkgmgr abstracts the system package managers rig reconciles
// against: Homebrew on macOS, pacman on Arch-likes, and yay as the
// helper for packages outside the primary repositories.
//
// Installed state is probed with a single list query per run, never one
// query per package, and never cached across runs.
package pkgmgr

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/logging"
	"github.com/pcornish/rig/pkg/types"
)

// LookPath is used to find executables in PATH. It is a package
// variable so tests can stub it out and avoid depending on system
// binaries being installed.
var LookPath = exec.LookPath

// Commander runs external commands. Probe queries capture output;
// installs stream to the user's terminal.
type Commander interface {
	// Output runs a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Run runs a command with stdout/stderr attached to the terminal.
	Run(ctx context.Context, name string, args ...string) error
}

// execCommander is the real Commander backed by os/exec.
type execCommander struct{}

// NewCommander returns the default os/exec-backed Commander.
func NewCommander() Commander {
	return execCommander{}
}

func (execCommander) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

func (execCommander) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// Manager is one package manager rig can converge through.
type Manager interface {
	// Name is the manager's binary name, e.g. "brew".
	Name() string
	// Available reports whether the manager's binary is on PATH.
	Available() bool
	// Probe queries the full installed set in one invocation.
	Probe(ctx context.Context) (types.InstalledSet, error)
	// Install installs the named packages in one invocation.
	Install(ctx context.Context, names ...string) error
}

// Detect returns the first available system package manager. The
// returned error is a fatal bootstrap error: without a package manager
// nothing else can proceed.
func Detect(c Commander) (Manager, error) {
	logger := logging.GetLogger("pkgmgr")

	for _, mgr := range []Manager{NewBrew(c), NewPacman(c)} {
		if mgr.Available() {
			logger.Debug().Str("manager", mgr.Name()).Msg("package manager detected")
			return mgr, nil
		}
	}

	return nil, errors.New(errors.ErrBootstrap, "no supported package manager found (need brew or pacman)")
}

// parseLines splits command output into an installed set, one package
// name per line.
func parseLines(output []byte) types.InstalledSet {
	set := make(types.InstalledSet)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			set[name] = true
		}
	}
	return set
}
