// Package reconcile converges observed system state to the declared
// desired state with minimal side effects: install what is missing,
// link/copy/append what is not deployed, and leave everything that is
// already satisfied untouched. Nothing is removed unless the user
// explicitly asked for it (force replacement, mirror deletion).
package reconcile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pcornish/rig/pkg/filesystem"
	"github.com/pcornish/rig/pkg/logging"
	"github.com/pcornish/rig/pkg/pkgmgr"
	"github.com/pcornish/rig/pkg/types"
	"github.com/pcornish/rig/pkg/ui"
)

// Options configures a Reconciler.
type Options struct {
	// FS is the filesystem seam; defaults to the OS filesystem.
	FS types.FS
	// System is the primary package manager. Required for package
	// reconciliation.
	System pkgmgr.Manager
	// Helper is the secondary manager for helper-sourced packages; may
	// be nil, in which case helper packages are skipped with warnings.
	Helper pkgmgr.Manager
	// Commander runs host probes (lspci); defaults to os/exec.
	Commander pkgmgr.Commander
	// Prompter collects confirmations; defaults to a non-interactive
	// prompter that applies defaults.
	Prompter ui.Prompter
	// Home is the user's home directory, used to expand ~ in
	// destinations.
	Home string
	// Root is the dotfiles root all mapping sources are relative to.
	Root string
	// ConfigDir is where the sync tree lands by default
	// (XDG_CONFIG_HOME).
	ConfigDir string
	// Force allows replacing regular files with symlinks, behind a
	// confirmation prompt.
	Force bool
	// DryRun previews actions without side effects.
	DryRun bool
}

// Reconciler performs one converge run. It is single-threaded by
// design: every action runs to completion before the next begins.
type Reconciler struct {
	fs      types.FS
	system  pkgmgr.Manager
	helper  pkgmgr.Manager
	cmdr    pkgmgr.Commander
	prompt  ui.Prompter
	home    string
	root    string
	cfgDir  string
	force   bool
	dryRun  bool
	logger  zerolog.Logger
}

// New creates a Reconciler from options, applying defaults.
func New(opts Options) *Reconciler {
	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}
	cmdr := opts.Commander
	if cmdr == nil {
		cmdr = pkgmgr.NewCommander()
	}
	prompt := opts.Prompter
	if prompt == nil {
		prompt = ui.NewConsolePrompter(true)
	}
	home := opts.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	return &Reconciler{
		fs:     fs,
		system: opts.System,
		helper: opts.Helper,
		cmdr:   cmdr,
		prompt: prompt,
		home:   home,
		root:   opts.Root,
		cfgDir: opts.ConfigDir,
		force:  opts.Force,
		dryRun: opts.DryRun,
		logger: logging.GetLogger("reconcile"),
	}
}

// expandDest expands ~ against the reconciler's home directory and any
// environment variables in a destination path.
func (r *Reconciler) expandDest(path string) string {
	if path == "~" {
		return r.home
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(r.home, path[2:])
	}
	return os.ExpandEnv(path)
}

// sourcePath resolves a mapping source against the dotfiles root.
func (r *Reconciler) sourcePath(source string) string {
	if filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(r.root, source)
}
