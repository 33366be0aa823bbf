// Package paths centralizes path resolution for rig: the dotfiles root,
// XDG directories, and home expansion.
package paths

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/pcornish/rig/pkg/errors"
)

// Environment variable names
const (
	// EnvDotfilesRoot is the primary environment variable for the
	// dotfiles location.
	EnvDotfilesRoot = "RIG_DOTFILES"

	// EnvConfigDir overrides the XDG config directory for rig
	EnvConfigDir = "RIG_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for rig
	EnvCacheDir = "RIG_CACHE_DIR"
)

const (
	// RigDirName is the directory name for rig-specific files
	RigDirName = "rig"

	// DefaultDotfilesDir is the default dotfiles directory under home
	DefaultDotfilesDir = "dotfiles"

	// LogFileName is the name of the log file
	LogFileName = "rig.log"
)

// Paths provides resolved locations for a run.
type Paths struct {
	dotfilesRoot string
	xdgConfig    string
	xdgCache     string
	xdgState     string
	usedFallback bool
}

// New creates a Paths instance. If dotfilesRoot is empty it is resolved
// from the environment, the enclosing git repository, or ~/dotfiles.
func New(dotfilesRoot string) (*Paths, error) {
	p := &Paths{}

	if dotfilesRoot == "" {
		root, usedFallback, err := findDotfilesRoot()
		if err != nil {
			return nil, err
		}
		p.dotfilesRoot = root
		p.usedFallback = usedFallback
	} else {
		p.dotfilesRoot = ExpandHome(dotfilesRoot)
	}

	absRoot, err := filepath.Abs(p.dotfilesRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for dotfiles root")
	}
	p.dotfilesRoot = absRoot

	p.setupXDGDirs()
	return p, nil
}

func (p *Paths) setupXDGDirs() {
	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = ExpandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, RigDirName)
	}

	if cacheDir := os.Getenv(EnvCacheDir); cacheDir != "" {
		p.xdgCache = ExpandHome(cacheDir)
	} else {
		p.xdgCache = filepath.Join(xdg.CacheHome, RigDirName)
	}

	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		p.xdgState = filepath.Join(stateDir, RigDirName)
	} else {
		homeDir, _ := os.UserHomeDir()
		p.xdgState = filepath.Join(homeDir, ".local", "state", RigDirName)
	}
}

// DotfilesRoot returns the resolved dotfiles root directory.
func (p *Paths) DotfilesRoot() string { return p.dotfilesRoot }

// UsedFallback reports whether the root fell back to ~/dotfiles because
// neither the environment nor a git repository provided one.
func (p *Paths) UsedFallback() bool { return p.usedFallback }

// ConfigDir returns the user configuration directory files are synced
// into (XDG_CONFIG_HOME, not rig's own config dir).
func (p *Paths) ConfigDir() string { return xdg.ConfigHome }

// CacheDir returns rig's cache directory.
func (p *Paths) CacheDir() string { return p.xdgCache }

// StateDir returns rig's state directory.
func (p *Paths) StateDir() string { return p.xdgState }

// LogFilePath returns the path of rig's log file.
func (p *Paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// ManifestPath returns the manifest file inside the dotfiles root, or
// an error when none of the known names exist.
func (p *Paths) ManifestPath() (string, error) {
	for _, name := range []string{"rig.toml", "rig.yaml", "rig.yml"} {
		candidate := filepath.Join(p.dotfilesRoot, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.Newf(errors.ErrManifestLoad, "no manifest (rig.toml or rig.yaml) in %s", p.dotfilesRoot)
}

// findDotfilesRoot resolves the dotfiles root with the priority:
// RIG_DOTFILES, enclosing git repository root, then ~/dotfiles.
func findDotfilesRoot() (string, bool, error) {
	if root := os.Getenv(EnvDotfilesRoot); root != "" {
		return ExpandHome(root), false, nil
	}

	if gitRoot, err := findGitRoot(); err == nil && gitRoot != "" {
		return gitRoot, false, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrFileAccess, "failed to determine home directory")
	}
	return filepath.Join(home, DefaultDotfilesDir), true, nil
}

// findGitRoot returns the top level of the enclosing git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ExpandHome expands a leading ~ to the user's home directory and
// expands environment variables.
func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return os.ExpandEnv(path)
}

// HomeDir returns the user's home directory, preferring os.UserHomeDir
// and falling back to HOME.
func HomeDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err == nil && homeDir != "" {
		return homeDir, nil
	}

	if homeDir = os.Getenv("HOME"); homeDir != "" {
		return homeDir, nil
	}

	return "", errors.New(errors.ErrFileAccess, "unable to determine home directory: neither os.UserHomeDir() nor HOME are available")
}
