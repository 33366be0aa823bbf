package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/filesystem"
	"github.com/pcornish/rig/pkg/manifest"
	"github.com/pcornish/rig/pkg/paths"
	"github.com/pcornish/rig/pkg/pkgmgr"
	"github.com/pcornish/rig/pkg/reconcile"
	"github.com/pcornish/rig/pkg/style"
	"github.com/pcornish/rig/pkg/types"
	"github.com/pcornish/rig/pkg/ui"
)

// convergeOptions collects the root-level flags shared by the converge
// and update flows.
type convergeOptions struct {
	yes    bool
	force  bool
	dryRun bool

	// update-only
	ref         string
	keepDir     string
	archiveOnly bool
}

// runConverge is the default rig invocation: load the manifest from the
// dotfiles root and converge against it.
func runConverge(ctx context.Context, out io.Writer, opts convergeOptions) error {
	p, err := paths.New("")
	if err != nil {
		return err
	}

	m, err := loadManifest(p)
	if err != nil {
		return err
	}

	return converge(ctx, out, p.DotfilesRoot(), p, m, opts)
}

// loadManifest finds and parses the manifest inside the dotfiles root.
func loadManifest(p *paths.Paths) (*manifest.Manifest, error) {
	path, err := p.ManifestPath()
	if err != nil {
		return nil, err
	}
	return manifest.Load(path)
}

// converge runs one full reconciliation of root's manifest against the
// live system and prints the report.
func converge(ctx context.Context, out io.Writer, root string, p *paths.Paths, m *manifest.Manifest, opts convergeOptions) error {
	rep := types.NewReport()
	rep.Notify = func(w types.Warning) {
		fmt.Fprintln(out, style.WarningLine(w))
	}

	cmdr := pkgmgr.NewCommander()
	system, err := pkgmgr.Detect(cmdr)
	if err != nil {
		rep.Fail(err)
		fmt.Fprint(out, style.RenderSummary(rep))
		return err
	}
	helper := ensureHelper(ctx, cmdr, system, m, rep, opts.dryRun)

	r := reconcile.New(reconcile.Options{
		FS:        filesystem.NewOS(),
		System:    system,
		Helper:    helper,
		Commander: cmdr,
		Prompter:  ui.NewConsolePrompter(opts.yes),
		Root:      root,
		ConfigDir: p.ConfigDir(),
		Force:     opts.force,
		DryRun:    opts.dryRun,
	})

	err = r.Run(ctx, m, rep)
	fmt.Fprint(out, style.RenderSummary(rep))
	return err
}

// ensureHelper returns the helper manager when the manifest needs one.
// On pacman systems without yay, yay is first built from the AUR; a
// failed bootstrap degrades to a warning and helper packages are
// skipped.
func ensureHelper(ctx context.Context, cmdr pkgmgr.Commander, system pkgmgr.Manager, m *manifest.Manifest, rep *types.Report, dryRun bool) pkgmgr.Manager {
	if len(m.Packages.Helper) == 0 || system.Name() != "pacman" {
		return nil
	}

	yay := pkgmgr.NewYay(cmdr)
	if yay.Available() {
		return yay
	}
	if dryRun {
		return nil
	}

	buildDir, err := os.MkdirTemp("", "rig-yay-")
	if err != nil {
		rep.Warn(string(errors.ErrPackageInstall), "yay", "cannot create build directory", err)
		return nil
	}
	defer os.RemoveAll(buildDir)

	if err := yay.Bootstrap(ctx, system, buildDir); err != nil {
		rep.Warn(string(errors.ErrPackageInstall), "yay", "bootstrap failed, helper packages skipped", err)
		return nil
	}
	return yay
}
