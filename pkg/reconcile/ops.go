package reconcile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/types"
	"github.com/pcornish/rig/pkg/ui"
)

// EnsureInstalled converges a single package. Already-present packages
// are counted and skipped; install failures become warnings, never
// fatal errors.
func (r *Reconciler) EnsureInstalled(ctx context.Context, rep *types.Report, spec types.PackageSpec, installed types.InstalledSet) {
	if installed.Has(spec.Name) {
		r.logger.Debug().Str("package", spec.Name).Msg("already installed")
		rep.Present++
		return
	}

	mgr := r.system
	if spec.Source == types.SourceHelper {
		mgr = r.helper
	}
	if mgr == nil {
		rep.Warn(string(errors.ErrPackageInstall), spec.Name, "no helper manager available, package skipped", nil)
		return
	}

	if r.dryRun {
		r.logger.Info().Str("package", spec.Name).Str("manager", mgr.Name()).Msg("would install")
		rep.Skipped++
		return
	}

	r.logger.Info().Str("package", spec.Name).Str("manager", mgr.Name()).Msg("installing")
	if err := mgr.Install(ctx, spec.Name); err != nil {
		rep.Warn(string(errors.ErrPackageInstall), spec.Name, "install failed", err)
		return
	}

	installed.Add(spec.Name)
	rep.Installed++
}

// EnsureSymlink converges one symlink mapping. A destination that is
// already a symlink, whatever its target, is satisfied. A regular file
// in the way is only replaced in force mode after a confirmed prompt.
func (r *Reconciler) EnsureSymlink(rep *types.Report, src, dest string) {
	destPath := r.expandDest(dest)
	srcPath := r.sourcePath(src)

	info, err := r.fs.Lstat(destPath)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		r.logger.Debug().Str("dest", destPath).Msg("symlink already present")
		rep.Skipped++
		return

	case err == nil:
		if !r.force {
			rep.Warn(string(errors.ErrDeployment), destPath, "exists and is not a symlink (re-run with --force to replace)", nil)
			return
		}
		if r.dryRun {
			r.logger.Info().Str("dest", destPath).Msg("would replace with symlink")
			rep.Skipped++
			return
		}
		resp, perr := r.prompt.Confirm(ui.Request{
			Title:       "Replace " + destPath + " with a symlink?",
			Description: "The existing file will be removed.",
			Default:     false,
			Destructive: true,
		})
		if perr != nil {
			rep.Warn(string(errors.ErrDeployment), destPath, "confirmation failed", perr)
			return
		}
		if !resp.Approved {
			if !resp.Answered {
				rep.Warn(string(errors.ErrDeployment), destPath, "replacement skipped (declined by default in non-interactive mode)", nil)
			} else {
				r.logger.Info().Str("dest", destPath).Msg("replacement declined")
				rep.Skipped++
			}
			return
		}
		if rmErr := r.fs.Remove(destPath); rmErr != nil {
			rep.Warn(string(errors.ErrDeployment), destPath, "failed to remove existing file", rmErr)
			return
		}

	case !os.IsNotExist(err):
		rep.Warn(string(errors.ErrDeployment), destPath, "cannot stat destination", err)
		return
	}

	if r.dryRun {
		r.logger.Info().Str("src", srcPath).Str("dest", destPath).Msg("would symlink")
		rep.Skipped++
		return
	}

	if err := r.fs.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		rep.Warn(string(errors.ErrDeployment), destPath, "failed to create parent directory", err)
		return
	}
	if err := r.fs.Symlink(srcPath, destPath); err != nil {
		rep.Warn(string(errors.ErrDeployment), destPath, "failed to create symlink", err)
		return
	}

	r.logger.Info().Str("src", srcPath).Str("dest", destPath).Msg("symlinked")
	rep.Linked++
}

// EnsureCopy converges one overwrite-copy mapping: the destination is
// rewritten only when its content differs from the source.
func (r *Reconciler) EnsureCopy(rep *types.Report, src, dest string) {
	destPath := r.expandDest(dest)
	srcPath := r.sourcePath(src)

	data, err := r.fs.ReadFile(srcPath)
	if err != nil {
		rep.Warn(string(errors.ErrDeployment), srcPath, "cannot read source", err)
		return
	}

	if existing, rerr := r.fs.ReadFile(destPath); rerr == nil && bytes.Equal(existing, data) {
		r.logger.Debug().Str("dest", destPath).Msg("copy already up to date")
		rep.Skipped++
		return
	}

	if r.dryRun {
		r.logger.Info().Str("src", srcPath).Str("dest", destPath).Msg("would copy")
		rep.Skipped++
		return
	}

	if err := r.fs.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		rep.Warn(string(errors.ErrDeployment), destPath, "failed to create parent directory", err)
		return
	}
	if err := r.fs.WriteFile(destPath, data, 0644); err != nil {
		rep.Warn(string(errors.ErrDeployment), destPath, "failed to write file", err)
		return
	}

	r.logger.Info().Str("src", srcPath).Str("dest", destPath).Msg("copied")
	rep.Copied++
}

// EnsureAppendBlock appends a block to its target at most once. The
// block's marker (first non-blank line) already present as a line in
// the target means the block was applied before: the file is left
// byte-identical.
func (r *Reconciler) EnsureAppendBlock(rep *types.Report, block types.AppendBlock) {
	target := r.expandDest(block.Target)

	marker := block.Marker()
	if marker == "" {
		rep.Warn(string(errors.ErrDeployment), target, "append block has no marker line", nil)
		return
	}

	existing, err := r.fs.ReadFile(target)
	if err != nil && !os.IsNotExist(err) {
		rep.Warn(string(errors.ErrDeployment), target, "cannot read target", err)
		return
	}

	if err == nil && containsLine(existing, marker) {
		r.logger.Debug().Str("target", target).Str("marker", marker).Msg("block already appended")
		rep.Skipped++
		return
	}

	if r.dryRun {
		r.logger.Info().Str("target", target).Msg("would append block")
		rep.Skipped++
		return
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(block.Content)
	if !strings.HasSuffix(block.Content, "\n") {
		buf.WriteByte('\n')
	}

	if err := r.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		rep.Warn(string(errors.ErrDeployment), target, "failed to create parent directory", err)
		return
	}
	if err := r.fs.WriteFile(target, buf.Bytes(), 0644); err != nil {
		rep.Warn(string(errors.ErrDeployment), target, "failed to write target", err)
		return
	}

	r.logger.Info().Str("target", target).Str("marker", marker).Msg("block appended")
	rep.Appended++
}

// containsLine reports whether data contains the marker as a complete
// line.
func containsLine(data []byte, marker string) bool {
	for _, line := range strings.Split(string(data), "\n") {
		if line == marker {
			return true
		}
	}
	return false
}

// SyncTree mirrors all regular files under srcDir into destDir,
// overwriting destination files that differ (source wins). With mirror
// enabled it additionally deletes destination entries that no longer
// exist in the source; deletions never reach outside destDir.
func (r *Reconciler) SyncTree(rep *types.Report, srcDir, destDir string, mirror bool) {
	srcDir = r.expandDest(srcDir)
	destDir = r.expandDest(destDir)

	r.syncDir(rep, srcDir, destDir, ".")

	if mirror {
		r.pruneDir(rep, srcDir, destDir, ".")
	}
}

// syncDir copies one directory level, recursing into subdirectories.
func (r *Reconciler) syncDir(rep *types.Report, srcDir, destDir, rel string) {
	entries, err := r.fs.ReadDir(filepath.Join(srcDir, rel))
	if err != nil {
		rep.Warn(string(errors.ErrDeployment), filepath.Join(srcDir, rel), "cannot read source directory", err)
		return
	}

	for _, entry := range entries {
		entryRel := filepath.Join(rel, entry.Name())
		srcPath := filepath.Join(srcDir, entryRel)
		destPath := filepath.Join(destDir, entryRel)

		if entry.IsDir() {
			if !r.dryRun {
				if err := r.fs.MkdirAll(destPath, 0755); err != nil {
					rep.Warn(string(errors.ErrDeployment), destPath, "failed to create directory", err)
					continue
				}
			}
			r.syncDir(rep, srcDir, destDir, entryRel)
			continue
		}
		if !entry.Type().IsRegular() {
			r.logger.Debug().Str("path", srcPath).Msg("skipping non-regular file")
			continue
		}

		data, err := r.fs.ReadFile(srcPath)
		if err != nil {
			rep.Warn(string(errors.ErrDeployment), srcPath, "cannot read source file", err)
			continue
		}
		if existing, rerr := r.fs.ReadFile(destPath); rerr == nil && bytes.Equal(existing, data) {
			continue
		}

		if r.dryRun {
			r.logger.Info().Str("dest", destPath).Msg("would sync")
			rep.Skipped++
			continue
		}

		if err := r.fs.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			rep.Warn(string(errors.ErrDeployment), destPath, "failed to create parent directory", err)
			continue
		}
		if err := r.fs.WriteFile(destPath, data, 0644); err != nil {
			rep.Warn(string(errors.ErrDeployment), destPath, "failed to write file", err)
			continue
		}
		rep.Synced++
	}
}

// pruneDir removes destination entries absent from the source. Paths
// are discovered by walking destDir, so deletion cannot escape it.
func (r *Reconciler) pruneDir(rep *types.Report, srcDir, destDir, rel string) {
	entries, err := r.fs.ReadDir(filepath.Join(destDir, rel))
	if err != nil {
		return
	}

	for _, entry := range entries {
		entryRel := filepath.Join(rel, entry.Name())
		destPath := filepath.Join(destDir, entryRel)

		if !withinDir(destDir, destPath) {
			rep.Warn(string(errors.ErrDeployment), destPath, "refusing to delete outside destination", nil)
			continue
		}

		if _, err := r.fs.Lstat(filepath.Join(srcDir, entryRel)); os.IsNotExist(err) {
			if r.dryRun {
				r.logger.Info().Str("path", destPath).Msg("would delete")
				rep.Skipped++
				continue
			}
			if rmErr := r.fs.RemoveAll(destPath); rmErr != nil {
				rep.Warn(string(errors.ErrDeployment), destPath, "failed to delete", rmErr)
				continue
			}
			r.logger.Info().Str("path", destPath).Msg("deleted (mirror)")
			rep.Deleted++
			continue
		}

		if entry.IsDir() {
			r.pruneDir(rep, srcDir, destDir, entryRel)
		}
	}
}

// withinDir reports whether path stays inside dir after cleaning.
func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
