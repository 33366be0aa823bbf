package reconcile

import (
	"context"
	"os"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/hostinfo"
	"github.com/pcornish/rig/pkg/manifest"
	"github.com/pcornish/rig/pkg/types"
)

// Plan is the computed delta between desired and observed state.
type Plan struct {
	// MissingPackages lists the specs that need an install, in
	// declaration order (base, extra, gpu drivers, helper).
	MissingPackages []types.PackageSpec
	// AllPackages is the full desired list, for reporting.
	AllPackages []types.PackageSpec
	// Installed is the probed system state the plan was diffed against.
	Installed types.InstalledSet
	// Mappings and Blocks are applied by the idempotent deploy
	// operations, which skip whatever is already satisfied.
	Mappings []types.DotfileMapping
	Blocks   []types.AppendBlock
}

// Probe queries the package managers for the installed set. A probe
// failure is fatal: without a working package manager nothing else in
// the run can proceed.
func (r *Reconciler) Probe(ctx context.Context) (types.InstalledSet, error) {
	if r.system == nil {
		return nil, errors.New(errors.ErrBootstrap, "no package manager configured")
	}

	installed, err := r.system.Probe(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrBootstrap, "cannot query %s", r.system.Name())
	}

	// Helper-managed packages share the observed set; yay sees the
	// same local database as pacman.
	if r.helper != nil {
		if helperSet, herr := r.helper.Probe(ctx); herr == nil {
			for name := range helperSet {
				installed.Add(name)
			}
		}
	}

	return installed, nil
}

// BuildPlan computes the delta for a manifest against the probed state.
func (r *Reconciler) BuildPlan(ctx context.Context, m *manifest.Manifest, installed types.InstalledSet) (*Plan, error) {
	desired := append(m.BasePackages(), m.ExtraPackages()...)

	if m.GPU.Drivers && r.system != nil && r.system.Name() == "pacman" {
		class := hostinfo.DetectGPU(ctx, r.cmdr)
		drivers := hostinfo.DriverPackages(class)
		r.logger.Debug().Str("class", string(class)).Strs("drivers", drivers).Msg("GPU driver selection")
		desired = append(desired, types.NewSystemSpecs(drivers)...)
	}

	desired = append(desired, m.HelperPackages()...)

	plan := &Plan{AllPackages: desired, Installed: installed}
	for _, spec := range desired {
		if !installed.Has(spec.Name) {
			plan.MissingPackages = append(plan.MissingPackages, spec)
		}
	}

	mappings, err := m.Mappings()
	if err != nil {
		return nil, err
	}
	plan.Mappings = mappings
	plan.Blocks = m.AppendBlocks()

	return plan, nil
}

// Run drives one full converge: probe, diff, apply, report. The run
// aborts only on bootstrap failure; everything else degrades to
// warnings on the returned report.
func (r *Reconciler) Run(ctx context.Context, m *manifest.Manifest, rep *types.Report) error {
	if rep == nil {
		rep = types.NewReport()
	}

	rep.Advance(types.PhaseProbe)
	installed, err := r.Probe(ctx)
	if err != nil {
		rep.Fail(err)
		return err
	}

	rep.Advance(types.PhaseDiff)
	plan, err := r.BuildPlan(ctx, m, installed)
	if err != nil {
		rep.Fail(err)
		return err
	}
	r.logger.Info().
		Int("desired", len(plan.AllPackages)).
		Int("missing", len(plan.MissingPackages)).
		Int("mappings", len(plan.Mappings)).
		Msg("plan computed")

	rep.Advance(types.PhaseApply)
	r.apply(ctx, rep, m, plan)

	rep.Advance(types.PhaseReport)
	rep.Advance(types.PhaseDone)
	return nil
}

// apply walks the plan strictly sequentially; each action is attempted
// exactly once.
func (r *Reconciler) apply(ctx context.Context, rep *types.Report, m *manifest.Manifest, plan *Plan) {
	for _, spec := range plan.AllPackages {
		r.EnsureInstalled(ctx, rep, spec, plan.Installed)
	}

	for _, mapping := range plan.Mappings {
		switch mapping.Mode {
		case types.ModeSymlink:
			r.EnsureSymlink(rep, mapping.Source, mapping.Dest)
		case types.ModeCopy:
			r.EnsureCopy(rep, mapping.Source, mapping.Dest)
		case types.ModeAppend:
			r.appendFromSource(rep, mapping)
		}
	}

	for _, block := range plan.Blocks {
		r.EnsureAppendBlock(rep, block)
	}

	if m.Sync.Source != "" {
		destDir := m.Sync.Dest
		if destDir == "" {
			destDir = r.cfgDir
		}
		r.SyncTree(rep, r.sourcePath(m.Sync.Source), destDir, m.Sync.Mirror)
	}
}

// appendFromSource reads an append-mode mapping's source file and
// applies it as an append block on the destination.
func (r *Reconciler) appendFromSource(rep *types.Report, mapping types.DotfileMapping) {
	srcPath := r.sourcePath(mapping.Source)
	content, err := r.fs.ReadFile(srcPath)
	if err != nil {
		rep.Warn(string(errors.ErrDeployment), srcPath, "cannot read append source", err)
		return
	}
	r.EnsureAppendBlock(rep, types.AppendBlock{Target: mapping.Dest, Content: string(content)})
}

// MappingSatisfied reports whether a single mapping needs no action,
// for status display.
func (r *Reconciler) MappingSatisfied(mapping types.DotfileMapping) bool {
	destPath := r.expandDest(mapping.Dest)

	switch mapping.Mode {
	case types.ModeSymlink:
		info, err := r.fs.Lstat(destPath)
		return err == nil && info.Mode()&os.ModeSymlink != 0

	case types.ModeCopy:
		src, err := r.fs.ReadFile(r.sourcePath(mapping.Source))
		if err != nil {
			return false
		}
		dest, err := r.fs.ReadFile(destPath)
		return err == nil && string(src) == string(dest)

	case types.ModeAppend:
		content, err := r.fs.ReadFile(r.sourcePath(mapping.Source))
		if err != nil {
			return false
		}
		marker := types.AppendBlock{Content: string(content)}.Marker()
		existing, err := r.fs.ReadFile(destPath)
		return err == nil && marker != "" && containsLine(existing, marker)
	}
	return false
}

// BlockSatisfied reports whether an append block is already applied.
func (r *Reconciler) BlockSatisfied(block types.AppendBlock) bool {
	existing, err := r.fs.ReadFile(r.expandDest(block.Target))
	if err != nil {
		return false
	}
	marker := block.Marker()
	return marker != "" && containsLine(existing, marker)
}
