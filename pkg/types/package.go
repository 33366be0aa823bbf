package types

// PackageSource identifies which installer a package comes from.
type PackageSource string

const (
	// SourceSystem is the primary system package manager (brew, pacman).
	SourceSystem PackageSource = "system"
	// SourceHelper is the secondary helper manager used for packages
	// absent from the primary repositories (e.g. an AUR helper).
	SourceHelper PackageSource = "helper"
)

// PackageSpec declares a single package that should be present on the
// system. Specs are declared in the manifest, never mutated, and
// consumed once per run.
type PackageSpec struct {
	Name   string
	Source PackageSource
}

// NewSystemSpecs builds system-source specs from a list of names,
// preserving order.
func NewSystemSpecs(names []string) []PackageSpec {
	specs := make([]PackageSpec, 0, len(names))
	for _, n := range names {
		specs = append(specs, PackageSpec{Name: n, Source: SourceSystem})
	}
	return specs
}

// NewHelperSpecs builds helper-source specs from a list of names,
// preserving order.
func NewHelperSpecs(names []string) []PackageSpec {
	specs := make([]PackageSpec, 0, len(names))
	for _, n := range names {
		specs = append(specs, PackageSpec{Name: n, Source: SourceHelper})
	}
	return specs
}

// InstalledSet records which packages are present on the system. It is
// rebuilt fresh on every run by querying the package manager once; it is
// never cached across runs.
type InstalledSet map[string]bool

// Has reports whether the named package is installed.
func (s InstalledSet) Has(name string) bool {
	return s[name]
}

// Add marks a package as installed. Used after a successful install so a
// later step in the same run sees the updated state.
func (s InstalledSet) Add(name string) {
	s[name] = true
}
