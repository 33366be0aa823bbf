// Package manifest loads and validates the rig manifest: the declared
// desired state of a machine. The manifest lives at the dotfiles root as
// rig.toml (or rig.yaml) and names the package lists, the dotfile
// mappings with their deployment modes, the append blocks, and the
// config tree to sync.
package manifest

import (
	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/logging"
	"github.com/pcornish/rig/pkg/types"
)

var log = logging.GetLogger("manifest")

// Packages declares the ordered package lists. Base and Extra install
// through the system manager; Helper installs through the helper
// manager (e.g. an AUR helper).
type Packages struct {
	Base   []string `koanf:"base" toml:"base"`
	Extra  []string `koanf:"extra" toml:"extra"`
	Helper []string `koanf:"helper" toml:"helper,omitempty"`
}

// Mapping is one dotfile deployment entry. Mode must be one of
// symlink, copy, or append; it is always explicit, never inferred.
type Mapping struct {
	Source string `koanf:"source" toml:"source"`
	Dest   string `koanf:"dest" toml:"dest"`
	Mode   string `koanf:"mode" toml:"mode"`
}

// Append is an inline text block appended to a target file at most
// once, keyed by its first non-blank line.
type Append struct {
	Target  string `koanf:"target" toml:"target"`
	Content string `koanf:"content" toml:"content"`
}

// Sync mirrors a directory of the dotfiles tree into the user's
// configuration directory. Mirror deletion is off unless explicitly
// enabled, since it is destructive.
type Sync struct {
	Source string `koanf:"source" toml:"source"`
	Dest   string `koanf:"dest" toml:"dest,omitempty"`
	Mirror bool   `koanf:"mirror" toml:"mirror"`
}

// Origin describes where the dotfiles state is fetched from during an
// update: a git remote, with a tarball URL as the non-git fallback.
type Origin struct {
	URL     string `koanf:"url" toml:"url,omitempty"`
	Archive string `koanf:"archive" toml:"archive,omitempty"`
}

// GPU opts pacman systems into best-effort driver package selection.
type GPU struct {
	Drivers bool `koanf:"drivers" toml:"drivers"`
}

// Manifest is the declared desired state of the machine.
type Manifest struct {
	Packages Packages  `koanf:"packages" toml:"packages"`
	Dotfiles []Mapping `koanf:"dotfiles" toml:"dotfiles,omitempty"`
	Append   []Append  `koanf:"append" toml:"append,omitempty"`
	Sync     Sync      `koanf:"sync" toml:"sync,omitempty"`
	Origin   Origin    `koanf:"origin" toml:"origin,omitempty"`
	GPU      GPU       `koanf:"gpu" toml:"gpu,omitempty"`
}

// BasePackages returns the base list as package specs, preserving
// declaration order. Base and extra share this manifest as the single
// source of truth for both the install and update flows.
func (m *Manifest) BasePackages() []types.PackageSpec {
	return types.NewSystemSpecs(m.Packages.Base)
}

// ExtraPackages returns the extra list as package specs.
func (m *Manifest) ExtraPackages() []types.PackageSpec {
	return types.NewSystemSpecs(m.Packages.Extra)
}

// HelperPackages returns the helper-managed list as package specs.
func (m *Manifest) HelperPackages() []types.PackageSpec {
	return types.NewHelperSpecs(m.Packages.Helper)
}

// Mappings returns the validated dotfile mappings.
func (m *Manifest) Mappings() ([]types.DotfileMapping, error) {
	mappings := make([]types.DotfileMapping, 0, len(m.Dotfiles))
	for _, d := range m.Dotfiles {
		mode, err := types.ParseDeployMode(d.Mode)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "dotfile entry %q", d.Source)
		}
		mappings = append(mappings, types.DotfileMapping{
			Source: d.Source,
			Dest:   d.Dest,
			Mode:   mode,
		})
	}
	return mappings, nil
}

// AppendBlocks returns the inline append blocks.
func (m *Manifest) AppendBlocks() []types.AppendBlock {
	blocks := make([]types.AppendBlock, 0, len(m.Append))
	for _, a := range m.Append {
		blocks = append(blocks, types.AppendBlock{Target: a.Target, Content: a.Content})
	}
	return blocks
}

// Validate checks the manifest for entries that cannot be applied:
// unknown deploy modes, mappings without a source or destination, and
// append blocks with no marker line.
func (m *Manifest) Validate() error {
	for _, d := range m.Dotfiles {
		if d.Source == "" || d.Dest == "" {
			return errors.Newf(errors.ErrManifestInvalid, "dotfile entry needs both source and dest (source=%q dest=%q)", d.Source, d.Dest)
		}
		if _, err := types.ParseDeployMode(d.Mode); err != nil {
			return errors.Wrapf(err, errors.ErrManifestInvalid, "dotfile entry %q", d.Source)
		}
	}
	for _, a := range m.Append {
		if a.Target == "" {
			return errors.New(errors.ErrManifestInvalid, "append entry needs a target")
		}
		if (types.AppendBlock{Content: a.Content}).Marker() == "" {
			return errors.Newf(errors.ErrManifestInvalid, "append entry for %q has no non-blank marker line", a.Target)
		}
	}
	if m.Sync.Mirror && m.Sync.Source == "" {
		return errors.New(errors.ErrManifestInvalid, "sync.mirror requires sync.source")
	}
	return nil
}
