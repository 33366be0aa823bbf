package pkgmgr

import (
	"context"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/logging"
	"github.com/pcornish/rig/pkg/types"
)

// Brew drives Homebrew.
type Brew struct {
	run Commander
}

// NewBrew creates a Homebrew manager.
func NewBrew(c Commander) *Brew {
	return &Brew{run: c}
}

func (b *Brew) Name() string { return "brew" }

func (b *Brew) Available() bool {
	_, err := LookPath("brew")
	return err == nil
}

// Probe lists installed formulae. Cask-only installs are out of scope
// for the declared lists, which name formulae.
func (b *Brew) Probe(ctx context.Context) (types.InstalledSet, error) {
	output, err := b.run.Output(ctx, "brew", "list", "--formula")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPackageProbe, "brew list failed")
	}
	set := parseLines(output)

	logger := logging.GetLogger("pkgmgr.brew")
	logger.Debug().Int("installed", len(set)).Msg("probed installed formulae")
	return set, nil
}

func (b *Brew) Install(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"install"}, names...)
	if err := b.run.Run(ctx, "brew", args...); err != nil {
		return errors.Wrapf(err, errors.ErrPackageInstall, "brew install %v failed", names)
	}
	return nil
}
