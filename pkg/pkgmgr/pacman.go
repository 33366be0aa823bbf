package pkgmgr

import (
	"context"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/logging"
	"github.com/pcornish/rig/pkg/types"
)

// Pacman drives pacman on Arch-like systems. Installs go through sudo.
type Pacman struct {
	run Commander
}

// NewPacman creates a pacman manager.
func NewPacman(c Commander) *Pacman {
	return &Pacman{run: c}
}

func (p *Pacman) Name() string { return "pacman" }

func (p *Pacman) Available() bool {
	_, err := LookPath("pacman")
	return err == nil
}

func (p *Pacman) Probe(ctx context.Context) (types.InstalledSet, error) {
	output, err := p.run.Output(ctx, "pacman", "-Qq")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPackageProbe, "pacman -Qq failed")
	}
	set := parseLines(output)

	logger := logging.GetLogger("pkgmgr.pacman")
	logger.Debug().Int("installed", len(set)).Msg("probed installed packages")
	return set, nil
}

// Install runs one pacman transaction for all names. --needed keeps the
// call idempotent if probe state went stale mid-run.
func (p *Pacman) Install(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"pacman", "-S", "--needed", "--noconfirm"}, names...)
	if err := p.run.Run(ctx, "sudo", args...); err != nil {
		return errors.Wrapf(err, errors.ErrPackageInstall, "pacman -S %v failed", names)
	}
	return nil
}
