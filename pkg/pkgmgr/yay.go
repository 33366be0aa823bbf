package pkgmgr

import (
	"context"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/logging"
	"github.com/pcornish/rig/pkg/types"
)

// yayBootstrapPackages are what building yay from the AUR requires.
var yayBootstrapPackages = []string{"base-devel", "git"}

// Yay drives the yay AUR helper for packages absent from the primary
// pacman repositories.
type Yay struct {
	run Commander
}

// NewYay creates a yay helper manager.
func NewYay(c Commander) *Yay {
	return &Yay{run: c}
}

func (y *Yay) Name() string { return "yay" }

func (y *Yay) Available() bool {
	_, err := LookPath("yay")
	return err == nil
}

// Probe lists all installed packages; yay sees the same local database
// as pacman plus foreign (AUR) packages.
func (y *Yay) Probe(ctx context.Context) (types.InstalledSet, error) {
	output, err := y.run.Output(ctx, "yay", "-Qq")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPackageProbe, "yay -Qq failed")
	}
	return parseLines(output), nil
}

func (y *Yay) Install(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"-S", "--needed", "--noconfirm"}, names...)
	if err := y.run.Run(ctx, "yay", args...); err != nil {
		return errors.Wrapf(err, errors.ErrPackageInstall, "yay -S %v failed", names)
	}
	return nil
}

// Bootstrap builds yay from the AUR: install the build prerequisites
// through pacman, clone the PKGBUILD into buildDir, and run makepkg.
// Used when helper packages are declared but yay is missing.
func (y *Yay) Bootstrap(ctx context.Context, system Manager, buildDir string) error {
	logger := logging.GetLogger("pkgmgr.yay")
	logger.Info().Str("buildDir", buildDir).Msg("bootstrapping yay from the AUR")

	if err := system.Install(ctx, yayBootstrapPackages...); err != nil {
		return errors.Wrap(err, errors.ErrPackageInstall, "installing yay build prerequisites failed")
	}

	if err := y.run.Run(ctx, "git", "clone", "https://aur.archlinux.org/yay.git", buildDir); err != nil {
		return errors.Wrap(err, errors.ErrPackageInstall, "cloning yay PKGBUILD failed")
	}

	if err := y.run.Run(ctx, "makepkg", "-si", "--noconfirm", "-D", buildDir); err != nil {
		return errors.Wrap(err, errors.ErrPackageInstall, "building yay failed")
	}

	return nil
}
