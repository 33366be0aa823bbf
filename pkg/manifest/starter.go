package manifest

import (
	"io/fs"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/types"
)

const starterHeader = `# rig manifest
#
# Declares the desired state of this machine: package lists, dotfile
# mappings, append blocks, and the config tree to mirror. Deploy modes
# are explicit per entry: symlink | copy | append.

`

// Starter returns a minimal manifest suitable for a fresh dotfiles
// repository.
func Starter() *Manifest {
	return &Manifest{
		Packages: Packages{
			Base:  []string{"git", "ripgrep", "fd"},
			Extra: []string{"neovim"},
		},
		Dotfiles: []Mapping{
			{Source: "zsh/zshrc", Dest: "~/.zshrc", Mode: "symlink"},
		},
		Sync: Sync{Source: "config", Mirror: false},
	}
}

// WriteStarter marshals the starter manifest to path. It refuses to
// overwrite an existing file.
func WriteStarter(fsys types.FS, path string) error {
	if _, err := fsys.Stat(path); err == nil {
		return errors.Newf(errors.ErrInvalidInput, "manifest already exists at %s", path)
	}

	data, err := toml.Marshal(Starter())
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to marshal starter manifest")
	}

	content := append([]byte(starterHeader), data...)
	if err := fsys.WriteFile(path, content, fs.FileMode(0644)); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write manifest %s", path)
	}

	log.Info().Str("path", path).Msg("starter manifest written")
	return nil
}
