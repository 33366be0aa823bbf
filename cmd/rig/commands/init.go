package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pcornish/rig/pkg/filesystem"
	"github.com/pcornish/rig/pkg/manifest"
	"github.com/pcornish/rig/pkg/paths"
)

// newInitCmd writes a starter manifest into the dotfiles root.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: MsgInitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paths.New("")
			if err != nil {
				return err
			}

			path := filepath.Join(p.DotfilesRoot(), "rig.toml")
			if err := manifest.WriteStarter(filesystem.NewOS(), path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote starter manifest to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit it, then run 'rig' to converge.")
			return nil
		},
	}
}
