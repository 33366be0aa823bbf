package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/fetch"
	"github.com/pcornish/rig/pkg/filesystem"
	"github.com/pcornish/rig/pkg/paths"
	"github.com/pcornish/rig/pkg/reconcile"
	"github.com/pcornish/rig/pkg/style"
	"github.com/pcornish/rig/pkg/types"
)

// newUpdateCmd fetches a fresh copy of the dotfiles state and converges
// against it. Root-level flags are shared through opts.
func newUpdateCmd(opts *convergeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: MsgUpdateShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paths.New("")
			if err != nil {
				return err
			}

			// The local manifest supplies the origin to fetch from.
			local, err := loadManifest(p)
			if err != nil {
				return err
			}
			if local.Origin.URL == "" && local.Origin.Archive == "" {
				return errors.New(errors.ErrManifestInvalid, "manifest has no [origin] to update from")
			}

			res, cleanup, err := fetch.Fetch(cmd.Context(), fetch.Options{
				URL:         local.Origin.URL,
				Archive:     local.Origin.Archive,
				Ref:         opts.ref,
				ArchiveOnly: opts.archiveOnly,
			})
			defer cleanup()
			if err != nil {
				return err
			}

			// Converge from the freshly fetched tree, not the local one.
			fetched, err := paths.New(res.Dir)
			if err != nil {
				return err
			}
			m, err := loadManifest(fetched)
			if err != nil {
				return err
			}

			if opts.keepDir != "" {
				persistFetched(cmd.OutOrStdout(), res.Dir, opts.keepDir)
			}

			return converge(cmd.Context(), cmd.OutOrStdout(), res.Dir, fetched, m, *opts)
		},
	}

	cmd.Flags().StringVar(&opts.ref, "ref", "", MsgFlagRef)
	cmd.Flags().StringVar(&opts.keepDir, "keep-dir", "", MsgFlagKeepDir)
	cmd.Flags().BoolVar(&opts.archiveOnly, "archive-only", false, MsgFlagArchiveOnly)

	return cmd
}

// persistFetched copies the scratch tree to keepDir before the scratch
// directory is cleaned up. Failures are printed as warnings; they never
// abort the update.
func persistFetched(out io.Writer, scratchDir, keepDir string) {
	r := reconcile.New(reconcile.Options{
		FS:   filesystem.NewOS(),
		Root: scratchDir,
	})
	rep := types.NewReport()
	rep.Notify = func(w types.Warning) {
		fmt.Fprintln(out, style.WarningLine(w))
	}
	r.SyncTree(rep, scratchDir, paths.ExpandHome(keepDir), false)
}
