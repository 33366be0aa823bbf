package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcornish/rig/pkg/filesystem"
	"github.com/pcornish/rig/pkg/paths"
	"github.com/pcornish/rig/pkg/pkgmgr"
	"github.com/pcornish/rig/pkg/reconcile"
	"github.com/pcornish/rig/pkg/style"
)

// newStatusCmd probes and diffs without applying anything.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: MsgStatusShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			p, err := paths.New("")
			if err != nil {
				return err
			}
			m, err := loadManifest(p)
			if err != nil {
				return err
			}

			cmdr := pkgmgr.NewCommander()
			system, err := pkgmgr.Detect(cmdr)
			if err != nil {
				return err
			}
			var helper pkgmgr.Manager
			if system.Name() == "pacman" {
				if yay := pkgmgr.NewYay(cmdr); yay.Available() {
					helper = yay
				}
			}

			r := reconcile.New(reconcile.Options{
				FS:        filesystem.NewOS(),
				System:    system,
				Helper:    helper,
				Commander: cmdr,
				Root:      p.DotfilesRoot(),
				ConfigDir: p.ConfigDir(),
			})

			installed, err := r.Probe(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := r.BuildPlan(cmd.Context(), m, installed)
			if err != nil {
				return err
			}

			pending := 0
			if len(plan.MissingPackages) > 0 {
				fmt.Fprintln(out, style.TitleLine(MsgStatusMissing))
				for _, spec := range plan.MissingPackages {
					fmt.Fprintln(out, style.ItemLine(spec.Name, string(spec.Source)))
					pending++
				}
			}

			var deployments []string
			for _, mapping := range plan.Mappings {
				if !r.MappingSatisfied(mapping) {
					deployments = append(deployments, style.ItemLine(mapping.Dest, string(mapping.Mode)))
				}
			}
			for _, block := range plan.Blocks {
				if !r.BlockSatisfied(block) {
					deployments = append(deployments, style.ItemLine(block.Target, "append"))
				}
			}
			if len(deployments) > 0 {
				fmt.Fprintln(out, style.TitleLine(MsgStatusPending))
				for _, line := range deployments {
					fmt.Fprintln(out, line)
					pending++
				}
			}

			if pending == 0 {
				fmt.Fprintln(out, MsgStatusConverged)
			}
			return nil
		},
	}
}
