// Package commands wires the rig CLI together.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pcornish/rig/internal/version"
	"github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/logging"
)

// NewRootCmd creates and returns the root command. Running rig with no
// subcommand converges the machine directly.
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		opts      convergeOptions
	)

	rootCmd := &cobra.Command{
		Use:     "rig",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConverge(cmd.Context(), cmd.OutOrStdout(), opts)
		},
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&opts.yes, "yes", false, MsgFlagYes)
	rootCmd.PersistentFlags().BoolVar(&opts.force, "force", false, MsgFlagForce)
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)

	rootCmd.AddCommand(newUpdateCmd(&opts))
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newDocsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rig version %s\n", version.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.Date)
		},
	}
}

// Execute runs the root command and returns the process exit status.
// Fatal errors are printed to errOut; cobra itself is silenced, so this
// is the only place they surface.
func Execute(ctx context.Context, args []string, errOut io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "rig: %v\n", err)
		return ExitCode(err)
	}
	return 0
}

// ExitCode maps an error from Execute to the process exit status: 2
// for a missing or invalid manifest, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch errors.GetErrorCode(err) {
	case errors.ErrManifestLoad, errors.ErrManifestParse, errors.ErrManifestInvalid:
		return 2
	}
	return 1
}
