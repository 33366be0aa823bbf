package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pcornish/rig/docs"
	"github.com/pcornish/rig/pkg/ui"
)

// newDocsCmd lists and renders the embedded manual topics.
func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "docs [topic]",
		Short:     MsgDocsShort,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: docs.Topics(),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				fmt.Fprintln(out, "Available topics:")
				for _, name := range docs.Topics() {
					fmt.Fprintf(out, "  %s\n", name)
				}
				fmt.Fprintln(out, "\nRun 'rig docs <topic>' to read one.")
				return nil
			}

			content, ok := docs.Content(args[0])
			if !ok {
				return fmt.Errorf("unknown topic %q (available: %s)", args[0], strings.Join(docs.Topics(), ", "))
			}

			styled := ui.DetectFormat(os.Stdout) == ui.FormatTerminal
			fmt.Fprint(out, docs.Render(content, styled))
			return nil
		},
	}
}
