package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLintCmd validates a catalog without starting anything. Authoring defects
// are reported with the file and step that caused them.
func NewLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [dir]",
		Short: "Validate activity and learning-path YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			catalog, err := loadCatalog(cmd.Context(), dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range catalog.Activities() {
				fmt.Fprintf(out, "ok  %-24s %2d steps\n", a.ID, len(a.Steps))
			}
			for _, p := range catalog.Paths() {
				fmt.Fprintf(out, "ok  path %-19s %2d modules\n", p.ID, len(p.Modules))
			}
			return nil
		},
	}
}
