package querycompilercli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mogudian/elasticsearch-orm/internal/common/model"
)

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "entities [entity-type]",
		Short:        "List registered entity types and their physical fields",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := rootOpts.registry()
			if err != nil {
				return err
			}
			names := reg.Names()
			if len(args) == 1 {
				names = args
			}
			out := make([]model.EntityTypeDescription, 0, len(names))
			for _, name := range names {
				e, err := reg.Entity(name)
				if err != nil {
					return err
				}
				out = append(out, model.NewEntityTypeDescription(e))
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			for _, e := range out {
				fmt.Fprintf(w, "%s (index %s)\n", e.Name, e.Index)
				for _, p := range e.Properties {
					fmt.Fprintf(w, "  %-20s %s\n", p.Name, p.Field)
				}
			}
			return nil
		},
	}
}
