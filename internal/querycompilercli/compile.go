package querycompilercli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/common/model"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/compiler"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Params  string // JSON array of placeholder values
	Scoring bool
	From    string
	To      string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <entity-type> <clause>",
		Short: "Compile a WHERE / ORDER BY / LIMIT clause into a query plan",
		Long: `Compile a clause against an entity type and print the query plan.

Placeholders (?) in the clause are replaced by the values of --params, a JSON array:

  querycompiler compile user "age > ? and city = ?" --params '[18, "NY"]'`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Params, "params", "", "JSON array of placeholder values")
	cmd.Flags().BoolVar(&opts.Scoring, "scoring", false, "keep relevance scoring instead of filter context")
	cmd.Flags().StringVar(&opts.From, "from", "", "lifecycle window start (RFC3339)")
	cmd.Flags().StringVar(&opts.To, "to", "", "lifecycle window end (RFC3339)")

	return cmd
}

func (o *CompileOptions) options() (compiler.Options, error) {
	opts := compiler.Options{Scoring: o.Scoring}
	if o.Params != "" {
		if err := common.Unmarshal([]byte(o.Params), &opts.Params); err != nil {
			return opts, fmt.Errorf("--params: %w", err)
		}
	}
	if o.From == "" && o.To == "" {
		return opts, nil
	}
	window := &compiler.Lifecycle{}
	var err error
	if o.From != "" {
		if window.Start, err = time.Parse(time.RFC3339, o.From); err != nil {
			return opts, fmt.Errorf("--from: %w", err)
		}
	}
	if o.To != "" {
		if window.End, err = time.Parse(time.RFC3339, o.To); err != nil {
			return opts, fmt.Errorf("--to: %w", err)
		}
	}
	opts.Lifecycle = window
	return opts, nil
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, entityType, clause string) error {
	reg, layout, err := opts.registry()
	if err != nil {
		return err
	}
	compileOpts, err := opts.options()
	if err != nil {
		return err
	}
	plan, err := compiler.New(reg, layout).Compile(entityType, clause, compileOpts)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), model.NewCompiledPlan(plan))
	}
	return writePlanText(cmd, plan)
}

func writePlanText(cmd *cobra.Command, plan *predicate.QueryPlan) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s on index %s\n", plan.EntityType, plan.Index)
	fmt.Fprintf(w, "query: %s\n", plan.Query.Kind())
	for _, s := range plan.Sorts {
		if s.IsScript() {
			fmt.Fprintf(w, "sort: script (%s) %s\n", s.ScriptType, s.Direction)
			continue
		}
		fmt.Fprintf(w, "sort: %s %s\n", s.Field, s.Direction)
	}
	if plan.Page.Size != nil {
		fmt.Fprintf(w, "page: offset %d size %d\n", plan.Page.Offset, *plan.Page.Size)
	}
	return writeJSON(w, predicate.Describe(plan.Query))
}
