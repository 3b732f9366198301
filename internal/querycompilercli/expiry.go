package querycompilercli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mogudian/elasticsearch-orm/internal/backend/factory"
	"github.com/mogudian/elasticsearch-orm/internal/common/model"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/compiler"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
)

// ExpiryOptions holds flags for the expiry command.
type ExpiryOptions struct {
	*RootOptions
	Now     string
	Execute bool
}

// NewExpiryCommand creates the expiry command. It prints the plan selecting documents past
// their retention and, with --execute, deletes them from the configured store.
func NewExpiryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpiryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "expiry <entity-type>",
		Short:        "Build, and optionally run, the expiry plan of an entity type",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpiry(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Now, "now", "", "reference time (RFC3339), defaults to the current time")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "delete the expired documents from the configured backend")

	return cmd
}

func runExpiry(cmd *cobra.Command, opts *ExpiryOptions, entityType string) error {
	now := time.Now()
	if opts.Now != "" {
		t, err := time.Parse(time.RFC3339, opts.Now)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		now = t
	}

	if !opts.Execute {
		reg, layout, err := opts.registry()
		if err != nil {
			return err
		}
		plan, err := compiler.New(reg, layout).ExpiryPlan(entityType, now)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), model.NewCompiledPlan(plan))
	}

	cfg, err := opts.config()
	if err != nil {
		return err
	}
	reg, err := metadata.LoadFile(cfg.Compiler.MetadataPath, cfg.Compiler.SchemaPath)
	if err != nil {
		return err
	}
	plan, err := compiler.New(reg, cfg.Compiler.DateLayout).ExpiryPlan(entityType, now)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, closeStore, err := factory.Open(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeStore(context.Background())
	}()
	if store == nil {
		return fmt.Errorf("--execute needs a backend, set backend.type")
	}
	n, err := store.DeleteMatching(ctx, plan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ deleted %d expired %s documents from %s\n", n, entityType, plan.Index)
	return nil
}
