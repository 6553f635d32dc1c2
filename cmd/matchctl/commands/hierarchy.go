package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stockmatch/backend/internal/infrastructure/hierarchy"
	"github.com/stockmatch/backend/internal/usecase"
)

func newHierarchyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hierarchy [category]",
		Short: "Show the property hierarchy for a category, or list categories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return writeJSON(cmd.OutOrStdout(), registry.Categories())
			}

			h, ok := registry.Hierarchy(args[0])
			if !ok {
				return fmt.Errorf("no hierarchy registered for category %q", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), h)
		},
	}
}

func loadRegistry(ctx context.Context, opts *options) (*usecase.HierarchyRegistry, error) {
	source := hierarchy.NewFileSource(opts.cfg.Hierarchy.File, opts.logger)
	return usecase.LoadHierarchyRegistry(ctx, source, opts.logger)
}
