package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stockmatch/backend/internal/infrastructure/catalog"
)

func newCatalogCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the PostgreSQL catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the catalog DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), catalog.Schema)
			return err
		},
	})

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Replace catalog items with the contents of a seed file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.Catalog.PostgresDSN == "" {
				return fmt.Errorf("catalog.postgres_dsn is not configured")
			}

			items, err := catalog.ReadSeedFile(file)
			if err != nil {
				return err
			}

			pg, err := catalog.NewPostgresCatalog(cmd.Context(), opts.cfg.Catalog.PostgresDSN, opts.logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := pg.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			if err := pg.ImportItems(cmd.Context(), items); err != nil {
				return err
			}

			opts.logger.Info().Int("items", len(items)).Str("file", file).Msg("catalog imported")
			return nil
		},
	}
	importCmd.Flags().StringVarP(&file, "file", "f", "", "seed file (.json, .yaml or .yml)")
	_ = importCmd.MarkFlagRequired("file")
	cmd.AddCommand(importCmd)

	return cmd
}
