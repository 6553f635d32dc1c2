package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stockmatch/backend/config"
	"github.com/stockmatch/backend/internal/infrastructure/logging"
)

// options holds the persistent flags and the state they produce
type options struct {
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCommand builds the matchctl command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "matchctl",
		Short: "Match product requests against the inventory catalog",
		Long: `matchctl runs the stockmatch engine from the command line. It reads the
same configuration as the server, matches single requests or batches,
inspects category hierarchies and manages the PostgreSQL catalog.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.cfgFile)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			opts.cfg = cfg
			opts.logger = logging.New(level, "console", cmd.ErrOrStderr())
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newMatchCommand(opts),
		newHierarchyCommand(opts),
		newCatalogCommand(opts),
	)

	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
