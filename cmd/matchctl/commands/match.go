package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stockmatch/backend/internal/app"
	"github.com/stockmatch/backend/internal/domain"
)

type matchFlags struct {
	category   string
	name       string
	properties []string
	file       string
}

func newMatchCommand(opts *options) *cobra.Command {
	flags := &matchFlags{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match one request, or a batch read from a JSON file",
		Example: `  matchctl match --category Nuts --name "hex nut" --property size=M8 --property grade=8
  matchctl match --file requests.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, batch, err := flags.requests()
			if err != nil {
				return err
			}

			engine, err := app.New(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer engine.Close()

			if !batch {
				result, err := engine.Matcher.Match(cmd.Context(), &requests[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			}

			results, err := engine.Batch.MatchAll(cmd.Context(), requests)
			if err != nil {
				return err
			}
			out := make([]batchOutput, len(results))
			for i, r := range results {
				out[i] = batchOutput{Index: r.Index, Result: r.Result}
				if r.Err != nil {
					out[i].Error = r.Err.Error()
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&flags.category, "category", "", "product category")
	cmd.Flags().StringVar(&flags.name, "name", "", "product name")
	cmd.Flags().StringArrayVarP(&flags.properties, "property", "p", nil, "property as name=value, repeatable")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "JSON file with one request or an array of requests")
	cmd.MarkFlagsMutuallyExclusive("file", "category")

	return cmd
}

type batchOutput struct {
	Index  int                 `json:"index"`
	Result *domain.MatchResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// requests returns the requests to match and whether they came in as a batch
func (f *matchFlags) requests() ([]domain.ProductRequest, bool, error) {
	if f.file != "" {
		return readRequestFile(f.file)
	}

	if strings.TrimSpace(f.category) == "" {
		return nil, false, fmt.Errorf("%w: --category or --file is required", domain.ErrInvalidRequest)
	}

	request := domain.ProductRequest{Category: f.category, ProductName: f.name}
	for _, raw := range f.properties {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, false, fmt.Errorf("%w: property %q must be name=value", domain.ErrInvalidRequest, raw)
		}
		request.Properties = append(request.Properties, domain.Property{
			Name:       strings.TrimSpace(name),
			Value:      strings.TrimSpace(value),
			Confidence: 1.0,
		})
	}
	return []domain.ProductRequest{request}, false, nil
}

func readRequestFile(path string) ([]domain.ProductRequest, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read request file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var requests []domain.ProductRequest
		if err := json.Unmarshal(trimmed, &requests); err != nil {
			return nil, false, fmt.Errorf("decode request file %s: %w", path, err)
		}
		return requests, true, nil
	}

	var request domain.ProductRequest
	if err := json.Unmarshal(trimmed, &request); err != nil {
		return nil, false, fmt.Errorf("decode request file %s: %w", path, err)
	}
	return []domain.ProductRequest{request}, false, nil
}
