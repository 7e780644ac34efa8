package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/candidate-search/internal/errors"
	"github.com/gcbaptista/candidate-search/internal/objectstore"
	"github.com/gcbaptista/candidate-search/internal/render"
	"github.com/gcbaptista/candidate-search/internal/search"
	"github.com/gcbaptista/candidate-search/model"
	"github.com/gcbaptista/candidate-search/services"
)

type searchOptions struct {
	perParty int
	sortKeys bool
	file     string
	asJSON   bool
}

func newSearchCmd() *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one query and print the grouped candidates",
		Long: `Fetches the corpus (or reads --file), runs the query and prints one table
per party, grouped by district and administrative unit.

Examples:
  candidate-search search Tamm
  candidate-search search "Eesti Reformierakond" --per-party 0
  candidate-search search Kask --file ./fuse-index.json --sort-keys`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().IntVar(&opts.perParty, "per-party", render.DefaultPerParty, "Candidates shown per party (0 = all)")
	cmd.Flags().BoolVar(&opts.sortKeys, "sort-keys", false, "Sort districts, admin units and parties alphabetically")
	cmd.Flags().StringVar(&opts.file, "file", "", "Read the corpus from a local JSON file instead of object storage")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the grouped index as JSON")
	return cmd
}

func runSearch(ctx context.Context, out io.Writer, query string, opts *searchOptions) error {
	if opts.perParty < 0 {
		return errors.NewValidationError("per-party", "must not be negative")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	service, err := search.NewService(search.Options{
		Matcher:  settings.Matcher,
		Grouping: settings.Grouping,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	corpus, source, err := loadCorpus(ctx, opts.file)
	if err != nil {
		return err
	}
	service.Load(corpus, source)

	query = strings.TrimSpace(query)
	sortKeys := opts.sortKeys || settings.Grouping.SortKeys
	result, err := service.Search(services.SearchRequest{Query: query, SortKeys: &sortKeys})
	if err != nil {
		return err
	}

	if opts.asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result.Groups)
	}

	limit := opts.perParty
	if limit == 0 {
		limit = -1
	}
	if err := render.Table(out, result.Groups, render.Options{PerParty: limit, Query: query}); err != nil {
		return err
	}
	if result.Total > 0 {
		_, err = fmt.Fprintf(out, "%d of %d candidates matched\n", result.Total, result.CorpusSize)
	}
	return err
}

func loadCorpus(ctx context.Context, file string) ([]model.Candidate, string, error) {
	if file != "" {
		corpus, err := readCorpusFile(file)
		return corpus, file, err
	}

	client, err := objectstore.NewClient(settings.Storage, logger)
	if err != nil {
		return nil, "", err
	}
	corpus, err := client.FetchCandidates(ctx)
	return corpus, client.Describe(), err
}

func readCorpusFile(path string) ([]model.Candidate, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is given by the operator
	if err != nil {
		return nil, errors.NewCorpusUnavailableError(path, 0, err)
	}
	var corpus []model.Candidate
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, errors.NewInvalidCorpusError(path, "response data is not a valid array: "+err.Error())
	}
	return corpus, nil
}
