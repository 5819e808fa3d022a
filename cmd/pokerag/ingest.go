package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pokerag/internal/domain/batch"
	ingestuc "github.com/kailas-cloud/pokerag/internal/usecase/ingest"
)

func newIngestCmd(c *cli) *cobra.Command {
	var src ingestuc.Source
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load Pokémon records into the document store",
		Long: `Reads JSON record files (a single record or an array per file) and an
optional enrichment map of {"name": "encyclopedia text"}, renders each record as
a document and upserts it. A record that fails is reported and skipped.

Examples:
  pokerag ingest --records 'data/pokeapi/**/*.json'
  pokerag ingest --records data/gen1.json --enrichment data/wiki.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openStore(&c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			svc := ingestuc.New(a.docs, c.logger.Named("ingest"))
			report, err := svc.Ingest(cmd.Context(), src, newProgress(cmd.ErrOrStderr(), "Ingesting").Update)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			printIngestReport(out, &report)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&src.Records, "records", []string{"data/pokeapi/**/*.json"}, "record file globs")
	cmd.Flags().StringSliceVar(&src.Enrichment, "enrichment", nil, "enrichment file globs")
	return cmd
}

func printIngestReport(out io.Writer, r *ingestuc.Report) {
	fmt.Fprintf(out, "\nIngest complete:\n")
	fmt.Fprintf(out, "  Files read: %d\n", r.Files)
	fmt.Fprintf(out, "  Created:    %d\n", r.Created)
	fmt.Fprintf(out, "  Updated:    %d\n", r.Updated)
	fmt.Fprintf(out, "  Failed:     %d\n", r.Summary.Failed+r.Summary.Excluded)
	fmt.Fprintf(out, "  Duration:   %s\n", r.Duration.Round(time.Millisecond))
	printFailures(out, r.Results)
}

func printFailures(out io.Writer, results []batch.Result) {
	header := false
	for _, res := range results {
		if res.Status() == batch.StatusOK {
			continue
		}
		if !header {
			fmt.Fprintf(out, "\nFailures:\n")
			header = true
		}
		fmt.Fprintf(out, "  - %s [%s]: %v\n", res.ID(), res.Status(), res.Err())
	}
}
