package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pokerag/internal/domain/facet"
	indexuc "github.com/kailas-cloud/pokerag/internal/usecase/index"
)

func newIndexCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or inspect the facet and embedding indexes",
	}
	cmd.AddCommand(newIndexRebuildCmd(c), newIndexStatsCmd(c))
	return cmd
}

func newIndexRebuildCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Embed every document missing a vector in the configured space",
		Long: `Loads the whole document store, embeds documents whose stored vector is
missing or from another embedding space and writes the vectors back. Documents
that fail with a provider outage are excluded and listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), &c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.rebuild(cmd.Context(), newProgress(cmd.ErrOrStderr(), "Indexing").Update)
			out := cmd.OutOrStdout()
			printBuildReport(out, &report)
			return err
		},
	}
}

func newIndexStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print facet bucket sizes and embedding coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), &c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.rebuild(cmd.Context(), nil); err != nil {
				return err
			}
			st, err := a.index.Stats()
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), &st)
			return nil
		},
	}
}

func printBuildReport(out io.Writer, r *indexuc.BuildReport) {
	fmt.Fprintf(out, "\nIndex build:\n")
	if r.Generation > 0 {
		fmt.Fprintf(out, "  Generation: %d\n", r.Generation)
	}
	fmt.Fprintf(out, "  Documents:  %d\n", r.Documents)
	fmt.Fprintf(out, "  Embedded:   %d\n", r.Embedded)
	fmt.Fprintf(out, "  Reused:     %d\n", r.Reused)
	fmt.Fprintf(out, "  Excluded:   %d\n", r.Summary.Excluded)
	fmt.Fprintf(out, "  Duration:   %s\n", r.Duration.Round(time.Millisecond))
	printFailures(out, r.Results)
}

func printStats(out io.Writer, st *indexuc.Stats) {
	fmt.Fprintf(out, "Generation %d built %s\n", st.Generation, st.BuiltAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Embedding space: %s\n", st.Space)
	fmt.Fprintf(out, "Documents: %d (excluded %d)\n", st.Documents, len(st.Excluded))
	if len(st.Excluded) > 0 {
		fmt.Fprintf(out, "  excluded: %s\n", strings.Join(st.Excluded, ", "))
	}

	names := make([]string, 0, len(st.Facets))
	for n := range st.Facets {
		names = append(names, string(n))
	}
	sort.Strings(names)

	for _, n := range names {
		buckets := st.Facets[facet.Name(n)]
		values := make([]string, 0, len(buckets))
		for v := range buckets {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool {
			if buckets[values[i]] != buckets[values[j]] {
				return buckets[values[i]] > buckets[values[j]]
			}
			return values[i] < values[j]
		})

		fmt.Fprintf(out, "\n%s (%d values)\n", n, len(values))
		for _, v := range values {
			fmt.Fprintf(out, "  %-16s %d\n", v, buckets[v])
		}
	}
}
