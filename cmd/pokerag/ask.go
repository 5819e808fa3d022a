package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	askuc "github.com/kailas-cloud/pokerag/internal/usecase/ask"
)

func newAskCmd(c *cli) *cobra.Command {
	var (
		q       askuc.Question
		filters []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Long: `Retrieves documents (optionally narrowed by facets), generates an answer
and scores how well it is grounded. Facet filters are facet=value[,value];
repeat --filter to combine facets.

Examples:
  pokerag ask "Tell me about Pikachu"
  pokerag ask "Which legendary birds exist?" -f is_legendary=true -m engaged
  pokerag ask "Blue water pokemon" -f type=water -f color=blue -k 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			q.Text = strings.Join(args, " ")
			if q.Filters, err = parseFilterFlags(filters); err != nil {
				return err
			}

			a, err := buildApp(cmd.Context(), &c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.rebuild(cmd.Context(), nil); err != nil {
				return err
			}

			resp, err := a.ask.Ask(cmd.Context(), q)
			if err != nil {
				return err
			}
			if asJSON {
				return printAskJSON(cmd.OutOrStdout(), &resp)
			}
			printAnswer(cmd.OutOrStdout(), &resp)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "facet filter facet=value[,value] (repeatable)")
	cmd.Flags().StringVarP(&q.Mode, "mode", "m", "normal", "response mode: normal or engaged")
	cmd.Flags().IntVarP(&q.TopK, "top-k", "k", 0, "documents to retrieve (default depends on mode)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}

// parseFilterFlags turns ["type=fire,water", "color=red"] into a facet map.
func parseFilterFlags(flags []string) (map[string][]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(flags))
	for _, f := range flags {
		name, values, ok := strings.Cut(f, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(values) == "" {
			return nil, fmt.Errorf("invalid filter %q: want facet=value[,value]", f)
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out[name] = append(out[name], v)
			}
		}
	}
	return out, nil
}

func printAnswer(out io.Writer, resp *askuc.Response) {
	a := &resp.Answer
	fmt.Fprintf(out, "%s\n\n", strings.TrimSpace(a.Text()))

	r := &resp.Retrieval.Result
	fmt.Fprintf(out, "Sources (%s, generation %d):\n", r.Outcome(), r.Generation())
	if len(a.Context()) == 0 {
		fmt.Fprintf(out, "  none\n")
	}
	for i, d := range a.Context() {
		fmt.Fprintf(out, "  [%d] %s (score %.3f)\n", i+1, d.Title, d.Score)
	}
	if len(a.Dropped()) > 0 {
		fmt.Fprintf(out, "  dropped for prompt budget: %s\n", strings.Join(a.Dropped(), ", "))
	}

	c := resp.Confidence
	fmt.Fprintf(out, "\nConfidence: %.0f%% (faithfulness %.2f, overlap %.2f, risk %.2f)\n",
		c.OverallConfidence*100, c.Faithfulness, c.ContextOverlap, c.HallucinationRisk)
	if resp.Warning != nil {
		fmt.Fprintf(out, "WARNING: %s\n", resp.Warning.Message)
	}
}

func printAskJSON(out io.Writer, resp *askuc.Response) error {
	a := &resp.Answer
	r := &resp.Retrieval.Result
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"answer":     a.Text(),
		"mode":       a.Mode(),
		"context":    a.Context(),
		"dropped":    a.Dropped(),
		"outcome":    r.Outcome(),
		"generation": r.Generation(),
		"filters":    r.Filters().Raw(),
		"confidence": resp.Confidence,
		"warning":    resp.Warning,
	})
}
