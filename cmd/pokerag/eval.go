package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/repository/report"
	"github.com/kailas-cloud/pokerag/internal/usecase/evaluate"
)

func newEvalCmd(c *cli) *cobra.Command {
	var (
		modeOverride string
		workers      int
		ragas        bool
		outputDir    string
		noLog        bool
	)
	cmd := &cobra.Command{
		Use:   "eval <testset.yaml|testset.json>",
		Short: "Run a test set through the pipeline and report quality metrics",
		Long: `Answers every case of a test set, scores exact match, F1, context
precision/recall and hallucination risk, and writes a JSON report, a per-case
CSV and (unless --no-log) appends risky answers to the hallucination log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := evaluate.LoadTestSet(args[0])
			if err != nil {
				return err
			}

			cfg := c.cfg
			if cmd.Flags().Changed("workers") {
				cfg.Eval.Workers = workers
			}
			if cmd.Flags().Changed("ragas") {
				cfg.Eval.Ragas = ragas
			}
			if outputDir != "" {
				cfg.Eval.OutputDir = outputDir
			}

			a, err := buildApp(cmd.Context(), &cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.rebuild(cmd.Context(), nil); err != nil {
				return err
			}

			jsonSink := report.JSONSink{Dir: cfg.Eval.OutputDir}
			csvSink := report.CSVSink{Dir: cfg.Eval.OutputDir}
			sinks := []evaluate.Sink{jsonSink, csvSink}
			var hlog *report.HallucinationLog
			if !noLog && cfg.Eval.HallucinationLog != "" {
				hlog = report.NewHallucinationLog(cfg.Eval.HallucinationLog)
				sinks = append(sinks, hlog)
			}

			svc := evaluate.New(a.ask, evaluate.Options{
				Workers:            cfg.Eval.Workers,
				Mode:               modeOverride,
				RiskThreshold:      cfg.Confidence.RiskThreshold,
				RelevanceThreshold: cfg.Eval.RelevanceThreshold,
				Ragas:              cfg.Eval.Ragas,
			}, c.logger.Named("evaluate"), sinks...)

			rep, err := svc.Run(cmd.Context(), set, newProgress(cmd.ErrOrStderr(), "Evaluating").Update)
			if rep == nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSummary(out, rep)
			fmt.Fprintf(out, "\nReport:  %s\n", jsonSink.Path(rep))
			fmt.Fprintf(out, "Details: %s\n", csvSink.Path(rep))
			if hlog != nil && rep.Summary.OverThreshold > 0 {
				fmt.Fprintf(out, "Hallucination log: %s\n", hlog.Path())
			}
			if err != nil {
				c.logger.Error("evaluation finished with errors", zap.Error(err))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&modeOverride, "mode", "m", "", "override the test set response mode")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "concurrent cases")
	cmd.Flags().BoolVar(&ragas, "ragas", false, "add answer relevancy and context MRR")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "report directory (default from config)")
	cmd.Flags().BoolVar(&noLog, "no-log", false, "do not append to the hallucination log")
	return cmd
}

func printSummary(out io.Writer, r *evaluate.Report) {
	s := &r.Summary
	fmt.Fprintf(out, "\nEvaluation %s (%s, mode %s) in %.1fs\n", r.RunID, r.TestSetName, r.Mode, r.Duration)
	fmt.Fprintf(out, "Cases: %d  succeeded: %d  failed: %d  over risk threshold %.2f: %d\n",
		s.Cases, s.Succeeded, s.Failed, s.RiskThreshold, s.OverThreshold)

	names := make([]string, 0, len(s.Metrics))
	for n := range s.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintf(out, "\n%-20s %8s %8s %8s %8s %8s\n", "metric", "mean", "std", "min", "median", "max")
	for _, n := range names {
		m := s.Metrics[n]
		fmt.Fprintf(out, "%-20s %8.3f %8.3f %8.3f %8.3f %8.3f\n", n, m.Mean, m.Std, m.Min, m.Median, m.Max)
	}

	if len(s.ByQuestionType) == 0 {
		return
	}
	types := make([]string, 0, len(s.ByQuestionType))
	for t := range s.ByQuestionType {
		types = append(types, t)
	}
	sort.Strings(types)
	fmt.Fprintf(out, "\nBy question type:\n")
	for _, t := range types {
		g := s.ByQuestionType[t]
		fmt.Fprintf(out, "  %-16s n=%d", t, g.Count)
		keys := make([]string, 0, len(g.Means))
		for k := range g.Means {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s=%.3f", k, g.Means[k])
		}
		fmt.Fprintln(out)
	}
}
