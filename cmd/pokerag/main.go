// Command pokerag indexes Pokémon documents and answers questions over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/config"
	logpkg "github.com/kailas-cloud/pokerag/internal/logger"
	"github.com/kailas-cloud/pokerag/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// cli carries state resolved once in PersistentPreRunE.
type cli struct {
	configPath string
	env        string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "pokerag",
		Short: "Hybrid facet and semantic retrieval with grounded answers over Pokémon data",
		Long: `pokerag stores Pokémon documents, narrows them by facets (type, habitat,
color, legendary status), ranks them by embedding similarity and generates an
answer with a hallucination-risk score.

Example usage:
  pokerag ingest --records 'data/pokeapi/**/*.json'
  pokerag index rebuild
  pokerag ask "Which fire type Pokémon live in mountains?" --filter type=fire
  pokerag eval testsets/basic.yaml --workers 4
  pokerag serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default is config/<env>.yaml)")
	root.PersistentFlags().StringVar(&c.env, "env", "", "environment: local, dev, docker, prod (default is $ENV or local)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level override: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(c),
		newIngestCmd(c),
		newIndexCmd(c),
		newAskCmd(c),
		newEvalCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) init() error {
	if c.env == "" {
		c.env = config.GetEnv()
	}

	var err error
	if c.configPath != "" {
		c.cfg, err = config.LoadFile(c.configPath)
	} else {
		c.cfg, err = config.Load(c.env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := c.cfg.Logging.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	c.logger, err = logpkg.New(logpkg.Options{Env: c.env, Level: level, Format: c.cfg.Logging.Format})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
