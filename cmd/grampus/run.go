package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xca7/grampus-go/config"
	"github.com/0xca7/grampus-go/corpus"
	"github.com/0xca7/grampus-go/fuzzer"
	"github.com/0xca7/grampus-go/grammar"
	"github.com/0xca7/grampus-go/iohelper"
)

func runRoot(cmd *cobra.Command, args []string) error {
	if *rootFlags.grammar == "" {
		return fmt.Errorf("grampus: -g/--grammar is required")
	}
	if *rootFlags.start == "" {
		return fmt.Errorf("grampus: -s/--start is required")
	}
	if *rootFlags.mode != "fuzz" && *rootFlags.mode != "gen" {
		return fmt.Errorf("grampus: -m/--mode must be %q or %q", "fuzz", "gen")
	}
	if *rootFlags.mode == "fuzz" && *rootFlags.target == "" {
		return fmt.Errorf("grampus: -t/--target is required in fuzz mode")
	}

	cfg, err := config.Load(*rootFlags.config)
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(&cfg); err != nil {
		return err
	}

	g, err := grammar.ParseFile(*rootFlags.grammar)
	if err != nil {
		return err
	}
	if *rootFlags.start != g.StartSymbol {
		return fmt.Errorf("grampus: start symbol %q does not match the grammar's first production %q", *rootFlags.start, g.StartSymbol)
	}

	if *rootFlags.mode == "gen" {
		return runGen(g, cfg)
	}
	return runFuzz(g, cfg)
}

// applyFlagOverrides merges any explicitly set CLI flag onto cfg,
// taking precedence over both the config file and the built-in
// defaults.
func applyFlagOverrides(cfg *config.Config) error {
	if *rootFlags.workers > 0 {
		cfg.Workers = *rootFlags.workers
	}
	if *rootFlags.maxExpand > 0 {
		cfg.MaxExpansion = *rootFlags.maxExpand
	}
	if *rootFlags.forestSize > 0 {
		cfg.ForestSize = *rootFlags.forestSize
	}
	if *rootFlags.timeout != "" {
		d, err := time.ParseDuration(*rootFlags.timeout)
		if err != nil {
			return fmt.Errorf("grampus: invalid --timeout %q: %w", *rootFlags.timeout, err)
		}
		cfg.Timeout = d
	}
	if *rootFlags.corpusDir != "" {
		cfg.CorpusDir = *rootFlags.corpusDir
	}
	if *rootFlags.crashDir != "" {
		cfg.CrashDir = *rootFlags.crashDir
	}
	if *rootFlags.inputDir != "" {
		cfg.InputDir = *rootFlags.inputDir
	}
	return nil
}

// runGen implements gen mode: generate the corpus once and write each
// sentence to its own file, then exit.
func runGen(g *grammar.Grammar, cfg config.Config) error {
	c, err := corpus.New(g, g.StartSymbol, cfg.MaxExpansion, cfg.ForestSize, fuzzer.Seed(0))
	if err != nil {
		return err
	}
	if err := c.Generate(); err != nil {
		return err
	}
	if err := iohelper.WriteCorpusFiles(cfg.CorpusDir, c.Inputs()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %d corpus files to %s\n", c.Len(), cfg.CorpusDir)
	return nil
}

// runFuzz implements fuzz mode: start the worker fleet and block until
// it is cancelled by SIGINT/SIGTERM.
func runFuzz(g *grammar.Grammar, cfg config.Config) error {
	if _, err := os.Stat(*rootFlags.target); err != nil {
		return fmt.Errorf("grampus: target executable %s does not exist: %w", *rootFlags.target, err)
	}

	fleet := fuzzer.New(fuzzer.Config{
		Workers:               cfg.Workers,
		Target:                *rootFlags.target,
		MaxExpansion:          cfg.MaxExpansion,
		ForestSize:            cfg.ForestSize,
		MaxIterationsPerCycle: cfg.MaxIterationsPerCycle,
		MaxMutationStackDepth: cfg.MaxMutationStackDepth,
		Timeout:               cfg.Timeout,
		InputDir:              cfg.InputDir,
		CrashDir:              cfg.CrashDir,
	})
	return fleet.Run(context.Background(), g, g.StartSymbol)
}
