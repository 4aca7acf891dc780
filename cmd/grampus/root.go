package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "grampus",
	Short: "Grammar-directed, mutation-based black-box fuzzer",
	Long: `grampus derives a corpus from a context-free grammar and either
writes it to disk (-m gen) or uses it to drive a mutation-based fuzzing
fleet against a target executable (-m fuzz).`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

var rootFlags = struct {
	grammar    *string
	start      *string
	mode       *string
	target     *string
	workers    *int
	maxExpand  *int
	forestSize *int
	timeout    *string
	config     *string
	corpusDir  *string
	crashDir   *string
	inputDir   *string
}{}

func init() {
	flags := rootCmd.Flags()
	rootFlags.grammar = flags.StringP("grammar", "g", "", "grammar file (required)")
	rootFlags.start = flags.StringP("start", "s", "", "start symbol (required)")
	rootFlags.mode = flags.StringP("mode", "m", "", "fuzz|gen (required)")
	rootFlags.target = flags.StringP("target", "t", "", "target executable (required in fuzz mode)")
	rootFlags.workers = flags.IntP("workers", "w", 0, "worker count (default from config, 8 if unset)")
	rootFlags.maxExpand = flags.IntP("max-expansion", "e", 0, "expansion budget (default from config, 200 if unset)")
	rootFlags.forestSize = flags.IntP("forest-size", "n", 0, "corpus forest size (default from config, 100 if unset)")
	rootFlags.timeout = flags.String("timeout", "", "per-execution timeout, e.g. 2s (default from config)")
	rootFlags.config = flags.StringP("config", "c", "", "optional YAML configuration file")
	rootFlags.corpusDir = flags.StringP("corpus-dir", "o", "", "corpus output directory (gen mode)")
	rootFlags.crashDir = flags.String("crash-dir", "", "crash output directory (fuzz mode)")
	rootFlags.inputDir = flags.String("input-dir", "", "per-worker input directory (fuzz mode)")
}

// Execute runs the root command, returning any error it produces to
// main so the process can exit non-zero on a missing file, an invalid
// start symbol, a missing required flag, or an unknown mode.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
