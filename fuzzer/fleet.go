package fuzzer

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/0xca7/grampus-go/corpus"
	"github.com/0xca7/grampus-go/grammar"
	"github.com/0xca7/grampus-go/stats"
)

// Config collects the fleet-wide parameters a Fleet needs to spin up
// its workers; cmd/grampus builds one from config.Config merged with
// its CLI flag overrides.
type Config struct {
	Workers               int
	Target                string
	MaxExpansion          int
	ForestSize            int
	MaxIterationsPerCycle int
	MaxMutationStackDepth int
	Timeout               time.Duration
	InputDir              string
	CrashDir              string
}

// Fleet owns the worker pool and the stats supervisor.
type Fleet struct {
	cfg   Config
	stats *stats.Stats
}

// New constructs a Fleet with a fresh Stats.
func New(cfg Config) *Fleet {
	return &Fleet{cfg: cfg, stats: stats.New()}
}

// Run clones a template Corpus for each of cfg.Workers workers, starts
// them alongside a one-second stats supervisor under
// golang.org/x/sync/errgroup, and blocks until every goroutine returns
// or ctx is cancelled by SIGINT/SIGTERM.
func (f *Fleet) Run(ctx context.Context, g *grammar.Grammar, startSymbol string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tmpl, err := corpus.New(g, startSymbol, f.cfg.MaxExpansion, f.cfg.ForestSize, 1)
	if err != nil {
		return fmt.Errorf("fuzzer: %w", err)
	}

	group, gctx := errgroup.WithContext(ctx)

	for i := 0; i < f.cfg.Workers; i++ {
		id := uint32(i)
		seed := Seed(id)

		c, err := tmpl.Clone(seed)
		if err != nil {
			return fmt.Errorf("fuzzer: clone corpus for worker %d: %w", id, err)
		}
		worker, err := NewWorker(id, c, f.cfg.Target, f.stats, f.cfg.Timeout, f.cfg.InputDir, f.cfg.CrashDir, f.cfg.MaxIterationsPerCycle, f.cfg.MaxMutationStackDepth, seed+1)
		if err != nil {
			return err
		}
		group.Go(func() error {
			return worker.Run(gctx)
		})
	}

	group.Go(func() error {
		return runSupervisor(gctx, f.stats)
	})

	return group.Wait()
}

// Seed combines a nanosecond clock read with the worker id, so workers
// started at the same instant still receive distinct seeds. Each
// worker's own Corpus clone uses this seed and the worker's mutation
// PRNG uses seed+1; ids are spaced by two so the two streams stay
// distinct across the whole fleet even for identical clock reads.
// cmd/grampus's gen mode uses it too, so repeated -m gen invocations
// draw a fresh forest instead of a literal constant.
func Seed(id uint32) uint64 {
	seed := uint64(time.Now().UnixNano()) + 2*uint64(id) + 1
	if seed == 0 {
		seed = 2*uint64(id) + 1
	}
	return seed
}

// runSupervisor prints the stats panel once a second until ctx is
// cancelled.
func runSupervisor(ctx context.Context, st *stats.Stats) error {
	start := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var seconds uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			seconds++
			fmt.Print("\033[2J\033[H")
			if err := st.Display(os.Stdout, seconds, time.Since(start)); err != nil {
				return fmt.Errorf("fuzzer: display stats: %w", err)
			}
		}
	}
}
