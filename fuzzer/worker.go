// Package fuzzer runs the per-worker fuzz loop and the fleet that owns
// it, wired to a per-execution timeout and a cancellable context.
package fuzzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"syscall"
	"time"

	"github.com/0xca7/grampus-go/corpus"
	"github.com/0xca7/grampus-go/fingerprint"
	"github.com/0xca7/grampus-go/iohelper"
	"github.com/0xca7/grampus-go/mutate"
	"github.com/0xca7/grampus-go/rng"
	"github.com/0xca7/grampus-go/schedule"
	"github.com/0xca7/grampus-go/stats"
)

// crashSignals is the set of terminating signals recorded as a crash.
// Every other signal, and every non-zero exit without a signal, is
// logged but not counted.
var crashSignals = map[syscall.Signal]bool{
	syscall.SIGILL:  true,
	syscall.SIGABRT: true,
	syscall.SIGBUS:  true,
	syscall.SIGSEGV: true,
}

// Worker runs one fleet member's fuzz loop. Every field except Stats
// is owned exclusively by the worker goroutine.
type Worker struct {
	ID       uint32
	Corpus   *corpus.Corpus
	Target   string
	Stats    *stats.Stats
	Timeout  time.Duration
	InputDir string
	CrashDir string

	prng      *rng.Source
	scheduler *schedule.Scheduler
	mutator   *mutate.Mutator
	maxDepth  int
}

// NewWorker constructs a Worker. seed must be non-zero and, across a
// fleet, distinct from every other worker's seed.
func NewWorker(id uint32, c *corpus.Corpus, target string, st *stats.Stats, timeout time.Duration, inputDir, crashDir string, maxIterationsPerCycle, maxMutationStackDepth int, seed uint64) (*Worker, error) {
	prng, err := rng.New(seed)
	if err != nil {
		return nil, fmt.Errorf("fuzzer: worker %d: %w", id, err)
	}
	return &Worker{
		ID:        id,
		Corpus:    c,
		Target:    target,
		Stats:     st,
		Timeout:   timeout,
		InputDir:  inputDir,
		CrashDir:  crashDir,
		prng:      prng,
		scheduler: schedule.New(maxIterationsPerCycle),
		mutator:   mutate.New(mutate.Deterministic, maxMutationStackDepth),
		maxDepth:  maxMutationStackDepth,
	}, nil
}

// Run executes the worker's fuzz loop until ctx is cancelled.
// Per-iteration failures are logged and the loop continues; Run only
// returns an error for a construction failure local to this worker.
func (w *Worker) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := w.Corpus.Generate(); err != nil {
			return fmt.Errorf("fuzzer: worker %d: %w", w.ID, err)
		}

		for ctx.Err() == nil {
			changed, regime := w.scheduler.Next()
			if changed {
				if regime == schedule.Regenerate {
					w.Stats.IncCycles()
					break
				}
				w.mutator = mutate.New(regimeFlavor(regime), w.maxDepth)
			}

			input := w.Corpus.RandomInput()
			mutated := w.mutator.Mutate(w.prng, input)

			path, err := iohelper.WriteInputFile(w.InputDir, w.ID, mutated)
			if err != nil {
				log.Printf("worker %d: write input file: %v", w.ID, err)
				continue
			}

			signal, err := w.execute(ctx, path)
			if err != nil {
				log.Printf("worker %d: child wait: %v", w.ID, err)
				w.Stats.IncCases()
				continue
			}
			w.classify(signal, mutated)
			w.Stats.IncCases()
		}
	}
	return nil
}

// execute spawns the target with inputPath as its sole argument,
// redirects its stdout/stderr to the null sink, and waits for it to
// exit under a per-execution deadline derived from ctx. It returns the
// terminating signal number, or 0 if the child exited without one
// (including on timeout, which is logged and treated as no signal).
func (w *Worker) execute(ctx context.Context, inputPath string) (int, error) {
	return w.executeCommand(ctx, w.Target, []string{inputPath})
}

// executeCommand is execute with the command and its arguments made
// explicit, so tests can exercise the signal/timeout classification
// without a real fuzz target binary.
func (w *Worker) executeCommand(ctx context.Context, name string, args []string) (int, error) {
	execCtx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	err := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		log.Printf("worker %d: target timed out after %s", w.ID, w.Timeout)
		return 0, nil
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return int(ws.Signal()), nil
		}
		// Non-zero exit without a signal: logged, not a crash.
		log.Printf("worker %d: target exited with status %d (not classified as a crash)", w.ID, exitErr.ExitCode())
		return 0, nil
	}
	return 0, err
}

// classify records a crash for a signal in crashSignals, or logs any
// other signal.
func (w *Worker) classify(signal int, mutated []byte) {
	if signal == 0 {
		return
	}
	if !crashSignals[syscall.Signal(signal)] {
		log.Printf("worker %d: target terminated by signal %d (not classified as a crash)", w.ID, signal)
		return
	}

	hash := fingerprint.Hash(mutated)
	meta := iohelper.CrashMeta{
		WorkerID:   w.ID,
		Regime:     w.scheduler.Regime().String(),
		Signal:     signal,
		InputLen:   len(mutated),
		CapturedAt: time.Now(),
	}
	if err := iohelper.WriteCrashFile(w.CrashDir, hash, mutated, meta); err != nil {
		log.Printf("worker %d: write crash file: %v", w.ID, err)
		return
	}
	w.Stats.IncCrashes()
}

func regimeFlavor(r schedule.Regime) mutate.Flavor {
	switch r {
	case schedule.NonDeterministic:
		return mutate.NonDeterministic
	case schedule.BitWalk:
		return mutate.BitWalkFlavor
	default:
		return mutate.Deterministic
	}
}
