// Package iohelper writes the three kinds of files the fuzzer
// persists: per-worker input files, crash files (plus a CBOR metadata
// sidecar), and gen-mode corpus files.
package iohelper

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// WriteInputFile overwrites the per-worker input file under dir, named
// by the worker's id in lowercase hex, with content's raw bytes.
func WriteInputFile(dir string, workerID uint32, content []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("iohelper: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%02x.txt", workerID))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("iohelper: write input file: %w", err)
	}
	return path, nil
}

// CrashMeta is the sidecar record written alongside every crash file.
// It never gates or changes the crash file's name or content.
type CrashMeta struct {
	WorkerID   uint32    `cbor:"worker_id"`
	Regime     string    `cbor:"regime"`
	Signal     int       `cbor:"signal"`
	InputLen   int       `cbor:"input_len"`
	CapturedAt time.Time `cbor:"captured_at"`
}

// WriteCrashFile writes dir/<hash-hex>.txt with fuzz's raw bytes, and
// dir/<hash-hex>.meta.cbor with a CBOR-encoded CrashMeta.
func WriteCrashFile(dir string, hash uint64, fuzz []byte, meta CrashMeta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("iohelper: create %s: %w", dir, err)
	}
	base := filepath.Join(dir, fmt.Sprintf("%x", hash))

	if err := os.WriteFile(base+".txt", fuzz, 0o644); err != nil {
		return fmt.Errorf("iohelper: write crash file: %w", err)
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return fmt.Errorf("iohelper: build CBOR encoder: %w", err)
	}
	encoded, err := encMode.Marshal(meta)
	if err != nil {
		return fmt.Errorf("iohelper: encode crash metadata: %w", err)
	}
	if err := os.WriteFile(base+".meta.cbor", encoded, 0o644); err != nil {
		return fmt.Errorf("iohelper: write crash metadata: %w", err)
	}
	return nil
}

// WriteCorpusFiles writes one file per sentence under dir, named
// NNNN (zero-padded to 4 digits), with no trailing newline beyond what
// the grammar produced.
func WriteCorpusFiles(dir string, sentences []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("iohelper: create %s: %w", dir, err)
	}
	for i, sentence := range sentences {
		path := filepath.Join(dir, fmt.Sprintf("%04d", i))
		if err := os.WriteFile(path, []byte(sentence), 0o644); err != nil {
			return fmt.Errorf("iohelper: write corpus file %s: %w", path, err)
		}
	}
	return nil
}
