package iohelper

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteInputFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteInputFile(dir, 2, []byte("first"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "02.txt" {
		t.Fatalf("path = %s, want basename 02.txt", path)
	}
	if _, err := WriteInputFile(dir, 2, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content = %q, want %q (overwrite failed)", got, "second")
	}
}

func TestWriteCrashFileWritesBytesAndSidecar(t *testing.T) {
	dir := t.TempDir()
	meta := CrashMeta{WorkerID: 1, Regime: "deterministic", Signal: 11, InputLen: 1, CapturedAt: time.Unix(0, 0)}
	if err := WriteCrashFile(dir, 0xaf63dc4c8601ec8c, []byte("a"), meta); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "af63dc4c8601ec8c.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "a" {
		t.Fatalf("crash file content = %q, want %q", raw, "a")
	}
	if _, err := os.Stat(filepath.Join(dir, "af63dc4c8601ec8c.meta.cbor")); err != nil {
		t.Fatalf("expected metadata sidecar: %v", err)
	}
}

func TestWriteCorpusFilesZeroPaddedNames(t *testing.T) {
	dir := t.TempDir()
	if err := WriteCorpusFiles(dir, []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"a", "b"} {
		got, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%04d", i)))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Fatalf("file %d content = %q, want %q", i, got, want)
		}
	}
}
