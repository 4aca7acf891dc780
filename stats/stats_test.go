package stats

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCountersAreMonotone(t *testing.T) {
	s := New()
	s.IncCases()
	s.IncCases()
	s.IncCrashes()
	s.IncCycles()

	var buf bytes.Buffer
	if err := s.Display(&buf, 1, time.Second); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"[total]     2", "[crashes]   1", "[cycles]    1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("panel %q does not contain %q", out, want)
		}
	}
}

func TestFCPSIsZeroForFirstSecond(t *testing.T) {
	s := New()
	s.IncCases()

	var buf bytes.Buffer
	if err := s.Display(&buf, 0, 0); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[fcps]      0") {
		t.Fatalf("expected fcps 0 for a zero-second elapsed window, got %q", buf.String())
	}
}

func TestConcurrentIncrementsDoNotRace(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.IncCases()
			}
		}()
	}
	wg.Wait()

	var buf bytes.Buffer
	if err := s.Display(&buf, 1, time.Second); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[total]     5000") {
		t.Fatalf("expected 5000 total cases, got %q", buf.String())
	}
}
