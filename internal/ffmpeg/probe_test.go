package ffmpeg

import (
	"errors"
	"math"
	"testing"
)

func TestParseDuration(t *testing.T) {
	got, err := parseDuration("45.67\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if math.Abs(got-45.67) > 1e-9 {
		t.Errorf("expected 45.67, got %f", got)
	}
}

func TestParseDurationGarbage(t *testing.T) {
	for _, in := range []string{"", "N/A\n", "not-a-number"} {
		_, err := parseDuration(in)
		if err == nil {
			t.Errorf("expected error for %q", in)
			continue
		}
		if !errors.Is(err, ErrProbeFailed) {
			t.Errorf("expected ErrProbeFailed for %q, got %v", in, err)
		}
	}
}

func TestTail(t *testing.T) {
	if got := tail("short", 500); got != "short" {
		t.Errorf("short strings pass through, got %q", got)
	}

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	got := tail(string(long), 500)
	if len(got) != 503 { // "..." + 500
		t.Errorf("expected 503 chars, got %d", len(got))
	}
}
