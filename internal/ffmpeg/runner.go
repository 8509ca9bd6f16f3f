package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"time"
)

var (
	// ErrRenderFailed marks a non-zero compositor exit. The wrapped message
	// carries the tail of the diagnostic output.
	ErrRenderFailed = errors.New("render failed")

	// ErrRenderTimedOut marks a compositor run killed by the wall-clock
	// timeout, distinct from an ordinary failure.
	ErrRenderTimedOut = errors.New("render timed out")
)

// stderrTailBytes limits how much subprocess diagnostic output ends up in
// user-visible errors.
const stderrTailBytes = 500

// Run executes a compiled invocation with a hard wall-clock timeout.
func Run(ctx context.Context, inv *Invocation, timeout time.Duration) error {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := inv.Args()
	log.Printf("[FFmpeg] Rendering %s (%d args, %.1fs output)", inv.OutputPath, len(args), inv.TotalDuration)

	cmd := exec.CommandContext(runCtx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %s", ErrRenderTimedOut, timeout)
	}

	return fmt.Errorf("%w: %v: %s", ErrRenderFailed, err, tail(stderr.String(), stderrTailBytes))
}

// tail returns the last n bytes of s; render diagnostics put the useful
// error at the end of a long log.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
