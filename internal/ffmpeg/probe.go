package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrProbeFailed marks a probe subprocess error or unparseable output.
var ErrProbeFailed = errors.New("probe failed")

// ProbeDuration returns the duration of a media file in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe %s: %v", ErrProbeFailed, path, err)
	}

	return parseDuration(string(output))
}

// parseDuration parses the probe utility's single numeric stdout line.
func parseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable duration %q", ErrProbeFailed, s)
	}
	return sec, nil
}

// ProbeFormat inspects a rendered file and returns the raw JSON description
// of its container format and streams. Used to validate output artifacts.
func ProbeFormat(ctx context.Context, path string) (string, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=format_name,duration:stream=codec_name,codec_type,width,height",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: ffprobe %s: %v", ErrProbeFailed, path, err)
	}

	return string(output), nil
}
