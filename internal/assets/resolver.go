package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Asset resolution
//
// Every declared input — voiceover, music, subtitles, images, clips, logo —
// arrives as either a remote URL or an inline base64 data URI and is
// materialized into the job's scratch directory. The failure policy is the
// caller's choice: the mandatory voiceover resolves strictly, everything
// else tolerates failure with a deterministic substitute.
// ---------------------------------------------------------------------------

var (
	// ErrInvalidPayload marks an empty/undefined descriptor or a malformed
	// inline payload.
	ErrInvalidPayload = errors.New("invalid asset payload")

	// ErrFetchFailed marks a network error or non-2xx response.
	ErrFetchFailed = errors.New("asset fetch failed")
)

// Policy selects how resolution failures propagate.
type Policy int

const (
	// Strict propagates the error to the caller.
	Strict Policy = iota

	// Tolerant substitutes the provided fallback (or absence) and logs it.
	Tolerant
)

const fetchTimeout = 60 * time.Second

type Resolver struct {
	client *http.Client
}

func NewResolver() *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Resolve materializes a descriptor into dest and returns the local path.
func (r *Resolver) Resolve(ctx context.Context, descriptor, dest string) (string, error) {
	if descriptor == "" || strings.EqualFold(descriptor, "undefined") {
		return "", fmt.Errorf("%w: empty descriptor", ErrInvalidPayload)
	}

	if strings.HasPrefix(descriptor, "data:") {
		return r.decodeInline(descriptor, dest)
	}

	return r.fetch(ctx, descriptor, dest)
}

// ResolveWithPolicy applies the failure policy uniformly: under Strict the
// error propagates; under Tolerant the fallback path is substituted (empty
// fallback means the asset is simply absent) and the substitution is logged.
func (r *Resolver) ResolveWithPolicy(ctx context.Context, descriptor, dest string, policy Policy, fallback string) (string, error) {
	path, err := r.Resolve(ctx, descriptor, dest)
	if err == nil {
		return path, nil
	}

	if policy == Strict {
		return "", err
	}

	if fallback != "" {
		log.Printf("[Assets] %s unresolvable (%v), substituting fallback", truncateDescriptor(descriptor), err)
	} else {
		log.Printf("[Assets] %s unresolvable (%v), omitting", truncateDescriptor(descriptor), err)
	}
	return fallback, nil
}

func (r *Resolver) decodeInline(descriptor, dest string) (string, error) {
	_, payload, found := strings.Cut(descriptor, ",")
	if !found {
		return "", fmt.Errorf("%w: data URI missing payload", ErrInvalidPayload)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write decoded payload: %w", err)
	}

	return dest, nil
}

func (r *Resolver) fetch(ctx context.Context, url, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d for %s", ErrFetchFailed, resp.StatusCode, truncateDescriptor(url))
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create asset file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return dest, nil
}

// WritePlaceholder writes a solid-black PNG used as the deterministic
// visual fallback, so a failed image keeps its slot in the timeline instead
// of shifting everything after it.
func WritePlaceholder(path string, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	black := color.RGBA{A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, black)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create placeholder: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return nil
}

// truncateDescriptor keeps long URLs and data URIs out of the logs.
func truncateDescriptor(d string) string {
	if len(d) <= 80 {
		return d
	}
	return d[:80] + "..."
}
