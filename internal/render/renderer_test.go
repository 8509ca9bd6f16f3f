package render

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openreel/reelrender/internal/assets"
	"github.com/openreel/reelrender/internal/models"
	"github.com/openreel/reelrender/internal/slide"
	"github.com/openreel/reelrender/internal/timeline"
)

func newTestRenderer(t *testing.T, up Uploader) *Renderer {
	t.Helper()
	return New(assets.NewResolver(), slide.NewSynthesizer(""), up, t.TempDir(), time.Minute)
}

func inlineURI(payload string) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestResolveAssetsStrictVoiceover(t *testing.T) {
	r := newTestRenderer(t, nil)
	scratch := t.TempDir()

	_, err := r.resolveAssets(context.Background(), scratch, models.RenderRequest{
		VoiceoverURL: "undefined",
	})
	if err == nil {
		t.Fatal("missing voiceover must fail the job")
	}
	if !errors.Is(err, assets.ErrInvalidPayload) {
		t.Errorf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestResolveAssetsSubstitutesBrokenSegment(t *testing.T) {
	r := newTestRenderer(t, nil)
	scratch := t.TempDir()

	res, err := r.resolveAssets(context.Background(), scratch, models.RenderRequest{
		VoiceoverURL: inlineURI("vo"),
		Segments: []models.SegmentInput{
			{ImageURL: inlineURI("img"), Start: 0, End: 5},
			{ImageURL: "undefined", Start: 5, End: 10},
		},
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if len(res.segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.segments))
	}
	// The broken slot keeps its position and window, backed by the
	// placeholder image.
	if res.segments[1].Path != res.placeholder {
		t.Errorf("expected placeholder path, got %q", res.segments[1].Path)
	}
	if res.segments[1].Start != 5 || res.segments[1].End != 10 {
		t.Errorf("substitution must preserve the authored window")
	}
}

func TestResolveAssetsClipKinds(t *testing.T) {
	r := newTestRenderer(t, nil)
	scratch := t.TempDir()

	res, err := r.resolveAssets(context.Background(), scratch, models.RenderRequest{
		VoiceoverURL: inlineURI("vo"),
		AnimatedVideoURLs: []models.ClipInput{
			{URL: inlineURI("clip"), Kind: models.ClipKindVideo},
			{URL: inlineURI("still"), Kind: models.ClipKindImage},
			{URL: "undefined"}, // unresolvable, becomes a placeholder still
		},
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if res.clips[0].Kind != timeline.KindVideo {
		t.Errorf("declared video clip, got %s", res.clips[0].Kind)
	}
	if res.clips[1].Kind != timeline.KindImage {
		t.Errorf("declared image clip, got %s", res.clips[1].Kind)
	}
	if res.clips[2].Path != res.placeholder || res.clips[2].Kind != timeline.KindImage {
		t.Errorf("substituted clip must be a placeholder still, got %+v", res.clips[2])
	}
}

func TestResolveAssetsSkipsAbsentOptionals(t *testing.T) {
	// Undeclared optional assets are absent, not "failed": no resolution
	// attempt, no substitution.
	r := newTestRenderer(t, nil)
	scratch := t.TempDir()

	res, err := r.resolveAssets(context.Background(), scratch, models.RenderRequest{
		VoiceoverURL: inlineURI("vo"),
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if res.music != "" || res.subtitles != "" || res.logo != "" || res.singleVideo != "" {
		t.Errorf("absent optionals must stay empty, got %+v", res)
	}
	if res.voiceover == "" {
		t.Error("voiceover must still resolve")
	}
}

func TestSynthesizeSlideOnlyWithBranding(t *testing.T) {
	r := newTestRenderer(t, nil)
	scratch := t.TempDir()

	if path := r.synthesizeSlide(scratch, models.RenderRequest{}, ""); path != "" {
		t.Errorf("no branding must produce no slide, got %q", path)
	}

	// A bare legacy logo without a branding object appends no outro
	legacy := models.RenderRequest{LogoURL: "https://cdn.example/logo.png"}
	if path := r.synthesizeSlide(scratch, legacy, "/tmp/logo.png"); path != "" {
		t.Errorf("legacy logo alone must produce no slide, got %q", path)
	}

	path := r.synthesizeSlide(scratch, models.RenderRequest{
		Branding: &models.Branding{BusinessName: "Corner Bakery"},
	}, "")
	if path == "" {
		t.Fatal("branding must produce a slide")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("slide file missing: %v", err)
	}
}

func TestValidateOutputRejectsStub(t *testing.T) {
	dir := t.TempDir()

	// Missing file
	err := validateOutput(context.Background(), filepath.Join(dir, "missing.mp4"))
	if !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("expected ErrInvalidOutput for missing file, got %v", err)
	}

	// Truncated file
	stub := filepath.Join(dir, "stub.mp4")
	os.WriteFile(stub, []byte("tiny"), 0644)
	err = validateOutput(context.Background(), stub)
	if !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("expected ErrInvalidOutput for stub file, got %v", err)
	}
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) UploadVideo(ctx context.Context, localPath, renderID string) (string, error) {
	return f.url, f.err
}

func TestPublishWithUploader(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mp4")
	os.WriteFile(out, []byte("video bytes"), 0644)

	r := newTestRenderer(t, &fakeUploader{url: "https://media.example/renders/r1.mp4"})
	url, err := r.publish(context.Background(), out, "r1")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if url != "https://media.example/renders/r1.mp4" {
		t.Errorf("unexpected URL %q", url)
	}
}

func TestPublishUploadFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mp4")
	os.WriteFile(out, []byte("video bytes"), 0644)

	r := newTestRenderer(t, &fakeUploader{err: errors.New("boom")})
	_, err := r.publish(context.Background(), out, "r1")
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("expected ErrUploadFailed, got %v", err)
	}
}

func TestPublishInlineFallback(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mp4")
	os.WriteFile(out, []byte("video bytes"), 0644)

	r := newTestRenderer(t, nil)
	url, err := r.publish(context.Background(), out, "r1")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if !strings.HasPrefix(url, "data:video/mp4;base64,") {
		t.Fatalf("expected data URI, got %q", url)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:video/mp4;base64,"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if string(decoded) != "video bytes" {
		t.Error("inline payload differs from rendered file")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("got %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("short IDs pass through, got %q", got)
	}
}
