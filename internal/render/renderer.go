package render

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openreel/reelrender/internal/assets"
	"github.com/openreel/reelrender/internal/ffmpeg"
	"github.com/openreel/reelrender/internal/models"
	"github.com/openreel/reelrender/internal/slide"
	"github.com/openreel/reelrender/internal/timeline"
)

// ---------------------------------------------------------------------------
// Render orchestration
//
// One Render call takes a request from declared assets to a delivered video:
// resolve inputs into a scratch directory, probe the voiceover, synthesize
// the branding slide, assemble the timeline, compile and run the compositor,
// validate the artifact, and publish it. The scratch directory is removed
// whatever the outcome.
// ---------------------------------------------------------------------------

var (
	// ErrInvalidOutput marks a rendered file that is missing, truncated or
	// not a playable container.
	ErrInvalidOutput = errors.New("invalid render output")

	// ErrUploadFailed marks a publish failure after a successful render.
	ErrUploadFailed = errors.New("upload failed")
)

const (
	// Renders that run longer than this are killed rather than left to
	// occupy a worker slot.
	defaultRenderTimeout = 9 * time.Minute

	// Anything smaller than this is a header stub, not a video.
	minOutputBytes = 1000
)

// Uploader publishes a rendered file and returns its public URL.
type Uploader interface {
	UploadVideo(ctx context.Context, localPath, renderID string) (string, error)
}

// Result is the terminal output of a successful render.
type Result struct {
	VideoURL string
	RenderID string
}

type Renderer struct {
	resolver *assets.Resolver
	slides   *slide.Synthesizer
	uploader Uploader // nil = inline the video as a data URI
	workDir  string
	timeout  time.Duration
}

func New(resolver *assets.Resolver, slides *slide.Synthesizer, uploader Uploader, workDir string, timeout time.Duration) *Renderer {
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	return &Renderer{
		resolver: resolver,
		slides:   slides,
		uploader: uploader,
		workDir:  workDir,
		timeout:  timeout,
	}
}

// resolved holds the local paths of all materialized assets for one job.
type resolved struct {
	voiceover   string
	music       string
	subtitles   string
	logo        string
	singleVideo string
	clips       []timeline.Clip
	segments    []timeline.ImageSegment
	placeholder string
}

// Render executes the full pipeline for one request. renderID namespaces the
// scratch directory and the published artifact.
func (r *Renderer) Render(ctx context.Context, renderID string, req models.RenderRequest) (*Result, error) {
	scratch := filepath.Join(r.workDir, "render_"+shortID(renderID))
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	log.Printf("[Render] %s: resolving assets into %s", renderID, scratch)

	res, err := r.resolveAssets(ctx, scratch, req)
	if err != nil {
		return nil, err
	}

	// The voiceover anchors all pacing; an unprobeable voiceover is fatal.
	voDuration, err := ffmpeg.ProbeDuration(ctx, res.voiceover)
	if err != nil {
		return nil, fmt.Errorf("voiceover duration: %w", err)
	}
	log.Printf("[Render] %s: voiceover %.2fs", renderID, voDuration)

	slidePath := r.synthesizeSlide(scratch, req, res.logo)

	tl := timeline.Build(timeline.BuildInput{
		Clips:             res.clips,
		SingleVideoPath:   res.singleVideo,
		ImageSegments:     res.segments,
		FallbackImagePath: res.placeholder,
		SlidePath:         slidePath,
		VoiceoverDuration: voDuration,
	})

	// Reconciliation guarantees the picture covers the narration; the
	// compositor clamps the output to exactly this duration.
	total := tl.TotalDuration()

	outputPath := filepath.Join(scratch, "output.mp4")
	inv, err := ffmpeg.Compile(tl, ffmpeg.AudioSources{
		VoiceoverPath: res.voiceover,
		MusicPath:     res.music,
	}, res.subtitles, total, outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter graph: %w", err)
	}

	if err := ffmpeg.Run(ctx, inv, r.timeout); err != nil {
		return nil, err
	}

	if err := validateOutput(ctx, outputPath); err != nil {
		return nil, err
	}

	url, err := r.publish(ctx, outputPath, renderID)
	if err != nil {
		return nil, err
	}

	log.Printf("[Render] %s: complete (%.1fs video)", renderID, total)
	return &Result{VideoURL: url, RenderID: renderID}, nil
}

// resolveAssets materializes every declared input. The voiceover is strict;
// everything else substitutes a deterministic fallback so a broken optional
// asset degrades the render instead of failing it.
func (r *Renderer) resolveAssets(ctx context.Context, scratch string, req models.RenderRequest) (*resolved, error) {
	res := &resolved{placeholder: filepath.Join(scratch, "black.png")}
	if err := assets.WritePlaceholder(res.placeholder, ffmpeg.FrameWidth, ffmpeg.FrameHeight); err != nil {
		return nil, fmt.Errorf("failed to write placeholder: %w", err)
	}

	res.clips = make([]timeline.Clip, len(req.AnimatedVideoURLs))
	res.segments = make([]timeline.ImageSegment, len(req.Segments))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		path, err := r.resolver.Resolve(gctx, req.VoiceoverURL, filepath.Join(scratch, "voiceover.mp3"))
		if err != nil {
			return fmt.Errorf("voiceover: %w", err)
		}
		res.voiceover = path
		return nil
	})

	// Optional assets the caller did not declare are skipped outright:
	// only a descriptor that was provided and failed is worth a
	// substitution log line.
	if req.MusicURL != "" {
		g.Go(func() error {
			res.music, _ = r.resolver.ResolveWithPolicy(gctx, req.MusicURL, filepath.Join(scratch, "music.mp3"), assets.Tolerant, "")
			return nil
		})
	}

	if req.SubtitlesURL != "" {
		g.Go(func() error {
			res.subtitles, _ = r.resolver.ResolveWithPolicy(gctx, req.SubtitlesURL, filepath.Join(scratch, "subtitles.srt"), assets.Tolerant, "")
			return nil
		})
	}

	// The logo's only consumer is the branding slide.
	if logoURL := req.PrimaryLogoURL(); logoURL != "" && req.Branding != nil {
		g.Go(func() error {
			res.logo, _ = r.resolver.ResolveWithPolicy(gctx, logoURL, filepath.Join(scratch, "logo"), assets.Tolerant, "")
			return nil
		})
	}

	// A failed single video is omitted rather than substituted: a looped
	// placeholder still costs a full decode pipeline, while omission lets
	// the timeline fall through to the image modes.
	if req.AnimatedVideoURL != "" {
		g.Go(func() error {
			res.singleVideo, _ = r.resolver.ResolveWithPolicy(gctx, req.AnimatedVideoURL, filepath.Join(scratch, "single.mp4"), assets.Tolerant, "")
			return nil
		})
	}

	for i, clip := range req.AnimatedVideoURLs {
		i, clip := i, clip
		g.Go(func() error {
			kind := timeline.KindVideo
			ext := ".mp4"
			if clip.ResolvedKind() == models.ClipKindImage {
				kind = timeline.KindImage
				ext = ".png"
			}

			dest := filepath.Join(scratch, fmt.Sprintf("clip_%d%s", i, ext))
			path, _ := r.resolver.ResolveWithPolicy(gctx, clip.CleanURL(), dest, assets.Tolerant, res.placeholder)
			if path == res.placeholder {
				// Substituted clips render as a still so the slot keeps
				// its share of the timeline.
				kind = timeline.KindImage
			}
			res.clips[i] = timeline.Clip{Path: path, Kind: kind}
			return nil
		})
	}

	for i, seg := range req.Segments {
		i, seg := i, seg
		g.Go(func() error {
			dest := filepath.Join(scratch, fmt.Sprintf("segment_%d.png", i))
			path, _ := r.resolver.ResolveWithPolicy(gctx, seg.ImageURL, dest, assets.Tolerant, res.placeholder)
			res.segments[i] = timeline.ImageSegment{Path: path, Start: seg.Start, End: seg.End}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// synthesizeSlide renders the branding outro. Only a branding object
// produces a slide; a bare legacy logo_url feeds the slide's logo when
// branding is present but never creates one on its own. A synthesis
// failure drops the slide with a log line.
func (r *Renderer) synthesizeSlide(scratch string, req models.RenderRequest, logoPath string) string {
	if req.Branding == nil {
		return ""
	}

	spec := slide.Spec{
		BusinessName: req.Branding.BusinessName,
		Address:      req.Branding.Address,
		Hours:        req.Branding.Hours,
		Phone:        req.Branding.Phone,
		Email:        req.Branding.Email,
	}

	slidePath := filepath.Join(scratch, "slide.png")
	if err := r.slides.Synthesize(spec, logoPath, slidePath); err != nil {
		log.Printf("[Render] Slide synthesis failed, rendering without outro: %v", err)
		return ""
	}
	return slidePath
}

// validateOutput rejects artifacts the compositor produced but that no
// player would accept.
func validateOutput(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if info.Size() < minOutputBytes {
		return fmt.Errorf("%w: only %d bytes", ErrInvalidOutput, info.Size())
	}

	if _, err := ffmpeg.ProbeFormat(ctx, path); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return nil
}

// publish hands the artifact to the configured uploader, or inlines it as a
// data URI when no media host is configured.
func (r *Renderer) publish(ctx context.Context, outputPath, renderID string) (string, error) {
	if r.uploader == nil {
		return fileToDataURI(outputPath)
	}

	url, err := r.uploader.UploadVideo(ctx, outputPath, renderID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return url, nil
}

func fileToDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read rendered video: %w", err)
	}
	return "data:video/mp4;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
