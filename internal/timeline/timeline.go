package timeline

import "log"

// ---------------------------------------------------------------------------
// Timeline assembly
//
// Turns the resolved visual assets (clips, a single looped video, or timed
// image segments) plus an optional branding slide into an ordered list of
// timed segments whose total duration covers the voiceover. The voiceover is
// the pacing anchor: the timeline is stretched to cover it, never shrunk.
// ---------------------------------------------------------------------------

type SegmentKind string

const (
	KindImage SegmentKind = "image"
	KindVideo SegmentKind = "video"
)

const (
	// MinSegmentDuration keeps degenerate start/end pairs from producing a
	// zero-frame segment, which would break the compositor's frame count.
	MinSegmentDuration = 0.1

	// SlideDuration is how long the branding conclusion slide is shown.
	SlideDuration = 4.0

	// reconcileMargin pads the extension of the last segment so the
	// voiceover never outlives the picture by a rounding error.
	reconcileMargin = 0.5
)

// VisualSegment is one unit of visible timeline content.
type VisualSegment struct {
	Kind     SegmentKind
	Source   string
	Duration float64

	// Loop marks a single full-length clip that the compositor loops to
	// cover the whole timeline instead of playing once.
	Loop bool
}

// Timeline is an ordered sequence of visual segments; insertion order is
// playback order.
type Timeline struct {
	Segments []VisualSegment
}

// TotalDuration is the sum of all segment durations.
func (t Timeline) TotalDuration() float64 {
	var sum float64
	for _, s := range t.Segments {
		sum += s.Duration
	}
	return sum
}

// Clip is a resolved multi-clip entry: a local file plus its kind.
type Clip struct {
	Path string
	Kind SegmentKind
}

// ImageSegment is a resolved timed image with its authored window.
type ImageSegment struct {
	Path  string
	Start float64
	End   float64
}

// BuildInput carries the resolved assets for one render job. The three
// visual modes are mutually exclusive and checked in priority order:
// Clips, then SingleVideoPath, then ImageSegments.
type BuildInput struct {
	Clips             []Clip
	SingleVideoPath   string
	ImageSegments     []ImageSegment
	FallbackImagePath string
	SlidePath         string
	VoiceoverDuration float64
}

// Build assembles the timeline and reconciles its duration against the
// voiceover. The result is never empty: when no visual asset resolved, a
// single fallback segment spans the full duration.
func Build(in BuildInput) Timeline {
	var tl Timeline

	switch {
	case len(in.Clips) > 0:
		// Each clip gets an equal share of the voiceover duration.
		share := in.VoiceoverDuration / float64(len(in.Clips))
		if share < MinSegmentDuration {
			share = MinSegmentDuration
		}
		for _, c := range in.Clips {
			tl.Segments = append(tl.Segments, VisualSegment{
				Kind:     c.Kind,
				Source:   c.Path,
				Duration: share,
			})
		}

	case in.SingleVideoPath != "":
		// One clip spans the whole target duration via looped playback.
		tl.Segments = append(tl.Segments, VisualSegment{
			Kind:     KindVideo,
			Source:   in.SingleVideoPath,
			Duration: in.VoiceoverDuration,
			Loop:     true,
		})

	case len(in.ImageSegments) > 0:
		for _, seg := range in.ImageSegments {
			dur := seg.End - seg.Start
			if dur < MinSegmentDuration {
				dur = MinSegmentDuration
			}
			tl.Segments = append(tl.Segments, VisualSegment{
				Kind:     KindImage,
				Source:   seg.Path,
				Duration: dur,
			})
		}
	}

	// The pipeline must never produce an empty timeline.
	if len(tl.Segments) == 0 {
		log.Printf("[Timeline] No visuals provided, using fallback image for %.1fs", in.VoiceoverDuration)
		tl.Segments = append(tl.Segments, VisualSegment{
			Kind:     KindImage,
			Source:   in.FallbackImagePath,
			Duration: in.VoiceoverDuration,
		})
	}

	// Branding slide goes after all primary content.
	if in.SlidePath != "" {
		tl.Segments = append(tl.Segments, VisualSegment{
			Kind:     KindImage,
			Source:   in.SlidePath,
			Duration: SlideDuration,
		})
	}

	// Reconcile: extend the last segment when the picture would end before
	// the voiceover. Excess visual duration is fine; the compositor's
	// output clamp trims it.
	if total := tl.TotalDuration(); total < in.VoiceoverDuration {
		adjustment := in.VoiceoverDuration - total + reconcileMargin
		tl.Segments[len(tl.Segments)-1].Duration += adjustment
		log.Printf("[Timeline] Extended last segment by %.2fs to cover voiceover", adjustment)
	}

	return tl
}
