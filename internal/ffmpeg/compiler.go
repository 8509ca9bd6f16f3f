package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/openreel/reelrender/internal/timeline"
)

// Output / rendering constants — 1080x1920 portrait at 24fps
const (
	FrameWidth  = 1080
	FrameHeight = 1920
	TargetFPS   = 24

	// Voiceover gets a fixed boost (source narration is typically quiet);
	// music sits underneath at half volume before ducking.
	voiceoverGain = 2.0
	musicGain     = 0.5
	sampleRate    = 44100

	// Slow zoom parameters for still images: the zoom factor grows a
	// little every frame, capped so long segments don't zoom past 1.5x.
	zoomStep = 0.0015
	zoomMax  = 1.5

	// Stills are scaled past the output frame before zoompan so the pan
	// samples with sub-pixel headroom; zoompan downsamples to the frame.
	oversampleWidth  = 1296
	oversampleHeight = 2304
)

// ErrNoVisualSegments marks a compile call with an empty timeline. This is
// a programming-error class, not a runtime failure: the timeline builder
// guarantees at least one segment.
var ErrNoVisualSegments = errors.New("no visual segments to compile")

// AudioSources carries the (at most) two concurrent audio inputs.
// VoiceoverPath is the pacing anchor and is always present; MusicPath is
// optional and looped/ducked when set.
type AudioSources struct {
	VoiceoverPath string
	MusicPath     string
}

// Invocation is a fully compiled compositor run: input bindings, the filter
// graph, stream mappings, and output encoding parameters.
type Invocation struct {
	InputArgs     []string
	Graph         *Graph
	VideoTag      string
	AudioTag      string
	TotalDuration float64
	OutputPath    string
}

// Args assembles the complete command-line argument list.
func (inv *Invocation) Args() []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	args = append(args, inv.InputArgs...)
	args = append(args,
		"-filter_complex", inv.Graph.String(),
		"-map", "["+inv.VideoTag+"]",
		"-map", "["+inv.AudioTag+"]",
		// Hard cap: looped inputs must never extend the output.
		"-t", formatSeconds(inv.TotalDuration),
		"-c:v", "libx264", "-profile:v", "baseline", "-level", "3.0",
		"-preset", "veryfast", "-b:v", "2M",
		"-c:a", "aac", "-b:a", "128k", "-ar", strconv.Itoa(sampleRate), "-ac", "2",
		"-pix_fmt", "yuv420p", "-movflags", "+faststart",
		"-f", "mp4",
	)
	return append(args, inv.OutputPath)
}

// Compile builds the compositor invocation for a reconciled timeline.
//
// Input order: voiceover first, music second (when present, looped at the
// input level), then one input per visual segment. Every visual stream is
// normalized to the canonical frame before concatenation; still images get
// a slow zoom toward center so they don't look frozen. Subtitles, when
// present, are burned in after concatenation so their timing is relative to
// the whole composed timeline.
func Compile(tl timeline.Timeline, audio AudioSources, subtitlesPath string, totalDuration float64, outputPath string) (*Invocation, error) {
	if len(tl.Segments) == 0 {
		return nil, ErrNoVisualSegments
	}

	inv := &Invocation{
		Graph:         &Graph{},
		TotalDuration: totalDuration,
		OutputPath:    outputPath,
	}

	// Input 0: voiceover
	inv.InputArgs = append(inv.InputArgs, "-i", audio.VoiceoverPath)

	// Input 1 (optional): music, looped indefinitely and trimmed by the
	// output duration clamp.
	visualStart := 1
	if audio.MusicPath != "" {
		inv.InputArgs = append(inv.InputArgs, "-stream_loop", "-1", "-i", audio.MusicPath)
		visualStart = 2
	}

	// Inputs 2+: visual segments
	for _, seg := range tl.Segments {
		switch {
		case seg.Kind == timeline.KindImage:
			inv.InputArgs = append(inv.InputArgs, "-loop", "1", "-t", formatSeconds(seg.Duration), "-i", seg.Source)
		case seg.Loop:
			// The looped input must be bounded at the input level: concat
			// only advances past a stream at EOF, so an unbounded loop
			// would starve every segment after it.
			inv.InputArgs = append(inv.InputArgs, "-stream_loop", "-1", "-t", formatSeconds(seg.Duration), "-i", seg.Source)
		default:
			inv.InputArgs = append(inv.InputArgs, "-i", seg.Source)
		}
	}

	// Per-segment normalization
	normTags := make([]string, len(tl.Segments))
	for i, seg := range tl.Segments {
		inTag := fmt.Sprintf("%d:v", visualStart+i)
		outTag := fmt.Sprintf("v%d", i)
		normTags[i] = outTag

		var expr string
		if seg.Kind == timeline.KindImage {
			expr = imageChain(seg.Duration)
		} else {
			expr = videoChain(seg.Duration)
		}

		inv.Graph.Add(Stage{Inputs: []string{inTag}, Expr: expr, Outputs: []string{outTag}})
	}

	// Concatenate all normalized streams in timeline order
	inv.Graph.Add(Stage{
		Inputs:  normTags,
		Expr:    fmt.Sprintf("concat=n=%d:v=1:a=0", len(tl.Segments)),
		Outputs: []string{"vconcat"},
	})
	inv.VideoTag = "vconcat"

	// Subtitle burn-in is the final video stage so cue timing is relative
	// to the full composed timeline.
	if subtitlesPath != "" {
		inv.Graph.Add(Stage{
			Inputs: []string{inv.VideoTag},
			Expr: fmt.Sprintf(
				"subtitles='%s':force_style='FontName=Arial,FontSize=24,PrimaryColour=&H00FFFFFF,"+
					"BackColour=&H80000000,BorderStyle=3,Outline=1,Shadow=0,MarginV=60'",
				escapeFilterPath(subtitlesPath)),
			Outputs: []string{"vsub"},
		})
		inv.VideoTag = "vsub"
	}

	compileAudio(inv, audio)

	return inv, nil
}

// compileAudio emits the audio stages. With music present the voiceover is
// split into a sidechain key and the main feed: music is compressed against
// the narration envelope, then both are mixed with duration=first — the
// voiceover's natural length drives the mix, never the looped music.
func compileAudio(inv *Invocation, audio AudioSources) {
	if audio.MusicPath == "" {
		inv.Graph.Add(Stage{
			Inputs:  []string{"0:a"},
			Expr:    fmt.Sprintf("aresample=%d,volume=%.1f", sampleRate, voiceoverGain),
			Outputs: []string{"aout"},
		})
		inv.AudioTag = "aout"
		return
	}

	inv.Graph.Add(Stage{
		Inputs:  []string{"0:a"},
		Expr:    fmt.Sprintf("aresample=%d,volume=%.1f,asplit=2", sampleRate, voiceoverGain),
		Outputs: []string{"vo_sc", "vo_main"},
	})
	inv.Graph.Add(Stage{
		Inputs:  []string{"1:a"},
		Expr:    fmt.Sprintf("aresample=%d,volume=%.1f", sampleRate, musicGain),
		Outputs: []string{"bg"},
	})
	inv.Graph.Add(Stage{
		Inputs:  []string{"bg", "vo_sc"},
		Expr:    "sidechaincompress=threshold=0.15:ratio=3:attack=50:release=600",
		Outputs: []string{"bg_duck"},
	})
	inv.Graph.Add(Stage{
		Inputs:  []string{"vo_main", "bg_duck"},
		Expr:    "amix=inputs=2:duration=first",
		Outputs: []string{"aout"},
	})
	inv.AudioTag = "aout"
}

// imageChain normalizes a still image and animates it with a slow zoom
// toward frame center. The frame count is derived from the segment duration
// so the motion spans the whole segment.
func imageChain(duration float64) string {
	frames := int(duration * TargetFPS)
	if frames < 1 {
		frames = 1
	}
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,"+
			"zoompan=z='min(zoom+%g,%g)':d=%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=%dx%d:fps=%d,"+
			"setpts=PTS-STARTPTS,format=yuv420p",
		oversampleWidth, oversampleHeight, oversampleWidth, oversampleHeight,
		zoomStep, zoomMax, frames,
		FrameWidth, FrameHeight, TargetFPS,
	)
}

// videoChain normalizes a video clip: scale down to fit the canonical frame
// preserving aspect ratio, pad centered to fill it, and force the shared
// pixel format so concat never sees mismatched stream parameters. The clip
/// is then fitted to exactly its segment duration: short clips hold their
// last frame (tpad clone), long clips are trimmed — either way each segment
// contributes its share and nothing after it shifts.
func videoChain(duration float64) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,"+
			"tpad=stop_mode=clone:stop_duration=%s,trim=duration=%s,"+
			"setpts=PTS-STARTPTS,format=yuv420p",
		FrameWidth, FrameHeight, FrameWidth, FrameHeight,
		formatSeconds(duration), formatSeconds(duration),
	)
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
