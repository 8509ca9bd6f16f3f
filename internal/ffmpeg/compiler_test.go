package ffmpeg

import (
	"strings"
	"testing"

	"github.com/openreel/reelrender/internal/timeline"
)

func singleImageTimeline(dur float64) timeline.Timeline {
	return timeline.Timeline{Segments: []timeline.VisualSegment{
		{Kind: timeline.KindImage, Source: "/tmp/img1.png", Duration: dur},
	}}
}

func TestCompileVoiceOnly(t *testing.T) {
	inv, err := Compile(
		singleImageTimeline(30),
		AudioSources{VoiceoverPath: "/tmp/vo.mp3"},
		"", 30, "/tmp/out.mp4",
	)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	if inv.Graph.HasFilter("sidechaincompress") {
		t.Error("no ducking stage expected without music")
	}
	if inv.Graph.HasFilter("amix") {
		t.Error("no mix stage expected without music")
	}

	if inv.VideoTag != "vconcat" {
		t.Errorf("expected video tag vconcat, got %s", inv.VideoTag)
	}
	if inv.AudioTag != "aout" {
		t.Errorf("expected audio tag aout, got %s", inv.AudioTag)
	}

	args := strings.Join(inv.Args(), " ")
	if !strings.Contains(args, "-map [vconcat] -map [aout]") {
		t.Errorf("expected concatenated video and voiceover-only audio mapping, got: %s", args)
	}
}

func TestCompileWithMusic(t *testing.T) {
	inv, err := Compile(
		singleImageTimeline(30),
		AudioSources{VoiceoverPath: "/tmp/vo.mp3", MusicPath: "/tmp/music.mp3"},
		"", 30, "/tmp/out.mp4",
	)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	graph := inv.Graph.String()
	if !strings.Contains(graph, "sidechaincompress=threshold=0.15:ratio=3:attack=50:release=600") {
		t.Errorf("expected sidechain compression stage, graph: %s", graph)
	}
	if !strings.Contains(graph, "amix=inputs=2:duration=first") {
		t.Errorf("expected amix with duration=first, graph: %s", graph)
	}

	// Music input is looped at the input level
	args := strings.Join(inv.Args(), " ")
	if !strings.Contains(args, "-stream_loop -1 -i /tmp/music.mp3") {
		t.Errorf("expected looped music input, got: %s", args)
	}
}

func TestCompileNoDanglingTagsWithoutMusic(t *testing.T) {
	// Removing music must remove both the ducking and mix stages — no
	// filter may reference the music stream or intermediate tags.
	inv, err := Compile(
		singleImageTimeline(30),
		AudioSources{VoiceoverPath: "/tmp/vo.mp3"},
		"", 30, "/tmp/out.mp4",
	)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	graph := inv.Graph.String()
	for _, tag := range []string{"[1:a]", "[bg]", "[bg_duck]", "[vo_sc]", "[vo_main]"} {
		if strings.Contains(graph, tag) {
			t.Errorf("dangling tag %s in music-free graph: %s", tag, graph)
		}
	}
}

func TestCompileSubtitlesBurnedLast(t *testing.T) {
	inv, err := Compile(
		singleImageTimeline(30),
		AudioSources{VoiceoverPath: "/tmp/vo.mp3"},
		"/tmp/subs.srt", 30, "/tmp/out.mp4",
	)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	if inv.VideoTag != "vsub" {
		t.Errorf("expected burned video tag vsub, got %s", inv.VideoTag)
	}

	graph := inv.Graph.String()
	if !strings.Contains(graph, "[vconcat]subtitles=") {
		t.Errorf("subtitles must consume the concatenated stream, graph: %s", graph)
	}
}

func TestCompileMixedSegmentNormalization(t *testing.T) {
	tl := timeline.Timeline{Segments: []timeline.VisualSegment{
		{Kind: timeline.KindVideo, Source: "/tmp/clip.mp4", Duration: 10},
		{Kind: timeline.KindImage, Source: "/tmp/img.png", Duration: 10},
	}}

	inv, err := Compile(tl, AudioSources{VoiceoverPath: "/tmp/vo.mp3"}, "", 20, "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	graph := inv.Graph.String()
	if !strings.Contains(graph, "pad=1080:1920") {
		t.Errorf("video segments must be padded to the canonical frame, graph: %s", graph)
	}
	if !strings.Contains(graph, "zoompan=") {
		t.Errorf("image segments must receive the zoom motion effect, graph: %s", graph)
	}
	if !strings.Contains(graph, "concat=n=2:v=1:a=0") {
		t.Errorf("expected 2-way concat, graph: %s", graph)
	}

	// Image frame count derives from duration x fps
	if !strings.Contains(graph, "d=240") {
		t.Errorf("expected 10s x 24fps = 240 frames in zoompan, graph: %s", graph)
	}

	// Stills are oversampled before zoompan, which downsamples to the frame
	if !strings.Contains(graph, "crop=1296:2304") {
		t.Errorf("expected oversampled crop before zoompan, graph: %s", graph)
	}
	if !strings.Contains(graph, "s=1080x1920") {
		t.Errorf("zoompan must emit the canonical frame size, graph: %s", graph)
	}
}

func TestCompileLoopedVideoBoundedBeforeSlide(t *testing.T) {
	// A looped clip followed by the outro slide: the loop must be bounded
	// at the input level, or concat never reaches EOF on it and the slide
	// frames are never emitted.
	tl := timeline.Timeline{Segments: []timeline.VisualSegment{
		{Kind: timeline.KindVideo, Source: "/tmp/full.mp4", Duration: 30, Loop: true},
		{Kind: timeline.KindImage, Source: "/tmp/slide.png", Duration: 4},
	}}

	inv, err := Compile(tl, AudioSources{VoiceoverPath: "/tmp/vo.mp3"}, "", 34, "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	joined := strings.Join(inv.InputArgs, " ")
	if !strings.Contains(joined, "-stream_loop -1 -t 30.000 -i /tmp/full.mp4") {
		t.Errorf("looped input must carry its segment duration bound, got: %s", joined)
	}
	if !strings.Contains(joined, "-loop 1 -t 4.000 -i /tmp/slide.png") {
		t.Errorf("slide input missing, got: %s", joined)
	}
	if !strings.Contains(inv.Graph.String(), "concat=n=2:v=1:a=0") {
		t.Errorf("expected 2-way concat including the slide, graph: %s", inv.Graph.String())
	}
}

func TestCompileClipFittedToShare(t *testing.T) {
	// Non-looped clips contribute exactly their segment duration: long
	// clips are trimmed, short ones hold their last frame. Without this,
	// a clip's native length would shift everything after it.
	tl := timeline.Timeline{Segments: []timeline.VisualSegment{
		{Kind: timeline.KindVideo, Source: "/tmp/a.mp4", Duration: 10},
		{Kind: timeline.KindVideo, Source: "/tmp/b.mp4", Duration: 10},
	}}

	inv, err := Compile(tl, AudioSources{VoiceoverPath: "/tmp/vo.mp3"}, "", 20, "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	graph := inv.Graph.String()
	if !strings.Contains(graph, "trim=duration=10.000") {
		t.Errorf("clip must be trimmed to its share, graph: %s", graph)
	}
	if !strings.Contains(graph, "tpad=stop_mode=clone:stop_duration=10.000") {
		t.Errorf("short clips must hold their last frame to fill the share, graph: %s", graph)
	}
}

func TestCompileInputOrder(t *testing.T) {
	tl := timeline.Timeline{Segments: []timeline.VisualSegment{
		{Kind: timeline.KindVideo, Source: "/tmp/full.mp4", Duration: 30, Loop: true},
	}}

	inv, err := Compile(tl, AudioSources{VoiceoverPath: "/tmp/vo.mp3", MusicPath: "/tmp/m.mp3"}, "", 30, "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	joined := strings.Join(inv.InputArgs, " ")
	voIdx := strings.Index(joined, "/tmp/vo.mp3")
	mIdx := strings.Index(joined, "/tmp/m.mp3")
	vIdx := strings.Index(joined, "/tmp/full.mp4")
	if !(voIdx < mIdx && mIdx < vIdx) {
		t.Errorf("expected voiceover, music, visuals input order, got: %s", joined)
	}

	// A single full-length clip loops at the input level; the visual
	// stream tag offsets must account for the music input.
	if !strings.Contains(inv.Graph.String(), "[2:v]") {
		t.Errorf("visual stream must start at input 2 when music present, graph: %s", inv.Graph.String())
	}
}

func TestCompileDurationClamp(t *testing.T) {
	inv, err := Compile(singleImageTimeline(34.5), AudioSources{VoiceoverPath: "/tmp/vo.mp3"}, "", 34.5, "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	args := strings.Join(inv.Args(), " ")
	if !strings.Contains(args, "-t 34.500") {
		t.Errorf("expected hard output duration clamp, got: %s", args)
	}
	if !strings.Contains(args, "-movflags +faststart") {
		t.Errorf("expected faststart metadata placement, got: %s", args)
	}
}

func TestCompileEmptyTimeline(t *testing.T) {
	_, err := Compile(timeline.Timeline{}, AudioSources{VoiceoverPath: "/tmp/vo.mp3"}, "", 30, "/tmp/out.mp4")
	if err == nil {
		t.Fatal("expected error for empty timeline")
	}
}
