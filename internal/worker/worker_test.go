package worker

import (
	"testing"
	"time"

	"github.com/openreel/reelrender/internal/models"
)

func TestRequestFromRecord(t *testing.T) {
	record := &models.Render{
		ID:     "r1",
		Status: models.RenderStatusQueued,
		Request: models.JSONB{
			"voiceover_url": "https://cdn.example/vo.mp3",
			"music_url":     "https://cdn.example/music.mp3",
			"segments": []interface{}{
				map[string]interface{}{"image_url": "https://cdn.example/a.png", "start": 0.0, "end": 5.0},
			},
			"animated_video_urls": []interface{}{
				"turbo:https://cdn.example/still.png",
				map[string]interface{}{"url": "https://cdn.example/clip.mp4", "kind": "video"},
			},
			"branding": map[string]interface{}{"businessName": "Corner Bakery"},
		},
		CreatedAt: time.Now(),
	}

	req, err := requestFromRecord(record)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if req.VoiceoverURL != "https://cdn.example/vo.mp3" {
		t.Errorf("voiceover lost: %q", req.VoiceoverURL)
	}
	if len(req.Segments) != 1 || req.Segments[0].End != 5.0 {
		t.Errorf("segments lost: %+v", req.Segments)
	}
	if len(req.AnimatedVideoURLs) != 2 {
		t.Fatalf("clips lost: %+v", req.AnimatedVideoURLs)
	}
	if req.AnimatedVideoURLs[0].ResolvedKind() != models.ClipKindImage {
		t.Error("legacy turbo string must decode as an image clip")
	}
	if req.AnimatedVideoURLs[1].Kind != models.ClipKindVideo {
		t.Error("declared kind lost on round trip")
	}
	if req.Branding == nil || req.Branding.BusinessName != "Corner Bakery" {
		t.Errorf("branding lost: %+v", req.Branding)
	}
}

func TestRequestFromRecordEmpty(t *testing.T) {
	req, err := requestFromRecord(&models.Render{ID: "r2", Request: nil})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if req.VoiceoverURL != "" {
		t.Errorf("expected zero request, got %+v", req)
	}
}
