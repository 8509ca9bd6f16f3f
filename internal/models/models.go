package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
)

// Enums
type RenderStatus string

const (
	RenderStatusQueued    RenderStatus = "queued"
	RenderStatusRunning   RenderStatus = "running"
	RenderStatusSucceeded RenderStatus = "succeeded"
	RenderStatusFailed    RenderStatus = "failed"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// SegmentInput is one timed image slot of the visual timeline.
// Duration in the final video is end - start, floored at a minimum
// so a malformed pair never produces a zero-length segment.
type SegmentInput struct {
	ImageURL string  `json:"image_url"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
}

// ClipKind tells the pipeline whether a clip URL points at a still image
// or a video file.
type ClipKind string

const (
	ClipKindImage ClipKind = "image"
	ClipKindVideo ClipKind = "video"
)

// ClipInput is one entry of animated_video_urls. Callers should send
// {"url": ..., "kind": "image"|"video"}; a bare JSON string is still
// accepted, in which case the legacy "turbo:" prefix marks a still image.
type ClipInput struct {
	URL  string   `json:"url"`
	Kind ClipKind `json:"kind,omitempty"`
}

func (c *ClipInput) UnmarshalJSON(data []byte) error {
	// Legacy form: a plain URL string
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.URL = s
		c.Kind = ""
		return nil
	}

	type alias ClipInput
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ClipInput(a)
	return nil
}

// ResolvedKind returns the declared kind, falling back to the legacy
// "turbo:" URL prefix convention when the caller did not declare one.
func (c ClipInput) ResolvedKind() ClipKind {
	if c.Kind != "" {
		return c.Kind
	}
	if strings.HasPrefix(c.URL, "turbo:") {
		return ClipKindImage
	}
	return ClipKindVideo
}

// CleanURL strips the legacy "turbo:" marker off the clip URL.
func (c ClipInput) CleanURL() string {
	return strings.TrimPrefix(c.URL, "turbo:")
}

// Branding drives the synthesized conclusion slide appended after the
// primary content. Field names follow the upstream camelCase contract.
type Branding struct {
	LogoURL      string `json:"logoUrl,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	Address      string `json:"address,omitempty"`
	Hours        string `json:"hours,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// RenderRequest is the full render job input. voiceover_url is the only
// mandatory field; every other asset is optional and recovered with a safe
// default when it fails to resolve.
type RenderRequest struct {
	VoiceoverURL      string         `json:"voiceover_url"`
	MusicURL          string         `json:"music_url,omitempty"`
	SubtitlesURL      string         `json:"subtitles_url,omitempty"`
	Segments          []SegmentInput `json:"segments,omitempty"`
	AnimatedVideoURL  string         `json:"animated_video_url,omitempty"`
	AnimatedVideoURLs []ClipInput    `json:"animated_video_urls,omitempty"`
	Branding          *Branding      `json:"branding,omitempty"`
	LogoURL           string         `json:"logo_url,omitempty"`      // legacy overlay hook, feeds the branding slide
	LogoPosition      string         `json:"logo_position,omitempty"` // legacy, superseded by branding slide
}

// PrimaryLogoURL prefers the branding logo over the legacy top-level field.
func (r RenderRequest) PrimaryLogoURL() string {
	if r.Branding != nil && r.Branding.LogoURL != "" {
		return r.Branding.LogoURL
	}
	return r.LogoURL
}

// Models

type Render struct {
	ID           string       `json:"id"`
	Status       RenderStatus `json:"status"`
	Request      JSONB        `json:"request,omitempty"`
	VideoURL     *string      `json:"video_url,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DTOs for API responses

type CreateRenderResponse struct {
	RenderID string       `json:"render_id"`
	Status   RenderStatus `json:"status"`
}

type RenderResultResponse struct {
	VideoURL string `json:"video_url"`
	RenderID string `json:"render_id"`
}

type RenderStatusResponse struct {
	RenderID     string       `json:"render_id"`
	Status       RenderStatus `json:"status"`
	VideoURL     *string      `json:"video_url,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
