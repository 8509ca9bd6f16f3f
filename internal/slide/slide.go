package slide

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ---------------------------------------------------------------------------
// Conclusion slide synthesis
//
// Renders the branding outro as a fixed-resolution portrait still: logo,
// business name, then labeled contact sections. Rendering is best-effort —
// a missing font or a broken logo degrades the slide, never fails it.
// ---------------------------------------------------------------------------

const (
	slideWidth  = 1080
	slideHeight = 1920

	// Logo is bounded to a square, aspect preserved
	logoMaxSize = 400

	// Pixel budget for wrapped text lines
	textWidthBudget = 920

	titleFontSize = 80
	labelFontSize = 34
	infoFontSize  = 40
)

var (
	backgroundColor = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	titleColor      = color.RGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff}
	infoColor       = color.RGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff}
	accentColor     = color.RGBA{R: 0x38, G: 0xbd, B: 0xf8, A: 0xff}
)

// Spec is the semantic content of the slide. Empty fields omit their
// section entirely.
type Spec struct {
	BusinessName string
	Address      string
	Hours        string
	Phone        string
	Email        string
}

type Synthesizer struct {
	fontPath string
}

// NewSynthesizer creates a synthesizer reading its typeface from fontPath.
// A missing or unreadable font falls back to the built-in basic face.
func NewSynthesizer(fontPath string) *Synthesizer {
	return &Synthesizer{fontPath: fontPath}
}

// Synthesize renders the slide to a PNG at outPath. logoPath may be empty;
// a logo that fails to decode is dropped with a log line.
func (s *Synthesizer) Synthesize(spec Spec, logoPath, outPath string) error {
	titleFace, labelFace, infoFace := s.loadFaces()

	img := image.NewRGBA(image.Rect(0, 0, slideWidth, slideHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	y := 300

	// Logo
	if logoPath != "" {
		if h, ok := drawLogo(img, logoPath, y); ok {
			y += h + 80
		}
	}

	// Business name
	name := spec.BusinessName
	if name == "" {
		name = "Thank You!"
	}
	for _, line := range wrapText(titleFace, strings.ToUpper(name), textWidthBudget) {
		drawCenteredLine(img, titleFace, line, y, titleColor)
		y += lineHeight(titleFace)
	}
	y += 30

	// Separator rule under the title
	rule := image.Rect(slideWidth/2-100, y, slideWidth/2+100, y+4)
	draw.Draw(img, rule, image.NewUniform(accentColor), image.Point{}, draw.Src)
	y += 90

	y = drawSection(img, labelFace, infoFace, "LOCATION", spec.Address, y)

	hours := strings.Join(nonEmptyLines(spec.Hours), "\n")
	y = drawSection(img, labelFace, infoFace, "OPENING HOURS", hours, y)

	var contact []string
	if spec.Phone != "" {
		contact = append(contact, spec.Phone)
	}
	if spec.Email != "" {
		contact = append(contact, spec.Email)
	}
	drawSection(img, labelFace, infoFace, "CONTACT", strings.Join(contact, " · "), y)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create slide file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode slide: %w", err)
	}
	return nil
}

// loadFaces parses the configured typeface at the three sizes, falling back
// to the built-in basic face when the font file is unavailable.
func (s *Synthesizer) loadFaces() (title, label, info font.Face) {
	fallback := basicfont.Face7x13

	data, err := os.ReadFile(s.fontPath)
	if err != nil {
		log.Printf("[Slide] Font %s unavailable (%v), using built-in face", s.fontPath, err)
		return fallback, fallback, fallback
	}

	ft, err := opentype.Parse(data)
	if err != nil {
		log.Printf("[Slide] Font %s unparseable (%v), using built-in face", s.fontPath, err)
		return fallback, fallback, fallback
	}

	title = newFaceOrFallback(ft, titleFontSize, fallback)
	label = newFaceOrFallback(ft, labelFontSize, fallback)
	info = newFaceOrFallback(ft, infoFontSize, fallback)
	return title, label, info
}

func newFaceOrFallback(ft *opentype.Font, size float64, fallback font.Face) font.Face {
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return fallback
	}
	return face
}

// drawLogo decodes, scales (aspect-preserving, bounded to logoMaxSize) and
// centers the logo at vertical offset y. Returns the drawn height.
func drawLogo(img *image.RGBA, logoPath string, y int) (int, bool) {
	f, err := os.Open(logoPath)
	if err != nil {
		log.Printf("[Slide] Logo %s unreadable (%v), dropping", logoPath, err)
		return 0, false
	}
	defer f.Close()

	logo, _, err := image.Decode(f)
	if err != nil {
		log.Printf("[Slide] Logo %s undecodable (%v), dropping", logoPath, err)
		return 0, false
	}

	b := logo.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return 0, false
	}

	scale := 1.0
	if w > logoMaxSize || h > logoMaxSize {
		sw := float64(logoMaxSize) / float64(w)
		sh := float64(logoMaxSize) / float64(h)
		scale = sw
		if sh < sw {
			scale = sh
		}
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)

	dst := image.Rect((slideWidth-dw)/2, y, (slideWidth-dw)/2+dw, y+dh)
	xdraw.ApproxBiLinear.Scale(img, dst, logo, b, xdraw.Over, nil)
	return dh, true
}

// drawSection emits a labeled block (label line + wrapped content lines)
// only when content is non-empty. Returns the next vertical offset.
func drawSection(img *image.RGBA, labelFace, infoFace font.Face, label, content string, y int) int {
	if strings.TrimSpace(content) == "" {
		return y
	}

	drawCenteredLine(img, labelFace, label, y, accentColor)
	y += lineHeight(labelFace) + 10

	for _, raw := range strings.Split(content, "\n") {
		for _, line := range wrapText(infoFace, raw, textWidthBudget) {
			drawCenteredLine(img, infoFace, line, y, infoColor)
			y += lineHeight(infoFace)
		}
	}
	return y + 50
}

func drawCenteredLine(img *image.RGBA, face font.Face, text string, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
	}
	w := d.MeasureString(text).Ceil()
	d.Dot = fixed.P((slideWidth-w)/2, y)
	d.DrawString(text)
}

func lineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil() + 14
}

// wrapText greedily packs words into lines no wider than maxWidth pixels.
// A single word wider than the budget keeps its own line rather than being
// broken mid-word.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}
