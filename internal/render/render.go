// Package render turns composed document content into Office Open XML
// binaries: .docx for Word projects and .pptx for PowerPoint projects. The
// writer produces the minimal valid part set (content types, relationships,
// core properties, document/presentation parts) with direct formatting, so
// the output opens in Word, PowerPoint, LibreOffice and Google Docs without
// a styles catalogue.
//
// Styling is driven by an optional template Config whose JSON shape is owned
// here (color palette, typography, spacing, layout, styles). The package
// performs no I/O besides building the archive in memory and does not log.
package render

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// NotGenerated is the placeholder text exported for items that have no
// content yet. Renderers display it muted and italic.
const NotGenerated = "[Content not generated]"

// Item pairs one outline title with its text, already resolved by the
// caller (content or the NotGenerated placeholder).
type Item struct {
	Title string
	Text  string
}

// Doc is a fully composed document ready for rendering. Items are expected
// in canonical outline order.
type Doc struct {
	Title     string
	Subtitle  string // main topic, shown under the Word title
	Author    string
	CreatedAt time.Time // zero means time.Now().UTC()
	Items     []Item
}

// Renderer produces the binary file for a composed document.
type Renderer interface {
	Render(kind structure.Kind, doc Doc, style *Config) ([]byte, error)
}

// OOXML is the built-in Renderer writing .docx and .pptx archives.
type OOXML struct{}

// Render implements Renderer.
func (OOXML) Render(kind structure.Kind, doc Doc, style *Config) ([]byte, error) {
	if kind == structure.PowerPoint {
		return writePptx(doc, style)
	}
	return writeDocx(doc, style)
}

// ----------------------------------------------------------------------------
// Template configuration

// ColorPalette holds hex colors ("#RRGGBB"). Heading and Body win over
// Primary and Text when both are set.
type ColorPalette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Text       string `json:"text"`
	Background string `json:"background"`
	Heading    string `json:"heading"`
	Body       string `json:"body"`
}

// Typography holds font families, point sizes and weights.
type Typography struct {
	HeadingFont   string  `json:"heading_font"`
	BodyFont      string  `json:"body_font"`
	HeadingSize   int     `json:"heading_size"`
	BodySize      int     `json:"body_size"`
	HeadingWeight string  `json:"heading_weight"`
	BodyWeight    string  `json:"body_weight"`
	LineHeight    float64 `json:"line_height"`
}

// Spacing holds vertical spacing values in points.
type Spacing struct {
	SectionMargin     int `json:"section_margin"`
	ParagraphSpacing  int `json:"paragraph_spacing"`
	TitleMarginBottom int `json:"title_margin_bottom"`
	ContentPadding    int `json:"content_padding"`
}

// Layout holds page and slide geometry in inches.
type Layout struct {
	SlideWidth      float64            `json:"slide_width"`
	SlideHeight     float64            `json:"slide_height"`
	SlideLayout     string             `json:"slide_layout"`
	DocumentMargins map[string]float64 `json:"document_margins,omitempty"`
}

// Styles holds alignment choices ("left", "center", "right").
type Styles struct {
	HeadingAlignment string `json:"heading_alignment"`
	BodyAlignment    string `json:"body_alignment"`
	TitleAlignment   string `json:"title_alignment"`
	BulletStyle      string `json:"bullet_style"`
}

// Config is the template configuration stored per style template and
// applied at export time.
type Config struct {
	ColorPalette ColorPalette `json:"color_palette"`
	Typography   Typography   `json:"typography"`
	Spacing      Spacing      `json:"spacing"`
	Layout       Layout       `json:"layout"`
	Styles       Styles       `json:"styles"`
}

// DefaultConfig returns the baseline configuration applied when a template
// omits values.
func DefaultConfig() *Config {
	return &Config{
		ColorPalette: ColorPalette{
			Primary:    "#000000",
			Secondary:  "#666666",
			Accent:     "#1E40AF",
			Text:       "#000000",
			Background: "#FFFFFF",
			Heading:    "#000000",
			Body:       "#000000",
		},
		Typography: Typography{
			HeadingFont:   "Arial",
			BodyFont:      "Calibri",
			HeadingSize:   44,
			BodySize:      18,
			HeadingWeight: "bold",
			BodyWeight:    "normal",
			LineHeight:    1.5,
		},
		Spacing: Spacing{
			SectionMargin:     24,
			ParagraphSpacing:  12,
			TitleMarginBottom: 18,
			ContentPadding:    16,
		},
		Layout: Layout{
			SlideWidth:  10,
			SlideHeight: 7.5,
			SlideLayout: "title_content",
		},
		Styles: Styles{
			HeadingAlignment: "left",
			BodyAlignment:    "left",
			TitleAlignment:   "center",
			BulletStyle:      "default",
		},
	}
}

// ParseConfig decodes a stored template configuration. Missing values stay
// zero and are resolved against DefaultConfig at render time, so a palette
// that sets only primary still colors headings.
func ParseConfig(raw []byte) (*Config, error) {
	var cfg Config
	if len(raw) == 0 {
		return &cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode template config: %w", err)
	}
	return &cfg, nil
}

// HexToRGB parses a "#RRGGBB" color (hash optional) into its components.
func HexToRGB(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// hexAttr normalizes a hex color for an OOXML attribute ("RRGGBB"),
// falling back when the value does not parse.
func hexAttr(s, fallback string) string {
	r, g, b, err := HexToRGB(s)
	if err != nil {
		r, g, b, err = HexToRGB(fallback)
		if err != nil {
			return "000000"
		}
	}
	return fmt.Sprintf("%02X%02X%02X", r, g, b)
}

// headingColor resolves heading text color: heading, then primary, then
// black.
func (c *Config) headingColor() string {
	if c.ColorPalette.Heading != "" {
		return hexAttr(c.ColorPalette.Heading, "#000000")
	}
	return hexAttr(c.ColorPalette.Primary, "#000000")
}

// bodyColor resolves body text color: body, then text, then black.
func (c *Config) bodyColor() string {
	if c.ColorPalette.Body != "" {
		return hexAttr(c.ColorPalette.Body, "#000000")
	}
	return hexAttr(c.ColorPalette.Text, "#000000")
}

// ----------------------------------------------------------------------------
// Filename

// Filename derives the export filename from a project title: characters
// other than letters, digits, space, hyphen and underscore are dropped,
// spaces become underscores, and a timestamp plus the kind's extension is
// appended.
func Filename(title string, kind structure.Kind, at time.Time) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	return fmt.Sprintf("%s_%s.%s", safe, at.UTC().Format("20060102_150405"), kind.Extension())
}

// ----------------------------------------------------------------------------
// Content flow

// flowPara is one rendered paragraph of item text.
type flowPara struct {
	text   string
	bullet bool
}

var bulletStarts = []string{"-", "•", "*", "1.", "2.", "3."}

func isBulletLine(line string) bool {
	for _, m := range bulletStarts {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// stripMarker removes a leading bullet glyph, then a short "N." numbering,
// from a line.
func stripMarker(line string) string {
	for _, m := range []string{"-", "•", "*"} {
		if strings.HasPrefix(line, m) {
			line = strings.TrimSpace(strings.TrimPrefix(line, m))
			break
		}
	}
	if line != "" && line[0] >= '0' && line[0] <= '9' {
		head := []rune(line)
		if len(head) > 3 {
			head = head[:3]
		}
		if strings.ContainsRune(string(head), '.') {
			parts := strings.SplitN(line, ".", 2)
			line = strings.TrimSpace(parts[1])
		}
	}
	return line
}

// docFlow splits item text into Word paragraphs: blocks separated by blank
// lines; a block with any bullet-marked line becomes one bullet per line,
// otherwise the whole block is a single paragraph.
func docFlow(text string) []flowPara {
	var out []flowPara
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		bulleted := false
		for _, line := range lines {
			if l := strings.TrimSpace(line); l != "" && isBulletLine(l) {
				bulleted = true
				break
			}
		}
		if bulleted {
			for _, line := range lines {
				l := strings.TrimSpace(line)
				if l == "" {
					continue
				}
				if l = stripMarker(l); l != "" {
					out = append(out, flowPara{text: l, bullet: true})
				}
			}
			continue
		}
		out = append(out, flowPara{text: strings.TrimSpace(block)})
	}
	return out
}

// slideFlow splits item text into slide paragraphs: if any line carries a
// bullet marker, only the marked lines are kept (as bullets); otherwise
// blocks separated by blank lines become plain paragraphs.
func slideFlow(text string) []flowPara {
	var bullets []flowPara
	for _, line := range strings.Split(text, "\n") {
		l := strings.TrimSpace(line)
		if l == "" || !isBulletLine(l) {
			continue
		}
		if l = stripMarker(l); l != "" {
			bullets = append(bullets, flowPara{text: l, bullet: true})
		}
	}
	if len(bullets) > 0 {
		return bullets
	}
	var out []flowPara
	for _, block := range strings.Split(text, "\n\n") {
		if b := strings.TrimSpace(block); b != "" {
			out = append(out, flowPara{text: b})
		}
	}
	return out
}

// esc escapes text for inclusion in XML character data or attributes.
func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// docCreated resolves the document timestamp.
func docCreated(doc Doc) time.Time {
	if doc.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return doc.CreatedAt.UTC()
}
