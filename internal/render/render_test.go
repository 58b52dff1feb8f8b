package render

import (
	"reflect"
	"testing"
	"time"

	"github.com/tbourn/go-docgen-backend/internal/structure"
)

func TestFilename(t *testing.T) {
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	cases := []struct {
		title string
		kind  structure.Kind
		want  string
	}{
		{"Q3 Report", structure.Word, "Q3_Report_20240102_150405.docx"},
		{"Q3 Report!?", structure.Word, "Q3_Report_20240102_150405.docx"},
		{"  spaced out  ", structure.PowerPoint, "spaced_out_20240102_150405.pptx"},
		{"pitch-deck_v2", structure.PowerPoint, "pitch-deck_v2_20240102_150405.pptx"},
		{"Ünïcøde Plan", structure.Word, "Ünïcøde_Plan_20240102_150405.docx"},
		{"///", structure.Word, "_20240102_150405.docx"},
	}
	for _, c := range cases {
		if got := Filename(c.title, c.kind, at); got != c.want {
			t.Errorf("Filename(%q, %s) = %q, want %q", c.title, c.kind, got, c.want)
		}
	}
}

func TestHexToRGB(t *testing.T) {
	r, g, b, err := HexToRGB("#1E40AF")
	if err != nil {
		t.Fatalf("HexToRGB: %v", err)
	}
	if r != 0x1E || g != 0x40 || b != 0xAF {
		t.Fatalf("HexToRGB = (%d,%d,%d)", r, g, b)
	}

	if _, _, _, err := HexToRGB("ffffff"); err != nil {
		t.Errorf("bare hex should parse: %v", err)
	}
	if _, _, _, err := HexToRGB(" #000000 "); err != nil {
		t.Errorf("padded hex should parse: %v", err)
	}

	for _, bad := range []string{"", "#fff", "#12345", "#GGGGGG", "#1234567"} {
		if _, _, _, err := HexToRGB(bad); err == nil {
			t.Errorf("HexToRGB(%q) expected error", bad)
		}
	}
}

func TestHexAttr(t *testing.T) {
	if got := hexAttr("#1e40af", "#000000"); got != "1E40AF" {
		t.Errorf("hexAttr = %q", got)
	}
	if got := hexAttr("nope", "#666666"); got != "666666" {
		t.Errorf("hexAttr fallback = %q", got)
	}
	if got := hexAttr("nope", "also nope"); got != "000000" {
		t.Errorf("hexAttr double fallback = %q", got)
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig(nil): %v", err)
	}
	if cfg.ColorPalette.Heading != "" || cfg.Typography.HeadingSize != 0 {
		t.Fatalf("empty config should stay zero: %+v", cfg)
	}

	raw := []byte(`{
		"color_palette": {"primary": "#1E40AF"},
		"typography": {"heading_font": "Georgia", "heading_size": 20},
		"styles": {"body_alignment": "right"}
	}`)
	cfg, err = ParseConfig(raw)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.ColorPalette.Primary != "#1E40AF" || cfg.ColorPalette.Heading != "" {
		t.Errorf("palette = %+v", cfg.ColorPalette)
	}
	if cfg.Typography.HeadingFont != "Georgia" || cfg.Typography.HeadingSize != 20 {
		t.Errorf("typography = %+v", cfg.Typography)
	}
	if cfg.Styles.BodyAlignment != "right" {
		t.Errorf("styles = %+v", cfg.Styles)
	}
	// Heading color falls through to primary when heading is unset.
	if got := cfg.headingColor(); got != "1E40AF" {
		t.Errorf("headingColor = %q", got)
	}
	if got := cfg.bodyColor(); got != "000000" {
		t.Errorf("bodyColor = %q", got)
	}

	if _, err := ParseConfig([]byte(`{`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDefaultConfig(t *testing.T) {
	d := DefaultConfig()
	if d.Typography.HeadingFont != "Arial" || d.Typography.BodyFont != "Calibri" {
		t.Errorf("fonts = %+v", d.Typography)
	}
	if d.Typography.HeadingSize != 44 || d.Typography.BodySize != 18 {
		t.Errorf("sizes = %+v", d.Typography)
	}
	if d.Layout.SlideWidth != 10 || d.Layout.SlideHeight != 7.5 {
		t.Errorf("layout = %+v", d.Layout)
	}
	if d.Styles.TitleAlignment != "center" || d.Styles.BodyAlignment != "left" {
		t.Errorf("styles = %+v", d.Styles)
	}
}

func TestStripMarker(t *testing.T) {
	cases := []struct{ in, want string }{
		{"- item", "item"},
		{"• item", "item"},
		{"* item", "item"},
		{"1. first", "first"},
		{"12. twelfth", "twelfth"},
		{"100. hundredth", "100. hundredth"},
		{"- 2. nested", "nested"},
		{"plain", "plain"},
		{"3.14 is pi", "14 is pi"},
	}
	for _, c := range cases {
		if got := stripMarker(c.in); got != c.want {
			t.Errorf("stripMarker(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDocFlow(t *testing.T) {
	text := "First paragraph.\n\nOverview line\n- Revenue grew\n- Margin stable\n\nClosing thoughts."
	got := docFlow(text)
	want := []flowPara{
		{text: "First paragraph."},
		{text: "Overview line", bullet: true},
		{text: "Revenue grew", bullet: true},
		{text: "Margin stable", bullet: true},
		{text: "Closing thoughts."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("docFlow = %+v, want %+v", got, want)
	}

	if got := docFlow("  \n\n \n"); got != nil {
		t.Fatalf("blank text should yield no paragraphs: %+v", got)
	}

	// A wrapped paragraph without markers stays one paragraph.
	got = docFlow("line one\nline two")
	if len(got) != 1 || got[0].bullet || got[0].text != "line one\nline two" {
		t.Fatalf("wrapped paragraph = %+v", got)
	}
}

func TestSlideFlow(t *testing.T) {
	// Any bullet line means only bullet lines survive.
	got := slideFlow("Intro prose\n- Point one\ntrailing prose\n2. Point two")
	want := []flowPara{
		{text: "Point one", bullet: true},
		{text: "Point two", bullet: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slideFlow = %+v, want %+v", got, want)
	}

	// No bullets: blocks separated by blank lines.
	got = slideFlow("First block.\n\nSecond block\nstill second.")
	want = []flowPara{
		{text: "First block."},
		{text: "Second block\nstill second."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slideFlow plain = %+v, want %+v", got, want)
	}
}
