package render

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-docgen-backend/internal/structure"
)

func readParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	parts := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		parts[f.Name] = string(b)
	}
	return parts
}

func wantIn(t *testing.T, part, content, sub string) {
	t.Helper()
	if !strings.Contains(content, sub) {
		t.Errorf("%s missing %q", part, sub)
	}
}

func testDoc() Doc {
	return Doc{
		Title:     "Q3 <Plan> & Review",
		Subtitle:  "Quarterly business review",
		Author:    "analyst@example.com",
		CreatedAt: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		Items: []Item{
			{Title: "Introduction", Text: "First paragraph.\n\nSecond paragraph\nwith a wrapped line."},
			{Title: "Key Points", Text: "- Revenue grew\n- Margin <stable>\n1. Numbered point"},
			{Title: "Pending", Text: NotGenerated},
		},
	}
}

func TestRenderDocx(t *testing.T) {
	data, err := OOXML{}.Render(structure.Word, testDoc(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	parts := readParts(t, data)

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"docProps/app.xml",
		"word/document.xml",
	} {
		if _, ok := parts[name]; !ok {
			t.Fatalf("missing part %s", name)
		}
	}

	body := parts["word/document.xml"]
	wantIn(t, "document.xml", body, "Q3 &lt;Plan&gt; &amp; Review")
	wantIn(t, "document.xml", body, `<w:jc w:val="center"/>`)
	wantIn(t, "document.xml", body, "Quarterly business review")
	wantIn(t, "document.xml", body, `<w:b/><w:sz w:val="56"/>`)
	wantIn(t, "document.xml", body, `<w:b/><w:sz w:val="32"/>`)
	wantIn(t, "document.xml", body, "First paragraph.")
	wantIn(t, "document.xml", body, `<w:spacing w:after="120"/>`)

	// Wrapped lines stay in one paragraph separated by a break.
	wantIn(t, "document.xml", body, `Second paragraph</w:t><w:br/><w:t xml:space="preserve">with a wrapped line.`)

	// Bullet paragraphs carry the glyph, an indent and no marker.
	wantIn(t, "document.xml", body, `<w:ind w:left="720"/>`)
	wantIn(t, "document.xml", body, "• Revenue grew")
	wantIn(t, "document.xml", body, "• Margin &lt;stable&gt;")
	wantIn(t, "document.xml", body, "• Numbered point")
	if strings.Contains(body, "1. Numbered point") {
		t.Error("numbered marker should be stripped")
	}

	// Missing content renders the muted placeholder.
	wantIn(t, "document.xml", body, `<w:i/><w:color w:val="808080"/>`)
	wantIn(t, "document.xml", body, NotGenerated)

	// Letter page with one inch margins.
	wantIn(t, "document.xml", body, `<w:pgSz w:w="12240" w:h="15840"/>`)
	wantIn(t, "document.xml", body, `<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"`)

	core := parts["docProps/core.xml"]
	wantIn(t, "core.xml", core, "<dc:title>Q3 &lt;Plan&gt; &amp; Review</dc:title>")
	wantIn(t, "core.xml", core, "<dc:creator>analyst@example.com</dc:creator>")
	wantIn(t, "core.xml", core, "Generated on 2024-01-02 15:04:05")
	wantIn(t, "core.xml", core, `<dcterms:created xsi:type="dcterms:W3CDTF">2024-01-02T15:04:05Z</dcterms:created>`)
}

func TestRenderDocxStyled(t *testing.T) {
	style, err := ParseConfig([]byte(`{
		"color_palette": {"primary": "#1E40AF", "text": "#333333"},
		"typography": {"heading_font": "Georgia", "body_font": "Verdana", "heading_size": 20, "body_size": 11},
		"spacing": {"section_margin": 18, "paragraph_spacing": 8},
		"layout": {"document_margins": {"top": 0.5, "bottom": 0.5, "left": 1.25, "right": 1.25}},
		"styles": {"heading_alignment": "right", "body_alignment": "left", "title_alignment": "center"}
	}`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	data, err := OOXML{}.Render(structure.Word, testDoc(), style)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := readParts(t, data)["word/document.xml"]

	wantIn(t, "document.xml", body, `<w:rFonts w:ascii="Georgia" w:hAnsi="Georgia"/>`)
	wantIn(t, "document.xml", body, `<w:rFonts w:ascii="Verdana" w:hAnsi="Verdana"/>`)
	wantIn(t, "document.xml", body, `<w:color w:val="1E40AF"/>`)
	wantIn(t, "document.xml", body, `<w:color w:val="333333"/>`)
	wantIn(t, "document.xml", body, `<w:sz w:val="40"/>`)
	wantIn(t, "document.xml", body, `<w:sz w:val="22"/>`)
	wantIn(t, "document.xml", body, `<w:jc w:val="right"/>`)
	wantIn(t, "document.xml", body, `<w:spacing w:after="360"/>`)
	wantIn(t, "document.xml", body, `<w:spacing w:after="160"/>`)
	wantIn(t, "document.xml", body, `<w:pgMar w:top="720" w:right="1800" w:bottom="720" w:left="1800"`)

	// The placeholder stays muted even under a template palette.
	wantIn(t, "document.xml", body, `<w:color w:val="808080"/>`)
}

func TestRenderDocxNoSubtitle(t *testing.T) {
	doc := testDoc()
	doc.Subtitle = ""
	data, err := OOXML{}.Render(structure.Word, doc, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := readParts(t, data)["word/document.xml"]
	if strings.Contains(body, "Quarterly business review") {
		t.Error("subtitle should be omitted")
	}
}
