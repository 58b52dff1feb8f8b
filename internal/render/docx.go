package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// zipPart is one file inside an OOXML archive.
type zipPart struct {
	name string
	data string
}

func writeArchive(parts []zipPart) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.data)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func corePropsXML(doc Doc) string {
	ts := docCreated(doc).Format("2006-01-02T15:04:05Z")
	creator := doc.Author
	if creator == "" {
		creator = "docgen"
	}
	return xmlDecl +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"` +
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + esc(doc.Title) + `</dc:title>` +
		`<dc:creator>` + esc(creator) + `</dc:creator>` +
		`<dc:description>Generated on ` + docCreated(doc).Format("2006-01-02 15:04:05") + `</dc:description>` +
		`<cp:lastModifiedBy>` + esc(creator) + `</cp:lastModifiedBy>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

const (
	xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	appPropsXML = xmlDecl +
		`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
		`<Application>docgen</Application></Properties>`

	docxContentTypes = xmlDecl +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
		`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
		`</Types>`

	docxRootRels = xmlDecl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
		`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
		`</Relationships>`
)

// grayText is the run color for not-generated placeholders.
const grayText = "808080"

// wordRun is one styled run. size is in half points, zero inherits the
// document default.
type wordRun struct {
	text   string
	font   string
	size   int
	bold   bool
	italic bool
	color  string
}

func (r wordRun) withText(text string) wordRun {
	r.text = text
	return r
}

func (r wordRun) xml() string {
	var props strings.Builder
	if r.font != "" {
		fmt.Fprintf(&props, `<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s"/>`, esc(r.font))
	}
	if r.bold {
		props.WriteString(`<w:b/>`)
	}
	if r.italic {
		props.WriteString(`<w:i/>`)
	}
	if r.color != "" {
		fmt.Fprintf(&props, `<w:color w:val="%s"/>`, r.color)
	}
	if r.size > 0 {
		fmt.Fprintf(&props, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, r.size, r.size)
	}

	var b strings.Builder
	b.WriteString(`<w:r>`)
	if props.Len() > 0 {
		b.WriteString(`<w:rPr>` + props.String() + `</w:rPr>`)
	}
	for i, line := range strings.Split(r.text, "\n") {
		if i > 0 {
			b.WriteString(`<w:br/>`)
		}
		b.WriteString(`<w:t xml:space="preserve">` + esc(line) + `</w:t>`)
	}
	b.WriteString(`</w:r>`)
	return b.String()
}

// wordPara is one paragraph. after and indent are in twentieths of a point.
type wordPara struct {
	runs   []wordRun
	align  string
	after  int
	indent int
}

func (p wordPara) xml() string {
	var props strings.Builder
	if p.after > 0 {
		fmt.Fprintf(&props, `<w:spacing w:after="%d"/>`, p.after)
	}
	if p.indent > 0 {
		fmt.Fprintf(&props, `<w:ind w:left="%d"/>`, p.indent)
	}
	switch p.align {
	case "center":
		props.WriteString(`<w:jc w:val="center"/>`)
	case "right":
		props.WriteString(`<w:jc w:val="right"/>`)
	}

	var b strings.Builder
	b.WriteString(`<w:p>`)
	if props.Len() > 0 {
		b.WriteString(`<w:pPr>` + props.String() + `</w:pPr>`)
	}
	for _, r := range p.runs {
		b.WriteString(r.xml())
	}
	b.WriteString(`</w:p>`)
	return b.String()
}

// docxTheme carries the resolved formatting for one export.
type docxTheme struct {
	title   wordRun
	heading wordRun
	body    wordRun

	titleAlign   string
	headingAlign string
	bodyAlign    string

	headingAfter int
	bodyAfter    int

	// top, right, bottom, left in twips
	margins [4]int
}

func defaultDocxTheme() docxTheme {
	return docxTheme{
		title:      wordRun{size: 56, bold: true},
		heading:    wordRun{size: 32, bold: true},
		body:       wordRun{size: 22},
		titleAlign: "center",
		bodyAfter:  120,
		margins:    [4]int{1440, 1440, 1440, 1440},
	}
}

func docxThemeFrom(c *Config) docxTheme {
	if c == nil {
		return defaultDocxTheme()
	}
	d := DefaultConfig()

	hFont := c.Typography.HeadingFont
	if hFont == "" {
		hFont = d.Typography.HeadingFont
	}
	bFont := c.Typography.BodyFont
	if bFont == "" {
		bFont = d.Typography.BodyFont
	}
	hSize := c.Typography.HeadingSize
	if hSize <= 0 {
		hSize = d.Typography.HeadingSize
	}
	bSize := c.Typography.BodySize
	if bSize <= 0 {
		bSize = d.Typography.BodySize
	}
	sectionMargin := c.Spacing.SectionMargin
	if sectionMargin <= 0 {
		sectionMargin = d.Spacing.SectionMargin
	}
	paraSpacing := c.Spacing.ParagraphSpacing
	if paraSpacing <= 0 {
		paraSpacing = d.Spacing.ParagraphSpacing
	}

	heading := wordRun{
		font:  hFont,
		size:  hSize * 2,
		bold:  c.Typography.HeadingWeight == "" || c.Typography.HeadingWeight == "bold",
		color: c.headingColor(),
	}
	body := wordRun{
		font:  bFont,
		size:  bSize * 2,
		bold:  c.Typography.BodyWeight == "bold",
		color: c.bodyColor(),
	}

	th := docxTheme{
		title:        heading,
		heading:      heading,
		body:         body,
		titleAlign:   alignOr(c.Styles.TitleAlignment, "center"),
		headingAlign: alignOr(c.Styles.HeadingAlignment, "left"),
		bodyAlign:    alignOr(c.Styles.BodyAlignment, "left"),
		headingAfter: sectionMargin * 20,
		bodyAfter:    paraSpacing * 20,
		margins:      [4]int{1440, 1440, 1440, 1440},
	}
	if m := c.Layout.DocumentMargins; m != nil {
		th.margins = [4]int{
			inchTwips(m, "top"),
			inchTwips(m, "right"),
			inchTwips(m, "bottom"),
			inchTwips(m, "left"),
		}
	}
	return th
}

func alignOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func inchTwips(m map[string]float64, key string) int {
	v, ok := m[key]
	if !ok {
		v = 1
	}
	return int(v * 1440)
}

func writeDocx(doc Doc, style *Config) ([]byte, error) {
	th := docxThemeFrom(style)

	var body strings.Builder
	add := func(p wordPara) { body.WriteString(p.xml()) }

	add(wordPara{align: th.titleAlign, runs: []wordRun{th.title.withText(doc.Title)}})
	if doc.Subtitle != "" {
		sub := th.body
		sub.italic = true
		align := th.bodyAlign
		if style == nil {
			sub.size = 24
			align = "center"
		}
		add(wordPara{align: align, runs: []wordRun{sub.withText(doc.Subtitle)}})
	}
	add(wordPara{})

	for _, item := range doc.Items {
		add(wordPara{
			align: th.headingAlign,
			after: th.headingAfter,
			runs:  []wordRun{th.heading.withText(item.Title)},
		})

		if item.Text == NotGenerated {
			ph := th.body
			ph.italic = true
			ph.color = grayText
			add(wordPara{align: th.bodyAlign, after: th.bodyAfter, runs: []wordRun{ph.withText(item.Text)}})
		} else {
			for _, fp := range docFlow(item.Text) {
				p := wordPara{align: th.bodyAlign, after: th.bodyAfter}
				if fp.bullet {
					p.indent = 720
					if style == nil {
						p.after = 0
					}
					p.runs = []wordRun{th.body.withText("• " + fp.text)}
				} else {
					p.runs = []wordRun{th.body.withText(fp.text)}
				}
				add(p)
			}
		}
		add(wordPara{})
	}

	documentXML := xmlDecl +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() +
		fmt.Sprintf(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/>`+
			`<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/>`+
			`</w:sectPr>`, th.margins[0], th.margins[1], th.margins[2], th.margins[3]) +
		`</w:body></w:document>`

	return writeArchive([]zipPart{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRootRels},
		{"docProps/core.xml", corePropsXML(doc)},
		{"docProps/app.xml", appPropsXML},
		{"word/document.xml", documentXML},
	})
}
