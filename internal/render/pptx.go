package render

import (
	"fmt"
	"strings"
)

const emuPerInch = 914400

const (
	pptxRootRels = xmlDecl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
		`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
		`</Relationships>`

	pptxMasterRels = xmlDecl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>` +
		`</Relationships>`

	pptxLayoutRels = xmlDecl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
		`</Relationships>`

	pptxSlideRels = xmlDecl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
		`</Relationships>`

	pptxNamespaces = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

	spTreeHeader = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/>` +
		`<a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

	pptxLayout = xmlDecl +
		`<p:sldLayout ` + pptxNamespaces + `>` +
		`<p:cSld name="Blank"><p:spTree>` + spTreeHeader + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
		`</p:sldLayout>`

	pptxTheme = xmlDecl +
		`<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office Theme">` +
		`<a:themeElements>` +
		`<a:clrScheme name="Office">` +
		`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>` +
		`<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
		`<a:dk2><a:srgbClr val="44546A"/></a:dk2>` +
		`<a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
		`<a:accent1><a:srgbClr val="4472C4"/></a:accent1>` +
		`<a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
		`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>` +
		`<a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
		`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5>` +
		`<a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
		`<a:hlink><a:srgbClr val="0563C1"/></a:hlink>` +
		`<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
		`</a:clrScheme>` +
		`<a:fontScheme name="Office">` +
		`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
		`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
		`</a:fontScheme>` +
		`<a:fmtScheme name="Office">` +
		`<a:fillStyleLst>` +
		`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
		`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
		`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
		`</a:fillStyleLst>` +
		`<a:lnStyleLst>` +
		`<a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>` +
		`<a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>` +
		`<a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>` +
		`</a:lnStyleLst>` +
		`<a:effectStyleLst>` +
		`<a:effectStyle><a:effectLst/></a:effectStyle>` +
		`<a:effectStyle><a:effectLst/></a:effectStyle>` +
		`<a:effectStyle><a:effectLst/></a:effectStyle>` +
		`</a:effectStyleLst>` +
		`<a:bgFillStyleLst>` +
		`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
		`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
		`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
		`</a:bgFillStyleLst>` +
		`</a:fmtScheme>` +
		`</a:themeElements>` +
		`</a:theme>`
)

// slideRun is one styled run. size is in hundredths of a point, zero
// inherits the theme default.
type slideRun struct {
	text   string
	font   string
	size   int
	bold   bool
	italic bool
	color  string
}

func (r slideRun) withText(text string) slideRun {
	r.text = text
	return r
}

func (r slideRun) xml() string {
	attrs := ` lang="en-US"`
	if r.size > 0 {
		attrs += fmt.Sprintf(` sz="%d"`, r.size)
	}
	if r.bold {
		attrs += ` b="1"`
	}
	if r.italic {
		attrs += ` i="1"`
	}
	var children strings.Builder
	if r.color != "" {
		children.WriteString(`<a:solidFill><a:srgbClr val="` + r.color + `"/></a:solidFill>`)
	}
	if r.font != "" {
		children.WriteString(`<a:latin typeface="` + esc(r.font) + `"/>`)
	}

	// Intra-paragraph newlines become explicit breaks between runs.
	var b strings.Builder
	for i, line := range strings.Split(r.text, "\n") {
		if i > 0 {
			b.WriteString(`<a:br/>`)
		}
		b.WriteString(`<a:r><a:rPr` + attrs + `>` + children.String() + `</a:rPr><a:t>` + esc(line) + `</a:t></a:r>`)
	}
	return b.String()
}

func slideParaXML(align string, run slideRun) string {
	var b strings.Builder
	b.WriteString(`<a:p>`)
	switch align {
	case "center":
		b.WriteString(`<a:pPr algn="ctr"/>`)
	case "right":
		b.WriteString(`<a:pPr algn="r"/>`)
	}
	b.WriteString(run.xml())
	b.WriteString(`</a:p>`)
	return b.String()
}

// slideShape renders one rectangular text box. Geometry is in EMU.
func slideShape(id int, name string, x, y, cx, cy int64, paras string) string {
	if paras == "" {
		paras = `<a:p/>`
	}
	return `<p:sp>` +
		fmt.Sprintf(`<p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, esc(name)) +
		fmt.Sprintf(`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, x, y, cx, cy) +
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>` +
		`<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>` + paras + `</p:txBody>` +
		`</p:sp>`
}

// pptxStyle carries the resolved formatting for one export.
type pptxStyle struct {
	title slideRun
	body  slideRun

	titleAlign string
	bodyAlign  string

	background string
	cx, cy     int64
}

func defaultPptxStyle() pptxStyle {
	return pptxStyle{
		title:      slideRun{size: 4400},
		body:       slideRun{size: 1800},
		titleAlign: "center",
		background: "FFFFFF",
		cx:         10 * emuPerInch,
		cy:         7.5 * emuPerInch,
	}
}

func pptxStyleFrom(c *Config) pptxStyle {
	if c == nil {
		return defaultPptxStyle()
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
	width := c.Layout.SlideWidth
	if width <= 0 {
		width = d.Layout.SlideWidth
	}
	height := c.Layout.SlideHeight
	if height <= 0 {
		height = d.Layout.SlideHeight
	}

	return pptxStyle{
		title: slideRun{
			font:  hFont,
			size:  hSize * 100,
			bold:  true,
			color: c.headingColor(),
		},
		body: slideRun{
			font:  bFont,
			size:  bSize * 100,
			color: c.bodyColor(),
		},
		titleAlign: alignOr(c.Styles.TitleAlignment, "center"),
		bodyAlign:  alignOr(c.Styles.BodyAlignment, "left"),
		background: hexAttr(c.ColorPalette.Background, "#FFFFFF"),
		cx:         int64(width * emuPerInch),
		cy:         int64(height * emuPerInch),
	}
}

func slideXML(st pptxStyle, item Item) string {
	margin := int64(emuPerInch / 2)
	titleTop := int64(emuPerInch * 3 / 10)
	titleH := int64(emuPerInch * 5 / 4)
	bodyTop := titleTop + titleH + emuPerInch/5
	bodyH := st.cy - bodyTop - titleTop
	boxW := st.cx - 2*margin

	var paras strings.Builder
	if item.Text == NotGenerated {
		ph := st.body
		ph.size = 1400
		ph.italic = true
		ph.color = grayText
		paras.WriteString(slideParaXML(st.bodyAlign, ph.withText(item.Text)))
	} else {
		for _, fp := range slideFlow(item.Text) {
			text := fp.text
			if fp.bullet {
				text = "• " + text
			}
			paras.WriteString(slideParaXML(st.bodyAlign, st.body.withText(text)))
		}
	}

	tree := slideShape(2, "Title", margin, titleTop, boxW, titleH,
		slideParaXML(st.titleAlign, st.title.withText(item.Title))) +
		slideShape(3, "Content", margin, bodyTop, boxW, bodyH, paras.String())

	return xmlDecl +
		`<p:sld ` + pptxNamespaces + `>` +
		`<p:cSld><p:spTree>` + spTreeHeader + tree + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
		`</p:sld>`
}

func masterXML(background string) string {
	return xmlDecl +
		`<p:sldMaster ` + pptxNamespaces + `>` +
		`<p:cSld><p:bg><p:bgPr><a:solidFill><a:srgbClr val="` + background + `"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>` +
		`<p:spTree>` + spTreeHeader + `</p:spTree></p:cSld>` +
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2"` +
		` accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
		`</p:sldMaster>`
}

func writePptx(doc Doc, style *Config) ([]byte, error) {
	st := pptxStyleFrom(style)

	var (
		typeOverrides strings.Builder
		presRels      strings.Builder
		slideIDs      strings.Builder
		parts         []zipPart
	)
	presRels.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)

	for i, item := range doc.Items {
		n := i + 1
		name := fmt.Sprintf("ppt/slides/slide%d.xml", n)
		fmt.Fprintf(&typeOverrides, `<Override PartName="/%s" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, name)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, n+1, n)
		fmt.Fprintf(&slideIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n+1)
		parts = append(parts,
			zipPart{name, slideXML(st, item)},
			zipPart{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), pptxSlideRels},
		)
	}

	contentTypes := xmlDecl +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
		`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>` +
		`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>` +
		`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>` +
		typeOverrides.String() +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
		`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
		`</Types>`

	presentation := xmlDecl +
		`<p:presentation ` + pptxNamespaces + `>` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		`<p:sldIdLst>` + slideIDs.String() + `</p:sldIdLst>` +
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d"/>`, st.cx, st.cy) +
		`<p:notesSz cx="6858000" cy="9144000"/>` +
		`</p:presentation>`

	presentationRels := xmlDecl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		presRels.String() +
		`</Relationships>`

	all := []zipPart{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", pptxRootRels},
		{"docProps/core.xml", corePropsXML(doc)},
		{"docProps/app.xml", appPropsXML},
		{"ppt/presentation.xml", presentation},
		{"ppt/_rels/presentation.xml.rels", presentationRels},
		{"ppt/slideMasters/slideMaster1.xml", masterXML(st.background)},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", pptxMasterRels},
		{"ppt/slideLayouts/slideLayout1.xml", pptxLayout},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", pptxLayoutRels},
		{"ppt/theme/theme1.xml", pptxTheme},
	}
	all = append(all, parts...)
	return writeArchive(all)
}
