package odt

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // logo formats
	_ "image/jpeg" // logo formats
	_ "image/png"  // logo formats
	"strings"

	"oficio/internal/core/media"
)

const (
	styleStandard = "Standard"
	styleCenter   = "PCenter"
	styleRight    = "PRight"
	styleJustify  = "PJustify"
	styleHeading  = "HCenter"
)

const logoHeightCM = 2.5

type block struct {
	heading bool
	style   string
	text    string
}

// Builder assembles a simple text document from headings and paragraphs.
type Builder struct {
	title  string
	logo   []byte
	blocks []block
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Title sets the document title stored in meta.xml.
func (b *Builder) Title(title string) *Builder {
	b.title = title
	return b
}

// Logo embeds an image centred above the first block. Empty data is ignored.
func (b *Builder) Logo(data []byte) *Builder {
	b.logo = data
	return b
}

// Heading adds a centred bold heading.
func (b *Builder) Heading(text string) *Builder {
	b.blocks = append(b.blocks, block{heading: true, style: styleHeading, text: text})
	return b
}

// Paragraph adds a left aligned paragraph.
func (b *Builder) Paragraph(text string) *Builder {
	b.blocks = append(b.blocks, block{style: styleStandard, text: text})
	return b
}

// Centered adds a centred paragraph.
func (b *Builder) Centered(text string) *Builder {
	b.blocks = append(b.blocks, block{style: styleCenter, text: text})
	return b
}

// Right adds a right aligned paragraph.
func (b *Builder) Right(text string) *Builder {
	b.blocks = append(b.blocks, block{style: styleRight, text: text})
	return b
}

// Justified adds a justified paragraph.
func (b *Builder) Justified(text string) *Builder {
	b.blocks = append(b.blocks, block{style: styleJustify, text: text})
	return b
}

// Blank adds an empty paragraph.
func (b *Builder) Blank() *Builder {
	return b.Paragraph("")
}

// Document builds the package in memory.
func (b *Builder) Document() *Document {
	d := New()
	logoPath := ""
	logoMIME := ""
	if len(b.logo) > 0 {
		logoMIME = media.DetectImageMIME(b.logo)
		logoPath = "Pictures/logo" + media.Extension(logoMIME)
	}

	d.SetPart(PartManifest, b.manifest(logoPath, logoMIME))
	d.SetPart(PartContent, b.content(logoPath))
	d.SetPart(PartStyles, []byte(stylesXML))
	d.SetPart(PartMeta, b.meta())
	if logoPath != "" {
		d.SetPart(logoPath, b.logo)
	}
	return d
}

// Bytes builds and serializes the package.
func (b *Builder) Bytes() ([]byte, error) {
	return b.Document().Bytes()
}

func (b *Builder) content(logoPath string) []byte {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<office:document-content ` + namespaces + ` office:version="1.3">`)
	sb.WriteString(`<office:automatic-styles>`)
	sb.WriteString(`<style:style style:name="` + styleCenter + `" style:family="paragraph" style:parent-style-name="Standard"><style:paragraph-properties fo:text-align="center"/></style:style>`)
	sb.WriteString(`<style:style style:name="` + styleRight + `" style:family="paragraph" style:parent-style-name="Standard"><style:paragraph-properties fo:text-align="end"/></style:style>`)
	sb.WriteString(`<style:style style:name="` + styleJustify + `" style:family="paragraph" style:parent-style-name="Standard"><style:paragraph-properties fo:text-align="justify"/></style:style>`)
	sb.WriteString(`<style:style style:name="` + styleHeading + `" style:family="paragraph" style:parent-style-name="Heading"><style:paragraph-properties fo:text-align="center"/><style:text-properties fo:font-weight="bold"/></style:style>`)
	sb.WriteString(`<style:style style:name="fr1" style:family="graphic"><style:graphic-properties style:horizontal-pos="center" style:horizontal-rel="paragraph"/></style:style>`)
	sb.WriteString(`</office:automatic-styles>`)
	sb.WriteString(`<office:body><office:text>`)

	if logoPath != "" {
		w, h := logoSizeCM(b.logo)
		fmt.Fprintf(&sb,
			`<text:p text:style-name="%s"><draw:frame draw:style-name="fr1" draw:name="Logo" text:anchor-type="as-char" svg:width="%.2fcm" svg:height="%.2fcm" draw:z-index="0"><draw:image xlink:href="%s" xlink:type="simple" xlink:show="embed" xlink:actuate="onLoad"/></draw:frame></text:p>`,
			styleCenter, w, h, escape(logoPath))
	}

	for _, bl := range b.blocks {
		if bl.heading {
			fmt.Fprintf(&sb, `<text:h text:style-name="%s" text:outline-level="1">%s</text:h>`, bl.style, encodeFlat(bl.text, "text"))
			continue
		}
		fmt.Fprintf(&sb, `<text:p text:style-name="%s">%s</text:p>`, bl.style, encodeFlat(bl.text, "text"))
	}

	sb.WriteString(`</office:text></office:body></office:document-content>`)
	return []byte(sb.String())
}

func (b *Builder) manifest(logoPath, logoMIME string) []byte {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.3">`)
	sb.WriteString(`<manifest:file-entry manifest:full-path="/" manifest:version="1.3" manifest:media-type="` + MIMEType + `"/>`)
	for _, p := range []string{PartContent, PartStyles, PartMeta} {
		sb.WriteString(`<manifest:file-entry manifest:full-path="` + p + `" manifest:media-type="text/xml"/>`)
	}
	if logoPath != "" {
		sb.WriteString(`<manifest:file-entry manifest:full-path="` + logoPath + `" manifest:media-type="` + logoMIME + `"/>`)
	}
	sb.WriteString(`</manifest:manifest>`)
	return []byte(sb.String())
}

func (b *Builder) meta() []byte {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<office:document-meta xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0" xmlns:dc="http://purl.org/dc/elements/1.1/" office:version="1.3"><office:meta>`)
	sb.WriteString(`<meta:generator>oficio</meta:generator>`)
	if b.title != "" {
		sb.WriteString(`<dc:title>` + escape(b.title) + `</dc:title>`)
	}
	sb.WriteString(`</office:meta></office:document-meta>`)
	return []byte(sb.String())
}

// logoSizeCM keeps a fixed height and scales the width by aspect ratio.
// Formats the image package cannot decode are drawn square.
func logoSizeCM(data []byte) (float64, float64) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return logoHeightCM, logoHeightCM
	}
	w := logoHeightCM * float64(cfg.Width) / float64(cfg.Height)
	if w > 16 {
		w = 16
	}
	return w, logoHeightCM
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

const namespaces = `xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" ` +
	`xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" ` +
	`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" ` +
	`xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0" ` +
	`xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0" ` +
	`xmlns:xlink="http://www.w3.org/1999/xlink" ` +
	`xmlns:svg="urn:oasis:names:tc:opendocument:xmlns:svg-compatible:1.0"`

const stylesXML = xmlHeader + `<office:document-styles ` + namespaces + ` office:version="1.3">` +
	`<office:styles>` +
	`<style:default-style style:family="paragraph"><style:paragraph-properties fo:margin-bottom="0.21cm"/><style:text-properties style:font-name="Liberation Serif" fo:font-size="12pt" fo:language="pt" fo:country="BR"/></style:default-style>` +
	`<style:style style:name="Standard" style:family="paragraph" style:class="text"/>` +
	`<style:style style:name="Heading" style:family="paragraph" style:parent-style-name="Standard" style:class="text"><style:text-properties fo:font-size="12pt" fo:font-weight="bold"/></style:style>` +
	`</office:styles>` +
	`<office:automatic-styles><style:page-layout style:name="pm1"><style:page-layout-properties fo:page-width="21cm" fo:page-height="29.7cm" fo:margin-top="2cm" fo:margin-bottom="2cm" fo:margin-left="3cm" fo:margin-right="2cm"/></style:page-layout></office:automatic-styles>` +
	`<office:master-styles><style:master-page style:name="Standard" style:page-layout-name="pm1"/></office:master-styles>` +
	`</office:document-styles>`
