package odt

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBuilder_Letter(t *testing.T) {
	data, err := NewBuilder().
		Title("Ofício 001_2025").
		Heading("COORDENADORIA DE INTELIGÊNCIA").
		Centered("Ofício Nº 001_2025 - NEXT").
		Right("Fortaleza, 5 de março de 2025").
		Paragraph("Ao(à) Delegacia & Cia").
		Blank().
		Bytes()
	require.NoError(t, err)

	doc, err := Open(data)
	require.NoError(t, err)
	content, _ := doc.Part(PartContent)
	meta, _ := doc.Part(PartMeta)

	s := string(content)
	assert.Contains(t, s, `<text:h text:style-name="HCenter" text:outline-level="1">COORDENADORIA DE INTELIGÊNCIA</text:h>`)
	assert.Contains(t, s, `>Ofício Nº 001_2025 - NEXT</text:p>`)
	assert.Contains(t, s, `>Ao(à) Delegacia &amp; Cia</text:p>`)
	assert.Contains(t, string(meta), `<dc:title>Ofício 001_2025</dc:title>`)
	assert.NotContains(t, s, "draw:image")
}

func TestBuilder_Logo(t *testing.T) {
	logo := tinyPNG(t, 40, 20)

	doc := NewBuilder().Logo(logo).Paragraph("x").Document()

	img, ok := doc.Part("Pictures/logo.png")
	require.True(t, ok)
	assert.Equal(t, logo, img)

	content, _ := doc.Part(PartContent)
	manifest, _ := doc.Part(PartManifest)
	assert.Contains(t, string(content), `svg:width="5.00cm" svg:height="2.50cm"`)
	assert.Contains(t, string(manifest), `manifest:full-path="Pictures/logo.png" manifest:media-type="image/png"`)
}

func TestBuilder_OutputIsRenderable(t *testing.T) {
	data, err := NewBuilder().Paragraph("Processo: {{case_number}}").Bytes()
	require.NoError(t, err)

	out, err := Render(data, Vars{"case_number": "77"})
	require.NoError(t, err)

	doc, err := Open(out)
	require.NoError(t, err)
	content, _ := doc.Part(PartContent)
	assert.Contains(t, string(content), `>Processo: 77</text:p>`)
}

func TestLogoSizeCM_Unknown(t *testing.T) {
	w, h := logoSizeCM([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "))
	assert.Equal(t, logoHeightCM, w)
	assert.Equal(t, logoHeightCM, h)
}
