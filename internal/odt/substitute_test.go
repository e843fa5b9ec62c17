package odt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentXML(body string) []byte {
	return []byte(xmlHeader + `<office:document-content ` + namespaces + ` office:version="1.3"><office:body><office:text>` +
		body + `</office:text></office:body></office:document-content>`)
}

func TestExpandTokens(t *testing.T) {
	vars := Vars{"a": "X", "b": "Y"}

	out, n := ExpandTokens("{{a}} and {{ b }} and {{  c}} and {{a }}", vars)

	assert.Equal(t, "X and Y and {{  c}} and X", out)
	assert.Equal(t, 3, n)
}

func TestExpandTokens_NoTokens(t *testing.T) {
	out, n := ExpandTokens("plain text {single}", Vars{"single": "x"})
	assert.Equal(t, "plain text {single}", out)
	assert.Zero(t, n)
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"year", "case_number"}, Tokens("{{year}} {{ case_number }} {{year}}"))
	assert.Empty(t, Tokens("nothing here"))
}

func TestSubstituteXML_KnownAndUnknown(t *testing.T) {
	in := contentXML(`<text:p text:style-name="P1">Ofício {{dispatch_number_formatted}} - {{unknown_token}}</text:p>`)

	out, n, err := SubstituteXML(in, Vars{"dispatch_number_formatted": "007_2025"})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, string(out), `<text:p text:style-name="P1">Ofício 007_2025 - {{unknown_token}}</text:p>`)
}

func TestSubstituteXML_UnknownOnlyIsIdempotent(t *testing.T) {
	in := contentXML(`<text:p>{{ nobody_knows }}</text:p><text:h text:outline-level="1">{{missing}}</text:h>`)

	first, n1, err := SubstituteXML(in, Vars{"year": "2025"})
	require.NoError(t, err)
	second, n2, err := SubstituteXML(first, Vars{"year": "2025"})
	require.NoError(t, err)

	assert.Zero(t, n1)
	assert.Zero(t, n2)
	assert.Equal(t, in, first)
	assert.Equal(t, first, second)
}

func TestSubstituteXML_KeepsRunFormatting(t *testing.T) {
	in := contentXML(`<text:p>Ano: <text:span text:style-name="Bold">{{ year }}</text:span>.</text:p>`)

	out, n, err := SubstituteXML(in, Vars{"year": "2025"})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, string(out), `<text:p>Ano: <text:span text:style-name="Bold">2025</text:span>.</text:p>`)
}

func TestSubstituteXML_TokenSplitAcrossRuns(t *testing.T) {
	in := contentXML(`<text:p text:style-name="P1">Nº <text:span text:style-name="T1">{{dispatch_</text:span>number}}</text:p>`)

	out, n, err := SubstituteXML(in, Vars{"dispatch_number": "001"})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, string(out), `<text:p text:style-name="P1">Nº 001</text:p>`)
}

func TestSubstituteXML_SplitTokenNextToFrameIsLeftAlone(t *testing.T) {
	in := contentXML(`<text:p>{{dispatch_<draw:frame draw:name="img"/>number}}</text:p>`)

	out, n, err := SubstituteXML(in, Vars{"dispatch_number": "001"})

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, in, out)
}

func TestSubstituteXML_Headings(t *testing.T) {
	in := contentXML(`<text:h text:outline-level="2">Processo {{case_number}}</text:h>`)

	out, _, err := SubstituteXML(in, Vars{"case_number": "123/2025"})

	require.NoError(t, err)
	assert.Contains(t, string(out), `<text:h text:outline-level="2">Processo 123/2025</text:h>`)
}

func TestSubstituteXML_EscapesValues(t *testing.T) {
	in := contentXML(`<text:p>{{requester_unit}}</text:p>`)

	out, _, err := SubstituteXML(in, Vars{"requester_unit": "Delegacia <Centro> & Cia"})

	require.NoError(t, err)
	assert.Contains(t, string(out), `<text:p>Delegacia &lt;Centro&gt; &amp; Cia</text:p>`)
}

func TestSubstituteXML_MultilineValue(t *testing.T) {
	in := contentXML(`<text:p>{{incharge_name}}</text:p>`)

	out, _, err := SubstituteXML(in, Vars{"incharge_name": "Fulano\nPerito"})

	require.NoError(t, err)
	assert.Contains(t, string(out), `<text:p>Fulano<text:line-break/>Perito</text:p>`)
}

func TestSubstituteXML_IgnoresTextOutsideParagraphs(t *testing.T) {
	in := contentXML(`<text:variable-decls><text:variable-decl office:value-type="string" text:name="{{year}}"/></text:variable-decls><text:p>{{year}}</text:p>`)

	out, n, err := SubstituteXML(in, Vars{"year": "2025"})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, string(out), `text:name="{{year}}"`)
	assert.Contains(t, string(out), `<text:p>2025</text:p>`)
}

func TestSubstituteXML_NestedParagraph(t *testing.T) {
	in := contentXML(`<text:p>{{year}}<draw:frame><draw:text-box><text:p>{{case_number}}</text:p></draw:text-box></draw:frame></text:p>`)

	out, n, err := SubstituteXML(in, Vars{"year": "2025", "case_number": "42"})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, string(out), `<text:p>2025<draw:frame><draw:text-box><text:p>42</text:p></draw:text-box></draw:frame></text:p>`)
}

func TestSubstituteXML_Malformed(t *testing.T) {
	_, _, err := SubstituteXML([]byte(`<a xmlns:text="`+nsText+`"><text:p>{{x}}</a>`), Vars{"x": "1"})
	assert.ErrorIs(t, err, ErrInvalidPackage)
}

func TestEncodeFlat(t *testing.T) {
	assert.Equal(t, `a <text:s text:c="2"/>b<text:tab/>c<text:line-break/>d`, encodeFlat("a   b\tc\nd", "text"))
	assert.Equal(t, `a <text:s/>b`, encodeFlat("a  b", "text"))
	assert.Equal(t, `x &amp; y`, encodeFlat("x & y", "text"))
}

func TestSubstituteXML_SplitTokenIgnoresSourceWhitespace(t *testing.T) {
	in := contentXML("<text:p>\n   <text:span>{{case_</text:span><text:span>number}}</text:span>\n</text:p>")

	out, n, err := SubstituteXML(in, Vars{"case_number": "P-1"})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, string(out), `<text:p>P-1</text:p>`)
	assert.NotContains(t, string(out), "line-break")
}

func TestSubstituteXML_SplitTokenKeepsEncodedSpaces(t *testing.T) {
	in := contentXML(`<text:p>A<text:s text:c="2"/><text:span>{{case_</text:span>number}}</text:p>`)

	out, _, err := SubstituteXML(in, Vars{"case_number": "P-1"})

	require.NoError(t, err)
	assert.Contains(t, string(out), `<text:p>A <text:s/>P-1</text:p>`)
}

const defaultTextNamespace = xmlHeader + `<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:text:1.0"><office:body><office:text>%s</office:text></office:body></office:document-content>`

func TestSubstituteXML_DefaultTextNamespace(t *testing.T) {
	in := []byte(fmt.Sprintf(defaultTextNamespace, `<p>{{incharge_name}}</p><p><span>{{case_</span>number}}</p>`))

	out, n, err := SubstituteXML(in, Vars{"incharge_name": "Fulano\nPerito", "case_number": "a   b"})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, string(out), `<p>Fulano<line-break/>Perito</p>`)
	assert.Contains(t, string(out), `<p>a <s/><s/>b</p>`)
	assert.NotContains(t, string(out), "<text:")

	_, _, err = SubstituteXML(out, Vars{})
	assert.NoError(t, err)
}

func TestRawPrefix(t *testing.T) {
	assert.Equal(t, "text", rawPrefix([]byte(`<text:p text:style-name="P1">`)))
	assert.Equal(t, "t", rawPrefix([]byte(`<t:h>`)))
	assert.Equal(t, "", rawPrefix([]byte(`<p style:name="x">`)))
}
