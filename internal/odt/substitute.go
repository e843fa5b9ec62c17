package odt

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Vars maps token names to replacement text.
type Vars map[string]string

// tokenPattern matches {{name}} with optional inner whitespace.
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// ExpandTokens replaces every known token in s and returns the count replaced.
// Unknown tokens are left exactly as written.
func ExpandTokens(s string, vars Vars) (string, int) {
	if !strings.Contains(s, "{{") {
		return s, 0
	}
	n := 0
	out := tokenPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := tokenPattern.FindStringSubmatch(m)[1]
		if v, ok := vars[key]; ok {
			n++
			return v
		}
		return m
	})
	return out, n
}

// Tokens returns the distinct token names used in s, in order of appearance.
func Tokens(s string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range tokenPattern.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

const nsText = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"

// inlineText lists paragraph children that carry only text and formatting.
// A paragraph holding anything else (frames, notes, fields) is never flattened.
var inlineText = map[string]bool{
	"span":            true,
	"a":               true,
	"s":               true,
	"tab":             true,
	"line-break":      true,
	"soft-page-break": true,
	"bookmark":        true,
	"bookmark-start":  true,
	"bookmark-end":    true,
}

type textRun struct {
	start, end int
	text       string
	rich       bool // parent accepts text:tab and text:line-break
}

type paragraph struct {
	prefix      string
	innerStart  int
	runs        []textRun
	full        strings.Builder
	flattenable bool
	nested      bool

	// collapse is set after collapsible whitespace and at paragraph start.
	collapse bool
	// tailSpace reports that full ends with collapsible whitespace.
	tailSpace bool
}

// writeText appends character data the way ODF consumers display it:
// whitespace characters collapse to one space, leading whitespace is dropped.
func (p *paragraph) writeText(text string) {
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r':
			if !p.collapse {
				p.full.WriteByte(' ')
				p.collapse = true
				p.tailSpace = true
			}
		default:
			p.full.WriteRune(r)
			p.collapse = false
			p.tailSpace = false
		}
	}
}

// writeLiteral appends text produced by text:s, text:tab or text:line-break.
func (p *paragraph) writeLiteral(s string) {
	p.full.WriteString(s)
	p.collapse = false
	p.tailSpace = false
}

// text returns the displayed paragraph text without trailing collapsible space.
func (p *paragraph) text() string {
	s := p.full.String()
	if p.tailSpace {
		s = s[:len(s)-1]
	}
	return s
}

type edit struct {
	start, end int
	repl       string
}

// SubstituteXML replaces tokens inside every text:p and text:h element of an
// ODF XML part. Bytes outside the edited text are kept verbatim.
//
// A token wholly inside one text run is replaced in place and keeps its
// formatting. A token split across runs (for example by a span boundary) is
// replaced by rewriting the paragraph as plain text.
func SubstituteXML(data []byte, vars Vars) ([]byte, int, error) {
	if !bytes.Contains(data, []byte("{{")) {
		return data, 0, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		stack []xml.Name
		paras []*paragraph
		edits []edit
		total int
	)

	for {
		start := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
		}
		end := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			cur := top(paras)
			switch {
			case isParagraph(t.Name):
				if cur != nil {
					cur.nested = true
				}
				paras = append(paras, &paragraph{
					prefix:      rawPrefix(data[start:end]),
					innerStart:  end,
					flattenable: true,
					collapse:    true,
				})
			case cur != nil:
				if t.Name.Space != nsText || !inlineText[t.Name.Local] {
					cur.flattenable = false
				}
				if t.Name.Space == nsText {
					switch t.Name.Local {
					case "s":
						cur.writeLiteral(strings.Repeat(" ", spaceCount(t)))
					case "tab":
						cur.writeLiteral("\t")
					case "line-break":
						cur.writeLiteral("\n")
					}
				}
			}
			stack = append(stack, t.Name)

		case xml.EndElement:
			stack = stack[:len(stack)-1]
			if isParagraph(t.Name) && len(paras) > 0 {
				p := paras[len(paras)-1]
				paras = paras[:len(paras)-1]
				pe, n := p.finish(start, vars)
				edits = append(edits, pe...)
				total += n
			}

		case xml.CharData:
			if p := top(paras); p != nil {
				text := string(t)
				p.runs = append(p.runs, textRun{start: start, end: end, text: text, rich: isRich(stack[len(stack)-1])})
				p.writeText(text)
			}
		}
	}

	if total == 0 {
		return data, 0, nil
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var out bytes.Buffer
	out.Grow(len(data))
	pos := 0
	for _, e := range edits {
		out.Write(data[pos:e.start])
		out.WriteString(e.repl)
		pos = e.end
	}
	out.Write(data[pos:])
	return out.Bytes(), total, nil
}

func (p *paragraph) finish(innerEnd int, vars Vars) ([]edit, int) {
	var edits []edit
	perRun := 0
	for _, r := range p.runs {
		out, n := ExpandTokens(r.text, vars)
		if n == 0 {
			continue
		}
		perRun += n
		edits = append(edits, edit{start: r.start, end: r.end, repl: encodeRun(out, r.rich, p.prefix)})
	}

	if p.nested || !p.flattenable {
		return edits, perRun
	}
	out, n := ExpandTokens(p.text(), vars)
	if n <= perRun {
		return edits, perRun
	}
	return []edit{{start: p.innerStart, end: innerEnd, repl: encodeFlat(out, p.prefix)}}, n
}

func top(paras []*paragraph) *paragraph {
	if len(paras) == 0 {
		return nil
	}
	return paras[len(paras)-1]
}

func isParagraph(n xml.Name) bool {
	return n.Space == nsText && (n.Local == "p" || n.Local == "h")
}

func isRich(n xml.Name) bool {
	if n.Space != nsText {
		return false
	}
	switch n.Local {
	case "p", "h", "span", "a":
		return true
	}
	return false
}

// rawPrefix extracts the namespace prefix from a raw start tag ("<text:p ...>" -> "text").
// An unprefixed tag means the text namespace is the default one and yields "".
func rawPrefix(tag []byte) string {
	tag = bytes.TrimPrefix(tag, []byte("<"))
	if i := bytes.IndexByte(tag, ':'); i > 0 {
		if j := bytes.IndexAny(tag, " \t\r\n/>"); j < 0 || i < j {
			return string(tag[:i])
		}
	}
	return ""
}

// element renders an empty text element under prefix.
func element(prefix, local string) string {
	if prefix == "" {
		return "<" + local + "/>"
	}
	return "<" + prefix + ":" + local + "/>"
}

func spaceCount(t xml.StartElement) int {
	for _, a := range t.Attr {
		if a.Name.Space == nsText && a.Name.Local == "c" {
			if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// encodeRun escapes replacement text for an existing run. Tabs and line
// breaks become ODF elements where the parent allows them.
func encodeRun(s string, rich bool, prefix string) string {
	if !rich {
		return escape(s)
	}
	var b strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteString(element(prefix, "line-break"))
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				b.WriteString(element(prefix, "tab"))
			}
			b.WriteString(escape(seg))
		}
	}
	return b.String()
}

// encodeFlat renders plain paragraph text, keeping repeated spaces with text:s.
func encodeFlat(s string, prefix string) string {
	var b strings.Builder
	var seg strings.Builder
	flush := func() {
		b.WriteString(escape(seg.String()))
		seg.Reset()
	}
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '\n':
			flush()
			b.WriteString(element(prefix, "line-break"))
		case '\t':
			flush()
			b.WriteString(element(prefix, "tab"))
		case ' ':
			n := 1
			for i+n < len(runes) && runes[i+n] == ' ' {
				n++
			}
			seg.WriteByte(' ')
			if n > 1 {
				flush()
				switch {
				case n == 2:
					b.WriteString(element(prefix, "s"))
				case prefix == "":
					// An unprefixed c attribute would lose its namespace.
					b.WriteString(strings.Repeat(element(prefix, "s"), n-1))
				default:
					b.WriteString("<" + prefix + ":s " + prefix + ":c=\"" + strconv.Itoa(n-1) + "\"/>")
				}
			}
			i += n - 1
		default:
			seg.WriteRune(r)
		}
	}
	flush()
	return b.String()
}
