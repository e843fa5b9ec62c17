// Package odt reads, rewrites and builds OpenDocument Text packages.
//
// A package is a zip container whose first entry is an uncompressed
// "mimetype" file, followed by XML parts (content.xml, styles.xml, ...)
// and binary resources.
package odt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// Media types.
const (
	MIMEType         = "application/vnd.oasis.opendocument.text"
	TemplateMIMEType = "application/vnd.oasis.opendocument.text-template"
)

// Well-known part names.
const (
	PartMimetype = "mimetype"
	PartContent  = "content.xml"
	PartStyles   = "styles.xml"
	PartMeta     = "meta.xml"
	PartManifest = "META-INF/manifest.xml"
)

// maxPartSize bounds a single uncompressed part.
const maxPartSize = 64 << 20

// ErrInvalidPackage is returned for data that is not a readable text document.
var ErrInvalidPackage = errors.New("odt: invalid package")

type part struct {
	name     string
	data     []byte
	modified time.Time
}

// Document is an in-memory ODF text package.
type Document struct {
	parts []*part
}

// New returns an empty text document package.
func New() *Document {
	d := &Document{}
	d.SetPart(PartMimetype, []byte(MIMEType))
	return d
}

// Open parses a packaged .odt or .ott file.
// Templates (.ott) are converted to plain text documents.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	d := &Document{}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if f.UncompressedSize64 > maxPartSize {
			return nil, fmt.Errorf("%w: part %s too large", ErrInvalidPackage, f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidPackage, f.Name, err)
		}
		b, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidPackage, f.Name, err)
		}
		if len(b) > maxPartSize {
			return nil, fmt.Errorf("%w: part %s too large", ErrInvalidPackage, f.Name)
		}
		d.parts = append(d.parts, &part{name: f.Name, data: b, modified: f.Modified})
	}

	if _, ok := d.Part(PartContent); !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidPackage, PartContent)
	}

	switch mt, _ := d.Part(PartMimetype); strings.TrimSpace(string(mt)) {
	case MIMEType, "":
		d.SetPart(PartMimetype, []byte(MIMEType))
	case TemplateMIMEType:
		d.convertTemplate()
	default:
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidPackage, mt)
	}

	return d, nil
}

// convertTemplate turns an .ott package into an .odt package.
func (d *Document) convertTemplate() {
	d.SetPart(PartMimetype, []byte(MIMEType))
	if m, ok := d.Part(PartManifest); ok {
		d.SetPart(PartManifest, bytes.ReplaceAll(m, []byte(TemplateMIMEType), []byte(MIMEType)))
	}
}

// Part returns the content of a named part.
func (d *Document) Part(name string) ([]byte, bool) {
	for _, p := range d.parts {
		if p.name == name {
			return p.data, true
		}
	}
	return nil, false
}

// SetPart adds or replaces a named part.
func (d *Document) SetPart(name string, data []byte) {
	for _, p := range d.parts {
		if p.name == name {
			p.data = data
			return
		}
	}
	d.parts = append(d.parts, &part{name: name, data: data})
}

// Names lists part names in package order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.parts))
	for _, p := range d.parts {
		names = append(names, p.name)
	}
	return names
}

// Substitute replaces tokens in the text paragraphs and headings of the
// body (content.xml) and of headers and footers (styles.xml).
// Returns the number of tokens replaced.
func (d *Document) Substitute(vars Vars) (int, error) {
	total := 0
	for _, name := range []string{PartContent, PartStyles} {
		data, ok := d.Part(name)
		if !ok {
			continue
		}
		out, n, err := SubstituteXML(data, vars)
		if err != nil {
			return total, fmt.Errorf("%s: %w", name, err)
		}
		if n > 0 {
			d.SetPart(name, out)
			total += n
		}
	}
	return total, nil
}

// Bytes serializes the package. The mimetype entry is written first and stored
// uncompressed so that the file is recognised by its leading bytes.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	mt, ok := d.Part(PartMimetype)
	if !ok {
		mt = []byte(MIMEType)
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: PartMimetype, Method: zip.Store})
	if err != nil {
		return nil, fmt.Errorf("write mimetype: %w", err)
	}
	if _, err := w.Write(mt); err != nil {
		return nil, fmt.Errorf("write mimetype: %w", err)
	}

	now := time.Now()
	for _, p := range d.parts {
		if p.name == PartMimetype {
			continue
		}
		modified := p.modified
		if modified.IsZero() {
			modified = now
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}
	return buf.Bytes(), nil
}

// Render loads a packaged template, substitutes vars and returns the new package.
func Render(template []byte, vars Vars) ([]byte, error) {
	d, err := Open(template)
	if err != nil {
		return nil, err
	}
	if _, err := d.Substitute(vars); err != nil {
		return nil, err
	}
	return d.Bytes()
}

// Validate checks that data is a text document or template package.
func Validate(data []byte) error {
	_, err := Open(data)
	return err
}
