// Package templates stores the dispatch templates of each extraction unit.
package templates

import (
	"context"
	"fmt"
	"strings"

	"oficio/internal/core/apperror"
	"oficio/internal/core/entity"
	"oficio/internal/core/id"
)

// Template is a dispatch layout owned by one extraction unit.
//
// Content holds a packaged ODT/OTT file. When it is empty, the text
// sections drive the generated fallback letter.
type Template struct {
	entity.BaseEntity

	ExtractionUnitID id.ID  `db:"extraction_unit_id" json:"extractionUnitId"`
	Name             string `db:"name" json:"name"`
	Description      string `db:"description" json:"description"`

	Content         []byte `db:"content" json:"-"`
	ContentFilename string `db:"content_filename" json:"contentFilename,omitempty"`

	HeaderText    string `db:"header_text" json:"headerText"`
	SubjectText   string `db:"subject_text" json:"subjectText"`
	BodyText      string `db:"body_text" json:"bodyText"`
	SignatureText string `db:"signature_text" json:"signatureText"`
	WatermarkText string `db:"watermark_text" json:"watermarkText"`
	FooterText    string `db:"footer_text" json:"footerText"`

	IsActive  bool `db:"is_active" json:"isActive"`
	IsDefault bool `db:"is_default" json:"isDefault"`
}

// HasContent reports whether a packaged document is attached.
func (t *Template) HasContent() bool {
	return len(t.Content) > 0
}

// HasSections reports whether any text section is filled.
func (t *Template) HasSections() bool {
	for _, s := range []string{t.HeaderText, t.SubjectText, t.BodyText, t.SignatureText, t.FooterText} {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// DownloadFilename returns the stored filename or a generated one.
func (t *Template) DownloadFilename() string {
	if t.ContentFilename != "" {
		return t.ContentFilename
	}
	return fmt.Sprintf("template_%s.odt", t.ID)
}

// Validate implements entity.Validatable.
func (t *Template) Validate(ctx context.Context) error {
	if id.IsNil(t.ExtractionUnitID) {
		return apperror.NewValidation("extraction unit is required").WithDetail("field", "extractionUnitId")
	}
	if strings.TrimSpace(t.Name) == "" {
		return apperror.NewValidation("template name is required").WithDetail("field", "name")
	}
	if len(t.Name) > 100 {
		return apperror.NewValidation("template name is too long").
			WithDetail("field", "name").
			WithDetail("max", 100)
	}
	if t.IsDefault && !t.IsActive {
		return apperror.NewValidation("an inactive template cannot be the default").WithDetail("field", "isDefault")
	}
	return nil
}
