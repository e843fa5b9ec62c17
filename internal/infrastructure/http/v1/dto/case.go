package dto

import (
	"time"

	"oficio/internal/core/apperror"
	"oficio/internal/core/id"
	"oficio/internal/domain/cases"
)

// CaseResponse is the response body for a case.
type CaseResponse struct {
	BaseResponse
	Number                string     `json:"number"`
	Status                string     `json:"status"`
	ExtractionUnitID      *string    `json:"extractionUnitId,omitempty"`
	RequesterAgencyUnitID *string    `json:"requesterAgencyUnitId,omitempty"`
	FinishedAt            *time.Time `json:"finishedAt,omitempty"`
	Dispatch              *Dispatch  `json:"dispatch,omitempty"`
}

// Dispatch describes the dispatch attached to a case.
type Dispatch struct {
	Number      string     `json:"number"`
	Date        *time.Time `json:"date,omitempty"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
}

func idString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

// FromCase creates CaseResponse from a case.
func FromCase(c *cases.Case) CaseResponse {
	resp := CaseResponse{
		BaseResponse:          FromBase(c.BaseEntity),
		Number:                c.Number,
		Status:                string(c.Status),
		ExtractionUnitID:      idString(c.ExtractionUnitID),
		RequesterAgencyUnitID: idString(c.RequesterAgencyUnitID),
		FinishedAt:            c.FinishedAt,
	}
	if c.HasDispatch() {
		resp.Dispatch = &Dispatch{
			Number:      c.DispatchNumber,
			Date:        c.DispatchDate,
			Filename:    c.DispatchDownloadName(),
			ContentType: c.DispatchMIMEType(),
		}
	}
	return resp
}

// GenerateDispatchRequest selects the template for an explicit generation.
// Both empty means the unit default.
type GenerateDispatchRequest struct {
	TemplateID   string `json:"templateId"`
	TemplateName string `json:"templateName"`
}

// ToOptions converts the request to service options.
func (r *GenerateDispatchRequest) ToOptions() (cases.DispatchOptions, error) {
	opts := cases.DispatchOptions{TemplateName: r.TemplateName}
	if r.TemplateID != "" {
		tid, err := id.Parse(r.TemplateID)
		if err != nil {
			return opts, apperror.NewValidation("invalid template id").WithDetail("field", "templateId")
		}
		opts.TemplateID = &tid
	}
	return opts, nil
}
