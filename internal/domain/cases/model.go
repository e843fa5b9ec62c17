// Package cases holds the extraction case as seen by the dispatch subsystem:
// its status lifecycle and the dispatch attached when it completes.
package cases

import (
	"context"
	"fmt"
	"time"

	"oficio/internal/core/apperror"
	"oficio/internal/core/entity"
	"oficio/internal/core/id"
	"oficio/internal/domain/dispatch"
	"oficio/internal/odt"
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusWaitingExtractor Status = "waiting_extractor"
	StatusWaitingStart     Status = "waiting_start"
	StatusInProgress       Status = "in_progress"
	StatusPaused           Status = "paused"
	StatusCompleted        Status = "completed"
	StatusWaitingCollect   Status = "waiting_collect"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusWaitingExtractor, StatusWaitingStart, StatusInProgress,
		StatusPaused, StatusCompleted, StatusWaitingCollect:
		return true
	}
	return false
}

// Case is an extraction request.
type Case struct {
	entity.BaseEntity

	Number                string     `db:"number" json:"number"`
	Status                Status     `db:"status" json:"status"`
	ExtractionUnitID      *id.ID     `db:"extraction_unit_id" json:"extractionUnitId,omitempty"`
	RequesterAgencyUnitID *id.ID     `db:"requester_agency_unit_id" json:"requesterAgencyUnitId,omitempty"`
	FinishedAt            *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
	FinishedBy            string     `db:"finished_by" json:"finishedBy,omitempty"`

	// Dispatch record. Written once, never changed afterwards.
	DispatchNumber      string     `db:"dispatch_number" json:"dispatchNumber,omitempty"`
	DispatchDate        *time.Time `db:"dispatch_date" json:"dispatchDate,omitempty"`
	DispatchFile        []byte     `db:"dispatch_file" json:"-"`
	DispatchFilename    string     `db:"dispatch_filename" json:"dispatchFilename,omitempty"`
	DispatchContentType string     `db:"dispatch_content_type" json:"dispatchContentType,omitempty"`
}

// HasDispatch reports whether a dispatch number is attached.
func (c *Case) HasDispatch() bool {
	return c.DispatchNumber != ""
}

// IsCompleted reports whether the case is finished.
func (c *Case) IsCompleted() bool {
	return c.Status == StatusCompleted
}

// Subject returns the dispatch subject for the case.
func (c *Case) Subject() dispatch.Subject {
	return dispatch.Subject{
		CaseID:           c.ID,
		CaseNumber:       c.Number,
		ExtractionUnitID: c.ExtractionUnitID,
		RequesterUnitID:  c.RequesterAgencyUnitID,
	}
}

// AttachDispatch copies a generated dispatch into the case.
func (c *Case) AttachDispatch(res *dispatch.Result) {
	date := res.IssueDate
	c.DispatchNumber = res.Number
	c.DispatchDate = &date
	c.DispatchFile = res.File
	c.DispatchFilename = res.Filename
	c.DispatchContentType = res.ContentType
}

// keepDispatch overwrites the dispatch record with the one of prev.
func (c *Case) keepDispatch(prev *Case) {
	c.DispatchNumber = prev.DispatchNumber
	c.DispatchDate = prev.DispatchDate
	c.DispatchFile = prev.DispatchFile
	c.DispatchFilename = prev.DispatchFilename
	c.DispatchContentType = prev.DispatchContentType
}

// DispatchDownloadName returns the stored filename or "oficio_<number>.odt".
func (c *Case) DispatchDownloadName() string {
	if c.DispatchFilename != "" {
		return c.DispatchFilename
	}
	return fmt.Sprintf("oficio_%s.odt", c.DispatchNumber)
}

// DispatchMIMEType returns the stored content type or the text document type.
func (c *Case) DispatchMIMEType() string {
	if c.DispatchContentType != "" {
		return c.DispatchContentType
	}
	return odt.MIMEType
}

// Validate implements entity.Validatable.
func (c *Case) Validate(ctx context.Context) error {
	if !c.Status.IsValid() {
		return apperror.NewValidation("unknown case status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}
	return nil
}

// shouldIssueDispatch is the completion trigger condition: the case moves
// into completed with a finish time and has no dispatch yet.
func shouldIssueDispatch(prev, next *Case) bool {
	return prev.Status != StatusCompleted &&
		next.Status == StatusCompleted &&
		next.FinishedAt != nil &&
		!next.HasDispatch()
}
