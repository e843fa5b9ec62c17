package dto

import (
	"oficio/internal/core/id"
	"oficio/internal/domain/templates"
)

// TemplateRequest is the request body for creating or updating a template.
// Content carries the packaged document, base64 encoded.
type TemplateRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Content         []byte `json:"content"`
	ContentFilename string `json:"contentFilename"`
	HeaderText      string `json:"headerText"`
	SubjectText     string `json:"subjectText"`
	BodyText        string `json:"bodyText"`
	SignatureText   string `json:"signatureText"`
	WatermarkText   string `json:"watermarkText"`
	FooterText      string `json:"footerText"`
	IsActive        *bool  `json:"isActive"`
	IsDefault       bool   `json:"isDefault"`
	// Version is required on update.
	Version int `json:"version"`
	// KeepContent leaves the stored file untouched when Content is empty.
	KeepContent bool `json:"keepContent"`
}

// ToEntity converts DTO to domain entity.
func (r *TemplateRequest) ToEntity(unitID id.ID) *templates.Template {
	t := &templates.Template{ExtractionUnitID: unitID, IsActive: true}
	r.ApplyTo(t)
	return t
}

// ApplyTo applies the request to an existing template.
func (r *TemplateRequest) ApplyTo(t *templates.Template) {
	t.Name = r.Name
	t.Description = r.Description
	if len(r.Content) > 0 || !r.KeepContent {
		t.Content = r.Content
		t.ContentFilename = r.ContentFilename
	}
	t.HeaderText = r.HeaderText
	t.SubjectText = r.SubjectText
	t.BodyText = r.BodyText
	t.SignatureText = r.SignatureText
	t.WatermarkText = r.WatermarkText
	t.FooterText = r.FooterText
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
	t.IsDefault = r.IsDefault
	if r.Version > 0 {
		t.Version = r.Version
	}
}

// TemplateResponse is the response body for a template.
type TemplateResponse struct {
	BaseResponse
	ExtractionUnitID string `json:"extractionUnitId"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	HasFile          bool   `json:"hasFile"`
	ContentFilename  string `json:"contentFilename,omitempty"`
	HeaderText       string `json:"headerText"`
	SubjectText      string `json:"subjectText"`
	BodyText         string `json:"bodyText"`
	SignatureText    string `json:"signatureText"`
	WatermarkText    string `json:"watermarkText"`
	FooterText       string `json:"footerText"`
	IsActive         bool   `json:"isActive"`
	IsDefault        bool   `json:"isDefault"`
}

// FromTemplate creates TemplateResponse from a template.
func FromTemplate(t *templates.Template) TemplateResponse {
	return TemplateResponse{
		BaseResponse:     FromBase(t.BaseEntity),
		ExtractionUnitID: t.ExtractionUnitID.String(),
		Name:             t.Name,
		Description:      t.Description,
		HasFile:          t.HasContent(),
		ContentFilename:  t.ContentFilename,
		HeaderText:       t.HeaderText,
		SubjectText:      t.SubjectText,
		BodyText:         t.BodyText,
		SignatureText:    t.SignatureText,
		WatermarkText:    t.WatermarkText,
		FooterText:       t.FooterText,
		IsActive:         t.IsActive,
		IsDefault:        t.IsDefault,
	}
}
