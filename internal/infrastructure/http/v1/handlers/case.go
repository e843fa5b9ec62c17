package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"oficio/internal/domain/cases"
	"oficio/internal/infrastructure/http/v1/dto"
)

// CaseHandler exposes case completion and dispatch documents.
type CaseHandler struct {
	*BaseHandler
	service *cases.Service
}

// NewCaseHandler creates a new case handler.
func NewCaseHandler(base *BaseHandler, service *cases.Service) *CaseHandler {
	return &CaseHandler{BaseHandler: base, service: service}
}

// Get handles GET /cases/:id.
func (h *CaseHandler) Get(c *gin.Context) {
	caseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	cs, err := h.service.Get(c.Request.Context(), caseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCase(cs))
}

// Complete handles POST /cases/:id/complete.
// A dispatch is attached when generation succeeds; the case completes either way.
func (h *CaseHandler) Complete(c *gin.Context) {
	caseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	cs, err := h.service.Complete(c.Request.Context(), h.Actor(c), caseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCase(cs))
}

// GenerateDispatch handles POST /cases/:id/dispatch.
func (h *CaseHandler) GenerateDispatch(c *gin.Context) {
	caseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.GenerateDispatchRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	opts, err := req.ToOptions()
	if err != nil {
		h.Error(c, err)
		return
	}

	cs, err := h.service.GenerateDispatch(c.Request.Context(), h.Actor(c), caseID, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromCase(cs))
}

// DispatchFile handles GET /cases/:id/dispatch/file.
func (h *CaseHandler) DispatchFile(c *gin.Context) {
	caseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	cs, err := h.service.DispatchFile(c.Request.Context(), caseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Attachment(c, cs.DispatchDownloadName(), cs.DispatchMIMEType(), cs.DispatchFile)
}
