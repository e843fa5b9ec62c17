package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"oficio/internal/core/apperror"
	"oficio/internal/domain"
	"oficio/internal/domain/templates"
	"oficio/internal/infrastructure/http/v1/dto"
	"oficio/internal/odt"
)

// TemplateHandler serves the dispatch templates of a unit.
type TemplateHandler struct {
	*BaseHandler
	service *templates.Service
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(base *BaseHandler, service *templates.Service) *TemplateHandler {
	return &TemplateHandler{BaseHandler: base, service: service}
}

// List handles GET /units/:unitId/templates.
func (h *TemplateHandler) List(c *gin.Context) {
	unitID, ok := h.ParamID(c, "unitId")
	if !ok {
		return
	}

	filter := domain.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	result, err := h.service.List(c.Request.Context(), unitID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.TemplateResponse, len(result.Items))
	for i, t := range result.Items {
		items[i] = dto.FromTemplate(t)
	}
	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /units/:unitId/templates/:id.
func (h *TemplateHandler) Get(c *gin.Context) {
	t, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.FromTemplate(t))
}

// Create handles POST /units/:unitId/templates.
func (h *TemplateHandler) Create(c *gin.Context) {
	unitID, ok := h.ParamID(c, "unitId")
	if !ok {
		return
	}
	var req dto.TemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := req.ToEntity(unitID)
	if err := h.service.Save(c.Request.Context(), h.Actor(c), t); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTemplate(t))
}

// Update handles PUT /units/:unitId/templates/:id.
func (h *TemplateHandler) Update(c *gin.Context) {
	t, ok := h.load(c)
	if !ok {
		return
	}
	var req dto.TemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Version == 0 {
		h.Error(c, apperror.NewValidation("version is required").WithDetail("field", "version"))
		return
	}

	req.ApplyTo(t)
	if err := h.service.Save(c.Request.Context(), h.Actor(c), t); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTemplate(t))
}

// Delete handles DELETE /units/:unitId/templates/:id.
func (h *TemplateHandler) Delete(c *gin.Context) {
	t, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), h.Actor(c), t.ID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// File handles GET /units/:unitId/templates/:id/file.
func (h *TemplateHandler) File(c *gin.Context) {
	t, ok := h.load(c)
	if !ok {
		return
	}
	if !t.HasContent() {
		h.Error(c, apperror.NewNotFound("template file", t.ID.String()))
		return
	}
	h.Attachment(c, t.DownloadFilename(), odt.MIMEType, t.Content)
}

// load reads the template in the path and checks it belongs to the unit.
func (h *TemplateHandler) load(c *gin.Context) (*templates.Template, bool) {
	unitID, ok := h.ParamID(c, "unitId")
	if !ok {
		return nil, false
	}
	templateID, ok := h.ParamID(c, "id")
	if !ok {
		return nil, false
	}

	t, err := h.service.Get(c.Request.Context(), templateID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	if t.ExtractionUnitID != unitID {
		h.Error(c, apperror.NewNotFound("template", templateID.String()))
		return nil, false
	}
	return t, true
}
