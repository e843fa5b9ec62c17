package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"oficio/internal/core/apperror"
	"oficio/internal/domain"
	"oficio/internal/domain/dispatch"
	"oficio/internal/domain/units"
	"oficio/internal/infrastructure/http/v1/dto"
)

// UnitHandler serves unit logos and dispatch counters.
type UnitHandler struct {
	*BaseHandler
	units     units.Repository
	sequences *dispatch.Sequences
}

// NewUnitHandler creates a new unit handler.
func NewUnitHandler(base *BaseHandler, unitRepo units.Repository, sequences *dispatch.Sequences) *UnitHandler {
	return &UnitHandler{BaseHandler: base, units: unitRepo, sequences: sequences}
}

// Logo handles GET /units/:unitId/logo.
func (h *UnitHandler) Logo(c *gin.Context) {
	unitID, ok := h.ParamID(c, "unitId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	unit, err := h.units.GetExtractionUnit(ctx, unitID)
	if err != nil {
		h.Error(c, domain.NormalizeGetErr("extraction unit", err, unitID.String()))
		return
	}
	if unit.AgencyID == nil {
		h.Error(c, apperror.NewNotFound("logo", unitID.String()))
		return
	}
	agency, err := h.units.GetAgency(ctx, *unit.AgencyID)
	if err != nil {
		h.Error(c, domain.NormalizeGetErr("agency", err, unit.AgencyID.String()))
		return
	}
	if !agency.HasLogo() {
		h.Error(c, apperror.NewNotFound("logo", unitID.String()))
		return
	}
	c.Data(http.StatusOK, agency.LogoMIMEType(), agency.MainLogo)
}

// Sequence handles GET /units/:unitId/sequences/:year.
func (h *UnitHandler) Sequence(c *gin.Context) {
	unitID, ok := h.ParamID(c, "unitId")
	if !ok {
		return
	}
	year, ok := h.year(c)
	if !ok {
		return
	}
	seq, err := h.sequences.Show(c.Request.Context(), unitID, year)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, seq)
}

// SetSequence handles PUT /units/:unitId/sequences/:year.
func (h *UnitHandler) SetSequence(c *gin.Context) {
	unitID, ok := h.ParamID(c, "unitId")
	if !ok {
		return
	}
	year, ok := h.year(c)
	if !ok {
		return
	}
	var req dto.SetSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	seq, err := h.sequences.Set(c.Request.Context(), h.Actor(c), unitID, year, *req.LastNumber)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, seq)
}

func (h *UnitHandler) year(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid year").WithDetail("param", "year"))
		return 0, false
	}
	return year, true
}
