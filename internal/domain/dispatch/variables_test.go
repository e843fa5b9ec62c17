package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"oficio/internal/core/id"
	"oficio/internal/domain/units"
)

func TestVariables(t *testing.T) {
	caseID := id.New()
	vars := Variables(VariableInput{
		Subject: Subject{CaseID: caseID, CaseNumber: "P-42"},
		Unit: &units.ExtractionUnit{
			Acronym:          "NUCEX",
			Name:             "Núcleo de Extrações",
			InchargeName:     "Maria",
			InchargePosition: "Perita",
		},
		Requester: &units.AgencyUnit{Name: "Delegacia Regional"},
		Sequence:  7,
		IssuedAt:  time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, "007", vars["dispatch_number"])
	assert.Equal(t, "007_2025", vars["dispatch_number_formatted"])
	assert.Equal(t, "Ofício 007_2025 NUCEX", vars["dispatch_full_number"])
	assert.Equal(t, vars["dispatch_number"], vars["oficio_number"])
	assert.Equal(t, vars["dispatch_number_formatted"], vars["oficio_number_formatted"])
	assert.Equal(t, vars["dispatch_full_number"], vars["oficio_full_number"])
	assert.Equal(t, "2025", vars["year"])
	assert.Equal(t, "05/03/2025", vars["date"])
	assert.Equal(t, "05 de março de 2025", vars["date_long"])
	assert.Equal(t, "P-42", vars["case_number"])
	assert.Equal(t, "Delegacia Regional", vars["requester_unit"])
	assert.Equal(t, "Delegacia Regional", vars["requester_unit_acronym"])
	assert.Equal(t, "Núcleo de Extrações", vars["extraction_unit"])
	assert.Equal(t, "NUCEX", vars["extraction_unit_acronym"])
	assert.Equal(t, "Maria", vars["incharge_name"])
	assert.Equal(t, "Perita", vars["incharge_position"])
}

func TestVariables_Fallbacks(t *testing.T) {
	caseID := id.New()
	vars := Variables(VariableInput{
		Subject:  Subject{CaseID: caseID},
		Unit:     &units.ExtractionUnit{Name: "Sem sigla"},
		Sequence: 1000,
		IssuedAt: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, "1000_2025", vars["dispatch_number_formatted"])
	assert.Equal(t, caseID.String(), vars["case_number"])
	assert.Equal(t, "NEXT", vars["extraction_unit_acronym"])
	assert.Equal(t, "Ofício 1000_2025 NEXT", vars["dispatch_full_number"])
	assert.Empty(t, vars["requester_unit"])
	assert.Empty(t, vars["requester_unit_acronym"])
}

func TestFilename(t *testing.T) {
	unit := &units.ExtractionUnit{Acronym: "NUCEX"}

	assert.Equal(t,
		"Ofício 001_2026 NUCEX - DP01 - encaminhando material e dados.odt",
		Filename("001_2026", unit, &units.AgencyUnit{Acronym: "DP01", Name: "Distrito"}))
	assert.Equal(t,
		"Ofício 001_2026 NUCEX - Distrito - encaminhando material e dados.odt",
		Filename("001_2026", unit, &units.AgencyUnit{Name: "Distrito"}))
	assert.Equal(t,
		"Ofício 001_2026 NEXT - UNIDADE - encaminhando material e dados.odt",
		Filename("001_2026", nil, nil))
	assert.NotContains(t, Filename("001_2026", &units.ExtractionUnit{Acronym: "A/B"}, nil), "/")
}

func TestLongDate(t *testing.T) {
	assert.Equal(t, "19 de outubro de 2026", LongDate(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "01 de janeiro de 2027", LongDate(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}
