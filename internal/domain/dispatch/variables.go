// Package dispatch issues numbered dispatch letters ("ofícios") for cases.
package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"oficio/internal/core/id"
	"oficio/internal/core/numerator"
	"oficio/internal/domain/units"
	"oficio/internal/odt"
)

// Subject is the case a dispatch is issued for.
type Subject struct {
	CaseID           id.ID
	CaseNumber       string
	ExtractionUnitID *id.ID
	RequesterUnitID  *id.ID
}

// Label returns the case number, or the case id when it has none.
func (s Subject) Label() string {
	if n := strings.TrimSpace(s.CaseNumber); n != "" {
		return n
	}
	return s.CaseID.String()
}

// VariableInput carries everything the token set is built from.
type VariableInput struct {
	Subject   Subject
	Unit      *units.ExtractionUnit
	Requester *units.AgencyUnit
	Sequence  int64
	IssuedAt  time.Time
	Format    numerator.Config
}

var monthsPT = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// LongDate renders t as "19 de outubro de 2026".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", t.Day(), monthsPT[t.Month()-1], t.Year())
}

// FullLabel renders "Ofício 007_2025 NEXT".
func FullLabel(number string, unit *units.ExtractionUnit) string {
	return "Ofício " + number + " " + unit.Label()
}

// Variables builds the substitution map for one dispatch.
// It is a pure function of its input.
func Variables(in VariableInput) odt.Vars {
	format := in.Format
	if format.Separator == "" {
		format = numerator.DefaultConfig()
	}
	year := in.IssuedAt.Year()
	seq := format.Sequence(in.Sequence)
	number := format.Number(in.Sequence, year)
	full := FullLabel(number, in.Unit)

	var unitName, inchargeName, inchargePosition string
	if in.Unit != nil {
		unitName = in.Unit.Name
		inchargeName = in.Unit.InchargeName
		inchargePosition = in.Unit.InchargePosition
	}

	var requesterName string
	if in.Requester != nil {
		requesterName = in.Requester.Name
	}

	return odt.Vars{
		"dispatch_number":           seq,
		"dispatch_number_formatted": number,
		"dispatch_full_number":      full,
		"oficio_number":             seq,
		"oficio_number_formatted":   number,
		"oficio_full_number":        full,
		"year":                      strconv.Itoa(year),
		"date":                      in.IssuedAt.Format("02/01/2006"),
		"date_long":                 LongDate(in.IssuedAt),
		"case_number":               in.Subject.Label(),
		"requester_unit":            requesterName,
		"requester_unit_acronym":    in.Requester.Label(),
		"extraction_unit":           unitName,
		"extraction_unit_acronym":   in.Unit.Label(),
		"incharge_name":             inchargeName,
		"incharge_position":         inchargePosition,
	}
}
