package dispatch

import (
	"strings"

	"oficio/internal/domain/units"
)

// UnknownRequester stands in for a missing requester unit in filenames.
const UnknownRequester = "UNIDADE"

var unsafeFilename = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")

// Filename builds the dispatch download name:
// "Ofício 007_2025 NEXT - DP01 - encaminhando material e dados.odt".
func Filename(number string, unit *units.ExtractionUnit, requester *units.AgencyUnit) string {
	req := requester.Label()
	if req == "" {
		req = UnknownRequester
	}
	name := "Ofício " + number + " " + unit.Label() + " - " + req + " - encaminhando material e dados.odt"
	return unsafeFilename.Replace(name)
}
