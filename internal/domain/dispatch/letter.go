package dispatch

import (
	"strings"

	"oficio/internal/domain/templates"
	"oficio/internal/odt"
)

// letter renders a dispatch without a packaged template.
//
// Text sections of a content-less template replace the configured lines
// they correspond to; tokens inside them are expanded.
type letter struct {
	cfg       LetterConfig
	vars      odt.Vars
	template  *templates.Template
	logo      []byte
	requester string
}

func (l *letter) expand(s string) string {
	out, _ := odt.ExpandTokens(s, l.vars)
	return out
}

func (l *letter) section(s string) (string, bool) {
	if l.template == nil || strings.TrimSpace(s) == "" {
		return "", false
	}
	return l.expand(s), true
}

func (l *letter) render() ([]byte, error) {
	b := odt.NewBuilder().
		Title(l.vars["dispatch_full_number"]).
		Logo(l.logo)

	var header string
	var hasHeader bool
	if l.template != nil {
		header, hasHeader = l.section(l.template.HeaderText)
	}
	if hasHeader {
		for _, line := range strings.Split(header, "\n") {
			b.Heading(line)
		}
	} else {
		for _, line := range l.cfg.Letterhead {
			b.Heading(line)
		}
		if l.cfg.Department != "" {
			b.Centered(l.cfg.Department)
		}
	}
	b.Blank()

	b.Paragraph("Ofício Nº " + l.vars["dispatch_number_formatted"] + " - " + l.vars["extraction_unit_acronym"])
	date := l.vars["date_long"]
	if l.cfg.City != "" {
		date = l.cfg.City + ", " + date
	}
	b.Right(date)
	b.Blank()

	if l.requester != "" {
		b.Paragraph("Ao(à) " + l.requester)
		b.Blank()
	}

	if l.template != nil {
		if subject, ok := l.section(l.template.SubjectText); ok {
			b.Paragraph(subject)
			b.Blank()
		}
	}

	body := l.cfg.Body
	if l.template != nil {
		if s, ok := l.section(l.template.BodyText); ok {
			body = s
		}
	}
	if body != "" {
		b.Justified(body)
	}

	if n := l.vars["case_number"]; n != "" {
		b.Paragraph("Processo: " + n)
	}
	b.Blank()

	var signature string
	var hasSignature bool
	if l.template != nil {
		signature, hasSignature = l.section(l.template.SignatureText)
	}
	if hasSignature {
		b.Centered(signature)
	} else if name := l.vars["incharge_name"]; name != "" {
		b.Centered(name)
		if pos := l.vars["incharge_position"]; pos != "" {
			b.Centered(pos)
		}
	}

	if l.template != nil {
		if footer, ok := l.section(l.template.FooterText); ok {
			b.Blank()
			b.Centered(footer)
		}
	}

	return b.Bytes()
}
