package dispatch

import (
	"time"

	"oficio/internal/core/numerator"
)

// LetterConfig holds the fixed lines of the fallback letter.
type LetterConfig struct {
	// Letterhead lines rendered as headings, top first.
	Letterhead []string `yaml:"letterhead"`
	// Department is printed under the letterhead.
	Department string `yaml:"department"`
	City       string `yaml:"city"`
	Body       string `yaml:"body"`
}

// DefaultLetterConfig returns the letterhead used by the extraction agency.
func DefaultLetterConfig() LetterConfig {
	return LetterConfig{
		Letterhead: []string{
			"S.S.P.D.S. CEARÁ",
			"SECRETARIA DA SEGURANÇA PÚBLICA E DEFESA SOCIAL",
			"COORDENADORIA DE INTELIGÊNCIA",
		},
		Department: "Célula de Inteligência de Sinais - Núcleo de Extrações",
		City:       "Fortaleza",
		Body:       "Encaminhamos material e dados extraídos conforme solicitação.",
	}
}

// Config configures a Generator.
type Config struct {
	Letter LetterConfig
	Format numerator.Config
	// Location decides the issue date and year. Defaults to UTC.
	Location *time.Location
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		Letter:   DefaultLetterConfig(),
		Format:   numerator.DefaultConfig(),
		Location: time.UTC,
	}
}
