package dispatch

import (
	"context"
	"fmt"

	"oficio/internal/core/apperror"
	"oficio/internal/core/audit"
	"oficio/internal/core/id"
	"oficio/internal/core/numerator"
	"oficio/internal/core/tx"
	"oficio/internal/domain/units"
)

// Sequence is the numbering state of one unit and year.
type Sequence struct {
	UnitID     id.ID  `json:"unitId"`
	Year       int    `json:"year"`
	LastNumber int64  `json:"lastNumber"`
	Next       string `json:"next"`
}

// Sequences lets operators inspect and seed dispatch counters, for example
// to continue a legacy numbering.
type Sequences struct {
	counter   numerator.Counter
	units     units.Repository
	txManager tx.Manager
	audit     audit.Recorder
	format    numerator.Config
}

// NewSequences creates the sequence administration service.
func NewSequences(counter numerator.Counter, unitRepo units.Repository, txManager tx.Manager, rec audit.Recorder, format numerator.Config) *Sequences {
	if rec == nil {
		rec = audit.NopRecorder{}
	}
	return &Sequences{
		counter:   counter,
		units:     unitRepo,
		txManager: txManager,
		audit:     rec,
		format:    format,
	}
}

func checkYear(year int) error {
	if year < 1900 || year > 9999 {
		return apperror.NewValidation("year out of range").WithDetail("year", year)
	}
	return nil
}

// Show returns the last issued number and the number the next dispatch gets.
func (s *Sequences) Show(ctx context.Context, unitID id.ID, year int) (*Sequence, error) {
	if err := checkYear(year); err != nil {
		return nil, err
	}
	if _, err := s.units.GetExtractionUnit(ctx, unitID); err != nil {
		return nil, err
	}
	last, err := s.counter.Current(ctx, unitID, year)
	if err != nil {
		return nil, err
	}
	return &Sequence{
		UnitID:     unitID,
		Year:       year,
		LastNumber: last,
		Next:       s.format.Number(last+1, year),
	}, nil
}

// Set overwrites the last issued number. Numbers at or below value may be
// issued again if it is lowered.
func (s *Sequences) Set(ctx context.Context, actor audit.Actor, unitID id.ID, year int, value int64) (*Sequence, error) {
	if err := checkYear(year); err != nil {
		return nil, err
	}
	var out *Sequence
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.units.LockExtractionUnit(ctx, unitID); err != nil {
			return err
		}
		prev, err := s.counter.Current(ctx, unitID, year)
		if err != nil {
			return err
		}
		if err := s.counter.SetLastNumber(ctx, unitID, year, value); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: "dispatch_sequence",
			EntityID:   unitID,
			Action:     audit.ActionSequenceSet,
			Actor:      actor,
			Changes: map[string]any{
				"year":       year,
				"lastNumber": map[string]any{"old": prev, "new": value},
			},
		}); err != nil {
			return fmt.Errorf("audit sequence: %w", err)
		}
		out = &Sequence{UnitID: unitID, Year: year, LastNumber: value, Next: s.format.Number(value+1, year)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Next issues a number outside any case. Used by the operator CLI to burn a
// number taken manually.
func (s *Sequences) Next(ctx context.Context, unitID id.ID, year int) (string, error) {
	if err := checkYear(year); err != nil {
		return "", err
	}
	var out string
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := s.counter.NextNumber(ctx, unitID, year)
		if err != nil {
			return err
		}
		out = s.format.Number(n, year)
		return nil
	})
	return out, err
}
