package app

import (
	"oficio/internal/domain/cases"
	"oficio/internal/domain/dispatch"
	"oficio/internal/domain/templates"
	"oficio/internal/domain/units"
)

// Services are the domain services over one store.
type Services struct {
	Units     *units.Service
	Templates *templates.Service
	Generator *dispatch.Generator
	Cases     *cases.Service
	Sequences *dispatch.Sequences
}

// NewServices builds the domain services.
func NewServices(store *Store, cfg dispatch.Config) *Services {
	tmpl := templates.NewService(templates.ServiceConfig{
		Repo:      store.Templates,
		Units:     store.Units,
		TxManager: store.TxManager,
		Audit:     store.Audit,
	})
	gen := dispatch.NewGenerator(tmpl, store.Units, store.Counter, cfg)

	return &Services{
		Units:     units.NewService(store.Units, store.TxManager, store.Audit),
		Templates: tmpl,
		Generator: gen,
		Cases: cases.NewService(cases.ServiceConfig{
			Repo:      store.Cases,
			Generator: gen,
			Templates: tmpl,
			TxManager: store.TxManager,
			Audit:     store.Audit,
			Outbox:    store.Outbox,
		}),
		Sequences: dispatch.NewSequences(store.Counter, store.Units, store.TxManager, store.Audit, cfg.Format),
	}
}
