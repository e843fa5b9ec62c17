package postgres

import (
	"context"
	"fmt"
)

// schema creates every table the service uses. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS agencies (
		id UUID PRIMARY KEY,
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_by TEXT NOT NULL DEFAULT '',
		deleted_at TIMESTAMPTZ,
		deleted_by TEXT NOT NULL DEFAULT '',
		acronym TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		main_logo BYTEA
	)`,
	`CREATE TABLE IF NOT EXISTS extraction_units (
		id UUID PRIMARY KEY,
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_by TEXT NOT NULL DEFAULT '',
		deleted_at TIMESTAMPTZ,
		deleted_by TEXT NOT NULL DEFAULT '',
		agency_id UUID REFERENCES agencies(id),
		acronym TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		incharge_name TEXT NOT NULL DEFAULT '',
		incharge_position TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS agency_units (
		id UUID PRIMARY KEY,
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_by TEXT NOT NULL DEFAULT '',
		deleted_at TIMESTAMPTZ,
		deleted_by TEXT NOT NULL DEFAULT '',
		agency_id UUID REFERENCES agencies(id),
		acronym TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dispatch_sequences (
		extraction_unit_id UUID NOT NULL REFERENCES extraction_units(id),
		year INT NOT NULL,
		last_number BIGINT NOT NULL DEFAULT 0 CHECK (last_number >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (extraction_unit_id, year)
	)`,
	`CREATE TABLE IF NOT EXISTS dispatch_templates (
		id UUID PRIMARY KEY,
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_by TEXT NOT NULL DEFAULT '',
		deleted_at TIMESTAMPTZ,
		deleted_by TEXT NOT NULL DEFAULT '',
		extraction_unit_id UUID NOT NULL REFERENCES extraction_units(id),
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		content BYTEA,
		content_filename TEXT NOT NULL DEFAULT '',
		header_text TEXT NOT NULL DEFAULT '',
		subject_text TEXT NOT NULL DEFAULT '',
		body_text TEXT NOT NULL DEFAULT '',
		signature_text TEXT NOT NULL DEFAULT '',
		watermark_text TEXT NOT NULL DEFAULT '',
		footer_text TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_default BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS dispatch_templates_one_default
		ON dispatch_templates (extraction_unit_id)
		WHERE is_default AND deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS dispatch_templates_unit
		ON dispatch_templates (extraction_unit_id, created_at)
		WHERE deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS cases (
		id UUID PRIMARY KEY,
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_by TEXT NOT NULL DEFAULT '',
		deleted_at TIMESTAMPTZ,
		deleted_by TEXT NOT NULL DEFAULT '',
		number TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		extraction_unit_id UUID REFERENCES extraction_units(id),
		requester_agency_unit_id UUID REFERENCES agency_units(id),
		finished_at TIMESTAMPTZ,
		finished_by TEXT NOT NULL DEFAULT '',
		dispatch_number TEXT NOT NULL DEFAULT '',
		dispatch_date TIMESTAMPTZ,
		dispatch_file BYTEA,
		dispatch_filename TEXT NOT NULL DEFAULT '',
		dispatch_content_type TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sys_audit (
		id UUID PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id UUID NOT NULL,
		action TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		user_email TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		changes JSONB,
		changes_compressed BYTEA,
		compression_algo TEXT NOT NULL DEFAULT 'none',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS sys_audit_entity ON sys_audit (entity_type, entity_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS sys_outbox (
		id UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		retry_count INT NOT NULL DEFAULT 0,
		last_error TEXT,
		next_retry_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		published_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS sys_outbox_pending ON sys_outbox (created_at) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS sys_outbox_dlq (
		id UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		retry_count INT NOT NULL,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		failed_at TIMESTAMPTZ NOT NULL
	)`,
}

// Bootstrap creates the schema in a single transaction.
func Bootstrap(ctx context.Context, txManager *TxManager) error {
	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txManager.GetQuerier(ctx)
		for _, stmt := range schema {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("bootstrap schema: %w", err)
			}
		}
		return nil
	})
}
