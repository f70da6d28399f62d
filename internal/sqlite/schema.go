// Package sqlite implements the projectsteps store on an embedded SQLite
// file: the generation ledger, schema creation and migration, the
// connection guard, and one repository per record family.
package sqlite

import (
	"context"
	"fmt"
)

// Table DDL at the latest generation. A brand-new store is created from
// these directly and stamped with the latest generation, without replaying
// migrations.
const (
	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    gradient TEXT NOT NULL,
    current_step_id TEXT
)`

	createSteps = `CREATE TABLE IF NOT EXISTS steps (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    plain_text TEXT,
    order_index INTEGER NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
)`

	createNotes = `CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    plain_text TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    important INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
)`

	createImageAttachments = `CREATE TABLE IF NOT EXISTS image_attachments (
    id TEXT PRIMARY KEY,
    file_path TEXT NOT NULL,
    filename TEXT NOT NULL,
    content_type TEXT NOT NULL,
    content_id TEXT NOT NULL,
    content_type_enum TEXT NOT NULL CHECK (content_type_enum IN ('step', 'note', 'project_description')),
    created_at TEXT NOT NULL
)`
)

// Index DDL for the common scoped listings.
const (
	idxStepsProjectOrder    = `CREATE INDEX IF NOT EXISTS idx_steps_project_order ON steps(project_id, order_index)`
	idxNotesProjectCreated  = `CREATE INDEX IF NOT EXISTS idx_notes_project_created ON notes(project_id, created_at)`
	idxImageAttachmentOwner = `CREATE INDEX IF NOT EXISTS idx_image_attachments_owner ON image_attachments(content_type_enum, content_id, created_at)`
)

// schemaDDL lists the CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createProjects,
	createSteps,
	createNotes,
	createImageAttachments,
}

var indexDDL = []string{
	idxStepsProjectOrder,
	idxNotesProjectCreated,
	idxImageAttachmentOwner,
}

// createInitialSchema creates every table and index at its latest shape.
func createInitialSchema(ctx context.Context, h dbHandle) error {
	for _, stmt := range schemaDDL {
		if _, err := h.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create initial schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := h.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create initial indexes: %w", err)
		}
	}
	return nil
}
