package postgres

import (
	"context"
	"fmt"
)

// Schema is the subset of the CMS schema the search engine reads. The CMS
// owns migrations; this DDL is for local setups, the seeder and tests.
// Timestamps are unix seconds.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL UNIQUE,
	password_hash  TEXT NOT NULL,
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     BIGINT NOT NULL,
	updated_at     BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id                UUID PRIMARY KEY,
	organization_id   UUID NOT NULL,
	title             TEXT NOT NULL,
	slug              TEXT NOT NULL,
	content           TEXT NOT NULL DEFAULT '',
	excerpt           TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'draft',
	author_id         UUID NOT NULL REFERENCES users(id),
	parent_id         UUID REFERENCES posts(id),
	featured_image_id UUID,
	published_at      BIGINT,
	created_at        BIGINT NOT NULL,
	updated_at        BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_org_id_idx ON posts (organization_id, id);
CREATE INDEX IF NOT EXISTS posts_org_created_idx ON posts (organization_id, created_at, id);
CREATE INDEX IF NOT EXISTS posts_org_status_idx ON posts (organization_id, status);

CREATE TABLE IF NOT EXISTS media (
	id                UUID PRIMARY KEY,
	organization_id   UUID NOT NULL,
	filename          TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	mime_type         TEXT NOT NULL,
	file_size         BIGINT NOT NULL,
	width             INTEGER,
	height            INTEGER,
	alt_text          TEXT,
	caption           TEXT,
	url               TEXT NOT NULL,
	uploaded_by       UUID NOT NULL REFERENCES users(id),
	created_at        BIGINT NOT NULL,
	updated_at        BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS media_org_id_idx ON media (organization_id, id);

CREATE TABLE IF NOT EXISTS taxonomies (
	id              UUID PRIMARY KEY,
	organization_id UUID NOT NULL,
	name            TEXT NOT NULL,
	slug            TEXT NOT NULL,
	description     TEXT,
	parent_id       UUID REFERENCES taxonomies(id),
	created_at      BIGINT NOT NULL,
	updated_at      BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS taxonomies_org_id_idx ON taxonomies (organization_id, id);

CREATE TABLE IF NOT EXISTS custom_fields (
	id              UUID PRIMARY KEY,
	organization_id UUID NOT NULL,
	slug            TEXT NOT NULL,
	name            TEXT NOT NULL,
	field_type      TEXT NOT NULL,
	UNIQUE (organization_id, slug)
);

CREATE TABLE IF NOT EXISTS post_custom_field_values (
	id              UUID PRIMARY KEY,
	post_id         UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	custom_field_id UUID NOT NULL REFERENCES custom_fields(id) ON DELETE CASCADE,
	value           TEXT
);
CREATE INDEX IF NOT EXISTS pcfv_field_post_idx ON post_custom_field_values (custom_field_id, post_id);
`

// EnsureSchema creates the tables above if they do not exist.
func EnsureSchema(ctx context.Context, db Querier) error {
	// No arguments: pgx sends this over the simple protocol, which accepts
	// several statements at once.
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
