package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names matter: mapUniqueViolation matches on them to pick
// the conflict error for one specific field.
const schema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    username      VARCHAR(50)  NOT NULL,
    email         VARCHAR(254) NOT NULL,
    password_hash TEXT         NOT NULL,
    display_name  VARCHAR(100),
    avatar_url    TEXT,
    status        VARCHAR(10)  NOT NULL DEFAULT 'offline'
                  CHECK (status IN ('online', 'offline', 'away', 'busy')),
    is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    CONSTRAINT users_email_key    UNIQUE (email),
    CONSTRAINT users_username_key UNIQUE (username)
);

CREATE TABLE IF NOT EXISTS rooms (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name        VARCHAR(100) NOT NULL,
    description VARCHAR(500),
    room_type   VARCHAR(10)  NOT NULL DEFAULT 'public'
                CHECK (room_type IN ('public', 'private')),
    owner_id    UUID         NOT NULL REFERENCES users(id),
    max_members INTEGER      CHECK (max_members BETWEEN 2 AND 1000),
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS rooms_name_lower_key ON rooms (LOWER(name));

CREATE TABLE IF NOT EXISTS room_members (
    id        UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    room_id   UUID        NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    user_id   UUID        NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role      VARCHAR(10) NOT NULL DEFAULT 'member'
              CHECK (role IN ('owner', 'admin', 'moderator', 'member')),
    joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT room_members_room_user_key UNIQUE (room_id, user_id)
);

CREATE INDEX IF NOT EXISTS room_members_user_idx ON room_members (user_id);
`

// RunMigrations applies the schema. Statements are idempotent so startup
// can run them unconditionally.
func RunMigrations(ctx context.Context, databaseURL string) error {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, schema)
	return err
}
