package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inihikam/ngobrol/internal/apperr"
)

// Connection pool limits. Uniqueness checks are racy between pre-check
// and insert; the pool only bounds concurrency, the unique constraints
// below are the source of truth.
const (
	poolMaxConns       = 20
	poolMinConns       = 5
	poolAcquireTimeout = 10 * time.Second
	poolIdleTimeout    = 300 * time.Second
	poolMaxLifetime    = 1800 * time.Second
)

// PostgresStore holds the shared connection pool backing the user and
// room stores.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL store with a bounded pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = poolMaxConns
	cfg.MinConns = poolMinConns
	cfg.ConnConfig.ConnectTimeout = poolAcquireTimeout
	cfg.MaxConnIdleTime = poolIdleTimeout
	cfg.MaxConnLifetime = poolMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Users returns the UserStore backed by this pool.
func (s *PostgresStore) Users() UserStore {
	return &pgUserStore{pool: s.pool}
}

// Rooms returns the RoomStore backed by this pool.
func (s *PostgresStore) Rooms() RoomStore {
	return &pgRoomStore{pool: s.pool}
}

// mapUniqueViolation translates a 23505 unique violation into the domain
// conflict error for the violated constraint. The constraint name decides
// the field; an unrecognized name defaults to the email conflict.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	constraint := strings.ToLower(pgErr.ConstraintName)
	switch {
	case strings.Contains(constraint, "username"):
		return apperr.New(apperr.KindUsernameExists)
	case strings.Contains(constraint, "email"):
		return apperr.New(apperr.KindEmailExists)
	case strings.Contains(constraint, "room_members"):
		return apperr.New(apperr.KindAlreadyJoined)
	case strings.Contains(constraint, "rooms_name"):
		return apperr.New(apperr.KindRoomNameExists)
	default:
		return apperr.New(apperr.KindEmailExists)
	}
}
