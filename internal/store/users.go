package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inihikam/ngobrol/internal/models"
)

const userColumns = `id, username, email, password_hash, display_name, avatar_url, status, is_active, created_at, updated_at`

type pgUserStore struct {
	pool *pgxpool.Pool
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&u.AvatarURL,
		&u.Status,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a new user. Unique violations on email or username are
// translated to the matching domain conflict error.
func (s *pgUserStore) Create(ctx context.Context, in *models.CreateUserInput, passwordHash string) (*models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, display_name, status)
		VALUES ($1, $2, $3, $4, 'offline')
		RETURNING `+userColumns+`
	`, in.Username, in.Email, passwordHash, in.DisplayName))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return user, nil
}

func (s *pgUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = $1 AND is_active = TRUE
	`, id))
}

func (s *pgUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email = $1 AND is_active = TRUE
	`, email))
}

func (s *pgUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE username = $1 AND is_active = TRUE
	`, username))
}

// Update applies a partial profile update, composing SET clauses only
// for the fields present in the patch.
func (s *pgUserStore) Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	if patch.Empty() {
		return s.FindByID(ctx, id)
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.DisplayName != nil {
		add("display_name", *patch.DisplayName)
	}
	if patch.AvatarURL != nil {
		add("avatar_url", *patch.AvatarURL)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE users SET %s, updated_at = NOW()
		WHERE id = $%d AND is_active = TRUE
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, mapUniqueViolation(err)
	}
	return user, nil
}

func (s *pgUserStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET status = $1, updated_at = NOW()
		WHERE id = $2 AND is_active = TRUE
	`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&exists)
	return exists, err
}

func (s *pgUserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&exists)
	return exists, err
}
