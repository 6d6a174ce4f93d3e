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

const roomColumns = `id, name, description, room_type, owner_id, max_members, created_at, updated_at`

type pgRoomStore struct {
	pool *pgxpool.Pool
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	r := &models.Room{}
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.RoomType,
		&r.OwnerID,
		&r.MaxMembers,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// Create inserts a room together with its owner membership in one
// transaction, so every room has exactly one owner from the start.
func (s *pgRoomStore) Create(ctx context.Context, in *models.CreateRoomInput, ownerID uuid.UUID) (*models.Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	room, err := scanRoom(tx.QueryRow(ctx, `
		INSERT INTO rooms (name, description, room_type, owner_id, max_members)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+roomColumns+`
	`, in.Name, in.Description, in.RoomType, ownerID, in.MaxMembers))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, role)
		VALUES ($1, $2, 'owner')
	`, room.ID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *pgRoomStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return scanRoom(s.pool.QueryRow(ctx, `
		SELECT `+roomColumns+` FROM rooms WHERE id = $1
	`, id))
}

// List returns rooms newest first with member counts.
func (s *pgRoomStore) List(ctx context.Context, limit, offset int64) ([]models.RoomResponse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.room_type, r.owner_id, r.max_members,
		       r.created_at, r.updated_at, COUNT(rm.id) AS member_count
		FROM rooms r
		LEFT JOIN room_members rm ON r.id = rm.room_id
		GROUP BY r.id
		ORDER BY r.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.RoomResponse
	for rows.Next() {
		var r models.RoomResponse
		err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.Description,
			&r.RoomType,
			&r.OwnerID,
			&r.MaxMembers,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.MemberCount,
		)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// CountAccessible counts rooms the user can see: public rooms plus
// rooms they are a member of.
func (s *pgRoomStore) CountAccessible(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT r.id)
		FROM rooms r
		LEFT JOIN room_members rm ON r.id = rm.room_id AND rm.user_id = $1
		WHERE r.room_type = 'public' OR rm.user_id = $1
	`, userID).Scan(&count)
	return count, err
}

// Update applies a partial room update, composing SET clauses only for
// the fields present in the patch.
func (s *pgRoomStore) Update(ctx context.Context, id uuid.UUID, patch models.RoomPatch) (*models.Room, error) {
	if patch.Empty() {
		return s.FindByID(ctx, id)
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.RoomType != nil {
		add("room_type", *patch.RoomType)
	}
	if patch.MaxMembers != nil {
		add("max_members", *patch.MaxMembers)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE rooms SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), roomColumns)

	room, err := scanRoom(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, mapUniqueViolation(err)
	}
	return room, nil
}

// Delete removes a room; memberships cascade at the schema level.
func (s *pgRoomStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgRoomStore) AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.Role) (*models.RoomMember, error) {
	m := &models.RoomMember{}
	var roleStr string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO room_members (room_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, room_id, user_id, role, joined_at
	`, roomID, userID, role.String()).Scan(&m.ID, &m.RoomID, &m.UserID, &roleStr, &m.JoinedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	m.Role, err = models.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *pgRoomStore) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM room_members WHERE room_id = $1 AND user_id = $2
	`, roomID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgRoomStore) GetMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMemberInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rm.id, rm.room_id, rm.user_id, u.username, u.display_name,
		       u.avatar_url, rm.role, u.status, rm.joined_at
		FROM room_members rm
		JOIN users u ON rm.user_id = u.id
		WHERE rm.room_id = $1
		ORDER BY rm.joined_at ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.RoomMemberInfo
	for rows.Next() {
		var m models.RoomMemberInfo
		var roleStr string
		err := rows.Scan(
			&m.ID,
			&m.RoomID,
			&m.UserID,
			&m.Username,
			&m.DisplayName,
			&m.AvatarURL,
			&roleStr,
			&m.Status,
			&m.JoinedAt,
		)
		if err != nil {
			return nil, err
		}
		if m.Role, err = models.ParseRole(roleStr); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *pgRoomStore) CountMembers(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM room_members WHERE room_id = $1
	`, roomID).Scan(&count)
	return count, err
}

func (s *pgRoomStore) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2
		)
	`, roomID, userID).Scan(&exists)
	return exists, err
}

// GetUserRole returns the caller's role in the room, or nil when they
// have no membership.
func (s *pgRoomStore) GetUserRole(ctx context.Context, roomID, userID uuid.UUID) (*models.Role, error) {
	var roleStr string
	err := s.pool.QueryRow(ctx, `
		SELECT role FROM room_members WHERE room_id = $1 AND user_id = $2
	`, roomID, userID).Scan(&roleStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	role, err := models.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// NameExists checks room-name uniqueness case-insensitively.
func (s *pgRoomStore) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM rooms WHERE LOWER(name) = LOWER($1))
	`, name).Scan(&exists)
	return exists, err
}
