package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/inihikam/ngobrol/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// UserStore defines persistent storage for identities. Lookups see only
// active rows; each operation is a single atomic statement.
type UserStore interface {
	Create(ctx context.Context, in *models.CreateUserInput, passwordHash string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// RoomStore defines persistent storage for rooms and memberships.
// Create inserts the room and its owner membership in one transaction;
// Delete cascades all memberships.
type RoomStore interface {
	Create(ctx context.Context, in *models.CreateRoomInput, ownerID uuid.UUID) (*models.Room, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	List(ctx context.Context, limit, offset int64) ([]models.RoomResponse, error)
	CountAccessible(ctx context.Context, userID uuid.UUID) (int64, error)
	Update(ctx context.Context, id uuid.UUID, patch models.RoomPatch) (*models.Room, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.Role) (*models.RoomMember, error)
	RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error
	GetMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMemberInfo, error)
	CountMembers(ctx context.Context, roomID uuid.UUID) (int64, error)
	IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	GetUserRole(ctx context.Context, roomID, userID uuid.UUID) (*models.Role, error)
	NameExists(ctx context.Context, name string) (bool, error)
}
