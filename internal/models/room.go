package models

import (
	"time"

	"github.com/google/uuid"
)

// Room visibility values.
const (
	RoomPublic  = "public"
	RoomPrivate = "private"
)

// Room is a chat room. Exactly one membership with RoleOwner exists per
// room, created atomically with the room itself.
type Room struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	RoomType    string    `json:"room_type"`
	OwnerID     uuid.UUID `json:"owner_id"`
	MaxMembers  *int      `json:"max_members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoomMember binds a user to a room with a role.
type RoomMember struct {
	ID       uuid.UUID `json:"id"`
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// RoomMemberInfo is a membership joined with user profile data.
type RoomMemberInfo struct {
	ID          uuid.UUID `json:"id"`
	RoomID      uuid.UUID `json:"room_id"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	Role        Role      `json:"role"`
	Status      string    `json:"status"`
	JoinedAt    time.Time `json:"joined_at"`
}

// RoomResponse is a room plus its member count.
type RoomResponse struct {
	Room
	MemberCount int64 `json:"member_count"`
}

// RoomDetail is the full room view returned by GET /api/rooms/{id}.
type RoomDetail struct {
	Room     RoomResponse     `json:"room"`
	Members  []RoomMemberInfo `json:"members"`
	IsMember bool             `json:"is_member"`
	UserRole *Role            `json:"user_role"`
}

// CreateRoomInput is the room creation request body.
type CreateRoomInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	RoomType    string  `json:"room_type"`
	MaxMembers  *int    `json:"max_members,omitempty"`
}

// RoomPatch enumerates the optional fields a room update may set.
type RoomPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	RoomType    *string `json:"room_type,omitempty"`
	MaxMembers  *int    `json:"max_members,omitempty"`
}

// Empty reports whether the patch sets no fields.
func (p RoomPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.RoomType == nil && p.MaxMembers == nil
}
