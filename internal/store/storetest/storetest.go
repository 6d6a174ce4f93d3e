// Package storetest provides in-memory UserStore and RoomStore
// implementations for tests. They mirror the Postgres stores' error
// contract, including the conflict translation the unique constraints
// would produce.
package storetest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inihikam/ngobrol/internal/apperr"
	"github.com/inihikam/ngobrol/internal/models"
	"github.com/inihikam/ngobrol/internal/store"
)

// Users is an in-memory store.UserStore.
type Users struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*models.User
	order []uuid.UUID
}

// NewUsers creates an empty in-memory user store.
func NewUsers() *Users {
	return &Users{byID: make(map[uuid.UUID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (s *Users) Create(ctx context.Context, in *models.CreateUserInput, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.Email == in.Email {
			return nil, apperr.New(apperr.KindEmailExists)
		}
		if u.Username == in.Username {
			return nil, apperr.New(apperr.KindUsernameExists)
		}
	}

	now := time.Now()
	u := &models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		DisplayName:  in.DisplayName,
		Status:       models.StatusOffline,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[u.ID] = u
	s.order = append(s.order, u.ID)
	return cloneUser(u), nil
}

func (s *Users) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok || !u.IsActive {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email && u.IsActive {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Username == username && u.IsActive {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok || !u.IsActive {
		return nil, store.ErrNotFound
	}
	if patch.Username != nil {
		for _, other := range s.byID {
			if other.ID != id && other.Username == *patch.Username {
				return nil, apperr.New(apperr.KindUsernameExists)
			}
		}
		u.Username = *patch.Username
	}
	if patch.DisplayName != nil {
		u.DisplayName = patch.DisplayName
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = patch.AvatarURL
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (s *Users) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok || !u.IsActive {
		return store.ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Users) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// Deactivate soft-disables a user, as the storage active flag would.
func (s *Users) Deactivate(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.IsActive = false
	}
}

// Rooms is an in-memory store.RoomStore.
type Rooms struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]*models.Room
	members map[uuid.UUID][]*models.RoomMember
	users   *Users
}

// NewRooms creates an empty in-memory room store. The user store is
// consulted to join member profile data.
func NewRooms(users *Users) *Rooms {
	return &Rooms{
		rooms:   make(map[uuid.UUID]*models.Room),
		members: make(map[uuid.UUID][]*models.RoomMember),
		users:   users,
	}
}

func cloneRoom(r *models.Room) *models.Room {
	c := *r
	return &c
}

func (s *Rooms) Create(ctx context.Context, in *models.CreateRoomInput, ownerID uuid.UUID) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		if strings.EqualFold(r.Name, in.Name) {
			return nil, apperr.New(apperr.KindRoomNameExists)
		}
	}

	now := time.Now()
	room := &models.Room{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		RoomType:    in.RoomType,
		OwnerID:     ownerID,
		MaxMembers:  in.MaxMembers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.rooms[room.ID] = room
	s.members[room.ID] = []*models.RoomMember{{
		ID:       uuid.New(),
		RoomID:   room.ID,
		UserID:   ownerID,
		Role:     models.RoleOwner,
		JoinedAt: now,
	}}
	return cloneRoom(room), nil
}

func (s *Rooms) FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneRoom(r), nil
}

func (s *Rooms) List(ctx context.Context, limit, offset int64) ([]models.RoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		all = append(all, r)
	}
	// Newest first, as the SQL ORDER BY would return.
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].CreatedAt.After(all[i].CreatedAt) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}

	var out []models.RoomResponse
	for i := offset; i < int64(len(all)) && int64(len(out)) < limit; i++ {
		r := all[i]
		out = append(out, models.RoomResponse{
			Room:        *r,
			MemberCount: int64(len(s.members[r.ID])),
		})
	}
	return out, nil
}

func (s *Rooms) CountAccessible(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, r := range s.rooms {
		if r.RoomType == models.RoomPublic {
			count++
			continue
		}
		for _, m := range s.members[r.ID] {
			if m.UserID == userID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *Rooms) Update(ctx context.Context, id uuid.UUID, patch models.RoomPatch) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Name != nil {
		for _, other := range s.rooms {
			if other.ID != id && strings.EqualFold(other.Name, *patch.Name) {
				return nil, apperr.New(apperr.KindRoomNameExists)
			}
		}
		r.Name = *patch.Name
	}
	if patch.Description != nil {
		r.Description = patch.Description
	}
	if patch.RoomType != nil {
		r.RoomType = *patch.RoomType
	}
	if patch.MaxMembers != nil {
		r.MaxMembers = patch.MaxMembers
	}
	r.UpdatedAt = time.Now()
	return cloneRoom(r), nil
}

func (s *Rooms) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.rooms, id)
	delete(s.members, id) // cascade
	return nil
}

func (s *Rooms) AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.Role) (*models.RoomMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return nil, store.ErrNotFound
	}
	for _, m := range s.members[roomID] {
		if m.UserID == userID {
			return nil, apperr.New(apperr.KindAlreadyJoined)
		}
	}
	m := &models.RoomMember{
		ID:       uuid.New(),
		RoomID:   roomID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	s.members[roomID] = append(s.members[roomID], m)
	c := *m
	return &c, nil
}

func (s *Rooms) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.members[roomID]
	for i, m := range members {
		if m.UserID == userID {
			s.members[roomID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Rooms) GetMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMemberInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RoomMemberInfo
	for _, m := range s.members[roomID] {
		info := models.RoomMemberInfo{
			ID:       m.ID,
			RoomID:   m.RoomID,
			UserID:   m.UserID,
			Role:     m.Role,
			Status:   models.StatusOffline,
			JoinedAt: m.JoinedAt,
		}
		if s.users != nil {
			if u, err := s.users.FindByID(ctx, m.UserID); err == nil {
				info.Username = u.Username
				info.DisplayName = u.DisplayName
				info.AvatarURL = u.AvatarURL
				info.Status = u.Status
			}
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *Rooms) CountMembers(ctx context.Context, roomID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.members[roomID])), nil
}

func (s *Rooms) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[roomID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Rooms) GetUserRole(ctx context.Context, roomID, userID uuid.UUID) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[roomID] {
		if m.UserID == userID {
			role := m.Role
			return &role, nil
		}
	}
	return nil, nil
}

func (s *Rooms) NameExists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if strings.EqualFold(r.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// SetRole rewrites a member's role directly, standing in for the
// moderation flows that grant admin or moderator.
func (s *Rooms) SetRole(roomID, userID uuid.UUID, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[roomID] {
		if m.UserID == userID {
			m.Role = role
			return
		}
	}
}
