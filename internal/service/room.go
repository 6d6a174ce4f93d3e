package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inihikam/ngobrol/internal/apperr"
	"github.com/inihikam/ngobrol/internal/metrics"
	"github.com/inihikam/ngobrol/internal/models"
	"github.com/inihikam/ngobrol/internal/store"
)

// RoomService owns room lifecycle and the membership permission checks.
// Every mutating operation gates on the caller's role; the hierarchy is
// a single ordered comparison (models.Role.AtLeast).
type RoomService struct {
	rooms  store.RoomStore
	logger zerolog.Logger
}

// NewRoomService creates a RoomService.
func NewRoomService(rooms store.RoomStore, logger zerolog.Logger) *RoomService {
	return &RoomService{rooms: rooms, logger: logger}
}

func validateCreateRoom(in *models.CreateRoomInput) *apperr.Error {
	details := map[string][]string{}
	if len(in.Name) < 3 || len(in.Name) > 100 {
		details["name"] = append(details["name"], "Room name must be between 3-100 characters")
	}
	if in.Description != nil && len(*in.Description) > 500 {
		details["description"] = append(details["description"], "Description must not exceed 500 characters")
	}
	if in.RoomType != models.RoomPublic && in.RoomType != models.RoomPrivate {
		details["room_type"] = append(details["room_type"], "Room type must be public or private")
	}
	if in.MaxMembers != nil && (*in.MaxMembers < 2 || *in.MaxMembers > 1000) {
		details["max_members"] = append(details["max_members"], "Max members must be between 2-1000")
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

func validateRoomPatch(patch models.RoomPatch) *apperr.Error {
	details := map[string][]string{}
	if patch.Name != nil && (len(*patch.Name) < 3 || len(*patch.Name) > 100) {
		details["name"] = append(details["name"], "Room name must be between 3-100 characters")
	}
	if patch.Description != nil && len(*patch.Description) > 500 {
		details["description"] = append(details["description"], "Description must not exceed 500 characters")
	}
	if patch.RoomType != nil && *patch.RoomType != models.RoomPublic && *patch.RoomType != models.RoomPrivate {
		details["room_type"] = append(details["room_type"], "Room type must be public or private")
	}
	if patch.MaxMembers != nil && (*patch.MaxMembers < 2 || *patch.MaxMembers > 1000) {
		details["max_members"] = append(details["max_members"], "Max members must be between 2-1000")
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

// wrapStoreErr maps store errors onto the taxonomy, keeping already
// translated conflict errors intact.
func wrapStoreErr(err error, notFound apperr.Kind) error {
	var appErr *apperr.Error
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.New(notFound)
	case errors.As(err, &appErr):
		return appErr
	default:
		return apperr.Wrap(apperr.KindDatabase, err)
	}
}

// Create validates the input, pre-checks the case-insensitive name and
// inserts room plus owner membership atomically.
func (s *RoomService) Create(ctx context.Context, in *models.CreateRoomInput, ownerID uuid.UUID) (*models.RoomResponse, error) {
	if err := validateCreateRoom(in); err != nil {
		return nil, err
	}

	if exists, err := s.rooms.NameExists(ctx, in.Name); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	} else if exists {
		return nil, apperr.New(apperr.KindRoomNameExists)
	}

	room, err := s.rooms.Create(ctx, in, ownerID)
	if err != nil {
		return nil, wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	count, err := s.rooms.CountMembers(ctx, room.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}

	metrics.RoomsCreated.WithLabelValues(room.RoomType).Inc()
	s.logger.Info().Str("room_id", room.ID.String()).Str("name", room.Name).Msg("room created")

	return &models.RoomResponse{Room: *room, MemberCount: count}, nil
}

// Get returns the room with members and the caller's role. Private
// rooms are visible to members only.
func (s *RoomService) Get(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomDetail, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	isMember, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	if room.RoomType == models.RoomPrivate && !isMember {
		return nil, apperr.New(apperr.KindPrivateNoAccess)
	}

	members, err := s.rooms.GetMembers(ctx, roomID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}

	role, err := s.rooms.GetUserRole(ctx, roomID, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}

	return &models.RoomDetail{
		Room:     models.RoomResponse{Room: *room, MemberCount: int64(len(members))},
		Members:  members,
		IsMember: isMember,
		UserRole: role,
	}, nil
}

// List returns a page of rooms and the count of rooms accessible to the
// caller.
func (s *RoomService) List(ctx context.Context, userID uuid.UUID, page, perPage int64) ([]models.RoomResponse, int64, error) {
	offset := (page - 1) * perPage

	rooms, err := s.rooms.List(ctx, perPage, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindDatabase, err)
	}

	total, err := s.rooms.CountAccessible(ctx, userID)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindDatabase, err)
	}

	return rooms, total, nil
}

// Update applies a room patch. Requires role admin or above.
func (s *RoomService) Update(ctx context.Context, roomID uuid.UUID, patch models.RoomPatch, userID uuid.UUID) (*models.RoomResponse, error) {
	if err := validateRoomPatch(patch); err != nil {
		return nil, err
	}

	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	role, err := s.rooms.GetUserRole(ctx, roomID, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	if role == nil || !role.AtLeast(models.RoleAdmin) {
		return nil, apperr.New(apperr.KindInsufficientPermissions)
	}

	room, err := s.rooms.Update(ctx, roomID, patch)
	if err != nil {
		return nil, wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	count, err := s.rooms.CountMembers(ctx, roomID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}

	return &models.RoomResponse{Room: *room, MemberCount: count}, nil
}

// Delete removes the room and, through the schema cascade, all its
// memberships. Owner only.
func (s *RoomService) Delete(ctx context.Context, roomID, userID uuid.UUID) error {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	role, err := s.rooms.GetUserRole(ctx, roomID, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindDatabase, err)
	}
	if role == nil || *role != models.RoleOwner {
		return apperr.New(apperr.KindOwnerRequired)
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	s.logger.Info().Str("room_id", roomID.String()).Msg("room deleted")
	return nil
}

// Join adds the caller as a member-role membership. Private rooms have
// no self-join path; capacity and duplicate joins are rejected first.
func (s *RoomService) Join(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMemberInfo, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	isMember, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	if isMember {
		return nil, apperr.New(apperr.KindAlreadyJoined)
	}

	if room.MaxMembers != nil {
		count, err := s.rooms.CountMembers(ctx, roomID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, err)
		}
		if count >= int64(*room.MaxMembers) {
			return nil, apperr.New(apperr.KindRoomFull)
		}
	}

	if room.RoomType == models.RoomPrivate {
		return nil, apperr.New(apperr.KindPrivateNoAccess)
	}

	if _, err := s.rooms.AddMember(ctx, roomID, userID, models.RoleMember); err != nil {
		return nil, wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	members, err := s.rooms.GetMembers(ctx, roomID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	for i := range members {
		if members[i].UserID == userID {
			metrics.MembersJoined.Inc()
			return &members[i], nil
		}
	}
	return nil, apperr.New(apperr.KindInternal)
}

// Leave removes the caller's membership. The owner cannot leave; there
// is no ownership transfer, only deletion.
func (s *RoomService) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	role, err := s.rooms.GetUserRole(ctx, roomID, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindDatabase, err)
	}
	if role != nil && *role == models.RoleOwner {
		return apperr.New(apperr.KindOwnerRequired)
	}

	if err := s.rooms.RemoveMember(ctx, roomID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.KindNotMember)
		}
		return apperr.Wrap(apperr.KindDatabase, err)
	}
	return nil
}

// Members lists the room's members under the same visibility gate as
// Get.
func (s *RoomService) Members(ctx context.Context, roomID, userID uuid.UUID) ([]models.RoomMemberInfo, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, wrapStoreErr(err, apperr.KindRoomNotFound)
	}

	isMember, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	if room.RoomType == models.RoomPrivate && !isMember {
		return nil, apperr.New(apperr.KindPrivateNoAccess)
	}

	members, err := s.rooms.GetMembers(ctx, roomID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	return members, nil
}
