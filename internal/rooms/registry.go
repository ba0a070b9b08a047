package rooms

import (
	"math/rand"
	"strings"
	"sync"

	"roomchat/backend/internal/apperr"
	"roomchat/backend/internal/config"
	"roomchat/backend/internal/models"
	"roomchat/backend/internal/storage"

	"github.com/lib/pq"
	"github.com/samber/lo"
)

// Registry owns room creation, join/leave and private-room codes. Every
// mutation of a room's member set runs under that room's lock.
type Registry struct {
	storage storage.Storage
	locks   *roomLocks

	// codeMu serializes private-room code generation so two concurrent
	// creations cannot both pass the uniqueness lookup with the same code.
	codeMu sync.Mutex
}

func NewRegistry(s storage.Storage) *Registry {
	return &Registry{
		storage: s,
		locks:   newRoomLocks(),
	}
}

// CreateRoom validates the name and description, creates the room with the
// creator as its only member and, for private rooms, assigns a unique
// 6-character base-36 uppercase join code.
func (r *Registry) CreateRoom(name, description, creatorID string, isPrivate bool) (*models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("room name is required")
	}
	if len(name) > config.RoomNameMaxLen {
		return nil, apperr.Validation("room name exceeds %d characters", config.RoomNameMaxLen)
	}
	if len(description) > config.RoomDescriptionMaxLen {
		return nil, apperr.Validation("room description exceeds %d characters", config.RoomDescriptionMaxLen)
	}

	room := &models.ChatRoom{
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
		IsPrivate:   isPrivate,
		Members:     pq.StringArray{creatorID},
	}

	if isPrivate {
		code, err := r.generateRoomCode()
		if err != nil {
			return nil, err
		}
		room.RoomCode = code
	}

	if err := r.storage.SaveRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// generateRoomCode picks random codes until one is not taken. Collisions are
// retried internally and never surfaced to the caller.
func (r *Registry) generateRoomCode() (string, error) {
	r.codeMu.Lock()
	defer r.codeMu.Unlock()

	for {
		b := make([]byte, config.RoomCodeLength)
		for i := range b {
			b[i] = config.RoomCodeAlphabet[rand.Intn(len(config.RoomCodeAlphabet))]
		}
		code := string(b)

		existing, err := r.storage.GetRoomByCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
}

// Join adds userID to the room's member set. Idempotent: joining a room the
// user already belongs to is a no-op.
func (r *Registry) Join(roomID, userID string) (*models.ChatRoom, error) {
	unlock := r.locks.lock(roomID)
	defer unlock()

	room, err := r.storage.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("chat room not found")
	}
	if room.HasMember(userID) {
		return room, nil
	}

	room.Members = append(room.Members, userID)
	if err := r.storage.SaveRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// JoinByCode looks up a private room by its join code and joins it. Unlike
// Join, a repeat call by an existing member is a conflict, not a no-op.
func (r *Registry) JoinByCode(code, userID string) (*models.ChatRoom, error) {
	room, err := r.storage.GetRoomByCode(code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("invalid room code")
	}

	unlock := r.locks.lock(room.ID)
	defer unlock()

	// Reload under the lock: membership may have changed since the lookup.
	room, err = r.storage.GetRoomByID(room.ID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("invalid room code")
	}
	if room.HasMember(userID) {
		return nil, apperr.Conflict("you are already a member of this room")
	}

	room.Members = append(room.Members, userID)
	if err := r.storage.SaveRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// Leave removes userID from the room's member set (idempotent). When the
// last member leaves and that member is not the creator, the room and all of
// its messages are deleted atomically. A creator leaving last keeps the room
// alive empty.
func (r *Registry) Leave(roomID, userID string) (deleted bool, err error) {
	unlock := r.locks.lock(roomID)
	defer unlock()

	room, err := r.storage.GetRoomByID(roomID)
	if err != nil {
		return false, err
	}
	if room == nil {
		return false, apperr.NotFound("chat room not found")
	}
	if !room.HasMember(userID) {
		return false, nil
	}

	room.Members = lo.Filter(room.Members, func(id string, _ int) bool {
		return id != userID
	})
	if err := r.storage.SaveRoom(room); err != nil {
		return false, err
	}

	if len(room.Members) == 0 && room.CreatorID != userID {
		return r.storage.DeleteRoomIfEmpty(roomID)
	}
	return false, nil
}

// ListAvailable returns public rooms the user has not joined.
func (r *Registry) ListAvailable(userID string) ([]models.ChatRoom, error) {
	return r.storage.GetAvailableRooms(userID)
}

// RoomsForUser returns every room the user is currently a member of.
func (r *Registry) RoomsForUser(userID string) ([]models.ChatRoom, error) {
	return r.storage.GetRoomsForUser(userID)
}

// GetRoom loads a single room, translating absence into a NotFound error.
func (r *Registry) GetRoom(roomID string) (*models.ChatRoom, error) {
	room, err := r.storage.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("chat room not found")
	}
	return room, nil
}
