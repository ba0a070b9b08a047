package handler_test

import (
	"time"

	"roomchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock implementation of the storage.Storage
// interface for handler tests.
type MockStorage struct {
	mock.Mock
}

// User operations
func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SetUserPresence(userID string, online bool, lastSeen time.Time) error {
	args := m.Called(userID, online, lastSeen)
	return args.Error(0)
}

// Room operations
func (m *MockStorage) SaveRoom(room *models.ChatRoom) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockStorage) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) GetRoomByCode(code string) (*models.ChatRoom, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) GetRoomsForUser(userID string) ([]models.ChatRoom, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatRoom), args.Error(1)
}

func (m *MockStorage) GetAvailableRooms(userID string) ([]models.ChatRoom, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatRoom), args.Error(1)
}

func (m *MockStorage) ListAllRooms() ([]models.ChatRoom, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatRoom), args.Error(1)
}

func (m *MockStorage) DeleteRoomIfEmpty(roomID string) (bool, error) {
	args := m.Called(roomID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) DeleteRoom(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

// Invitation operations
func (m *MockStorage) SaveInvitation(inv *models.Invitation) error {
	args := m.Called(inv)
	return args.Error(0)
}

func (m *MockStorage) GetPendingInvitation(roomID, userID string) (*models.Invitation, error) {
	args := m.Called(roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockStorage) GetPendingInvitationsForUser(userID string) ([]models.Invitation, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockStorage) AcceptInvitation(inv *models.Invitation) (*models.ChatRoom, error) {
	args := m.Called(inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

// Message operations
func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetMessages(roomID string, page, limit int) ([]models.Message, error) {
	args := m.Called(roomID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// Realtime operations
func (m *MockStorage) PublishEvent(topic string, ev models.Event) error {
	args := m.Called(topic, ev)
	return args.Error(0)
}

func (m *MockStorage) SubscribeEvents() *redis.PubSub {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*redis.PubSub)
}
