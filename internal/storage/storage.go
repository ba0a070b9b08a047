package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"roomchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// channelPrefix namespaces the redis Pub/Sub channels used for realtime
// fan-out. One channel per room topic plus the global broadcast topic.
const channelPrefix = "chat:"

// BroadcastTopic is the pseudo-room topic for server-wide announcements
// (e.g. new public rooms).
const BroadcastTopic = "broadcast"

type Storage interface {
	// Users
	SaveUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	SetUserPresence(userID string, online bool, lastSeen time.Time) error

	// Rooms
	SaveRoom(room *models.ChatRoom) error
	GetRoomByID(roomID string) (*models.ChatRoom, error)
	GetRoomByCode(code string) (*models.ChatRoom, error)
	GetRoomsForUser(userID string) ([]models.ChatRoom, error)
	GetAvailableRooms(userID string) ([]models.ChatRoom, error)
	ListAllRooms() ([]models.ChatRoom, error)
	DeleteRoomIfEmpty(roomID string) (bool, error)
	DeleteRoom(roomID string) error

	// Invitations
	SaveInvitation(inv *models.Invitation) error
	GetPendingInvitation(roomID, userID string) (*models.Invitation, error)
	GetPendingInvitationsForUser(userID string) ([]models.Invitation, error)
	AcceptInvitation(inv *models.Invitation) (*models.ChatRoom, error)

	// Messages
	SaveMessage(msg *models.Message) error
	GetMessages(roomID string, page, limit int) ([]models.Message, error)

	// Realtime
	PublishEvent(topic string, ev models.Event) error
	SubscribeEvents() *redis.PubSub
}

// TopicFromChannel maps a redis channel name back to its room topic.
func TopicFromChannel(channel string) string {
	if len(channel) > len(channelPrefix) && channel[:len(channelPrefix)] == channelPrefix {
		return channel[len(channelPrefix):]
	}
	return channel
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveUser зберігає користувача в PostgreSQL
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Якщо запис не знайдено, повертаємо nil без помилки
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserPresence оновлює статус онлайн та LastSeen у PostgreSQL,
// а також дзеркальний ключ у Redis для швидких перевірок.
func (s *Service) SetUserPresence(userID string, online bool, lastSeen time.Time) error {
	updates := map[string]interface{}{"is_online": online}
	if !lastSeen.IsZero() {
		updates["last_seen"] = lastSeen
	}
	if err := s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		return err
	}

	if s.Redis != nil {
		key := "presence:" + userID
		if online {
			if err := s.Redis.Set(s.Ctx, key, "1", 0).Err(); err != nil {
				log.Printf("WARNING: Failed to mirror presence for %s in Redis: %v", userID, err)
			}
		} else {
			if err := s.Redis.Del(s.Ctx, key).Err(); err != nil {
				log.Printf("WARNING: Failed to clear presence for %s in Redis: %v", userID, err)
			}
		}
	}
	return nil
}

// SaveRoom зберігає кімнату в PostgreSQL
func (s *Service) SaveRoom(room *models.ChatRoom) error {
	return s.DB.Save(room).Error
}

func (s *Service) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.First(&room, "id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

func (s *Service) GetRoomByCode(code string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.First(&room, "room_code = ? AND is_private = ?", code, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoomsForUser повертає всі кімнати, членом яких є користувач.
func (s *Service) GetRoomsForUser(userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	if err := s.DB.Where("? = ANY(members)", userID).
		Order("created_at asc").
		Find(&rooms).Error; err != nil {
		log.Printf("ERROR: Failed to get rooms for user %s: %v", userID, err)
		return nil, err
	}
	return rooms, nil
}

// GetAvailableRooms повертає публічні кімнати, до яких користувач ще не приєднався.
func (s *Service) GetAvailableRooms(userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	if err := s.DB.Where("is_private = ?", false).
		Where("NOT (? = ANY(members))", userID).
		Order("created_at asc").
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListAllRooms повертає всі кімнати (для адмін-утиліти).
func (s *Service) ListAllRooms() ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	if err := s.DB.Order("created_at asc").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// DeleteRoom видаляє кімнату безумовно, разом з повідомленнями та запрошеннями.
func (s *Service) DeleteRoom(roomID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", roomID).Delete(&models.ChatRoom{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Unscoped().Where("room_id = ?", roomID).
			Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("room_id = ?", roomID).
			Delete(&models.Invitation{}).Error
	})
}

// DeleteRoomIfEmpty deletes the room and all of its messages in one
// transaction, but only if the membership set is still empty at delete time.
// The SQL predicate re-checks emptiness so a join that races the last leave
// keeps the room alive. Returns whether the room was actually deleted.
func (s *Service) DeleteRoomIfEmpty(roomID string) (bool, error) {
	deleted := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND cardinality(members) = 0", roomID).
			Delete(&models.ChatRoom{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // Кімната отримала нового учасника — залишаємо її
		}
		deleted = true
		if err := tx.Unscoped().Where("room_id = ?", roomID).
			Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("room_id = ?", roomID).
			Delete(&models.Invitation{}).Error
	})
	if err != nil {
		log.Printf("ERROR: Failed to delete empty room %s: %v", roomID, err)
		return false, err
	}
	return deleted, nil
}

func (s *Service) SaveInvitation(inv *models.Invitation) error {
	return s.DB.Save(inv).Error
}

// GetPendingInvitation повертає єдине очікуване запрошення для пари (кімната, користувач).
func (s *Service) GetPendingInvitation(roomID, userID string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.DB.First(&inv, "room_id = ? AND user_id = ? AND status = ?",
		roomID, userID, models.InvitationPending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Service) GetPendingInvitationsForUser(userID string) ([]models.Invitation, error) {
	var invs []models.Invitation
	if err := s.DB.Preload("Room").Preload("InvitedBy").
		Where("user_id = ? AND status = ?", userID, models.InvitationPending).
		Order("created_at asc").
		Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

// AcceptInvitation marks the invitation accepted and adds the invitee to the
// room's member set as a single transaction, so the state machine transition
// and the join cannot be observed separately.
func (s *Service) AcceptInvitation(inv *models.Invitation) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", inv.ID, models.InvitationPending).
			Update("status", models.InvitationAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound // Вже вирішено конкурентним запитом
		}
		if err := tx.First(&room, "id = ?", inv.RoomID).Error; err != nil {
			return err
		}
		if !room.HasMember(inv.UserID) {
			room.Members = append(room.Members, inv.UserID)
			return tx.Save(&room).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	inv.Status = models.InvitationAccepted
	return &room, nil
}

// SaveMessage зберігає повідомлення в PostgreSQL. msg.ID буде заповнено GORM.
func (s *Service) SaveMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %s: %v", msg.RoomID, err)
		return err
	}
	return nil
}

// GetMessages отримує сторінку історії повідомлень для кімнати.
// Вибірка йде від найновіших, але повертається у хронологічному порядку.
func (s *Service) GetMessages(roomID string, page, limit int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	var messages []models.Message
	if err := s.DB.Where("room_id = ?", roomID).
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&messages).Error; err != nil {
		log.Printf("ERROR: Failed to get messages for room %s: %v", roomID, err)
		return nil, err
	}
	// Розвертаємо: клієнт очікує найстаріші спочатку
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// PublishEvent публікує подію в Redis Pub/Sub на канал кімнати.
func (s *Service) PublishEvent(topic string, ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, channelPrefix+topic, string(payload)).Err()
}

// SubscribeEvents підписується на всі канали кімнат (включно з broadcast).
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.PSubscribe(s.Ctx, channelPrefix+"*")
}
