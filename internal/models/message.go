package models

import "gorm.io/gorm"

// Message represents a persisted chat message. Messages are append-only:
// once saved they are never updated.
// The embedded gorm.Model provides ID, CreatedAt, UpdatedAt, and DeletedAt
// fields, which serve as the message ID and timestamps.
type Message struct {
	gorm.Model

	// RoomID is the identifier of the chat room where the message was sent.
	RoomID string `gorm:"type:uuid;not null;index:idx_room_msg" json:"room_id"`
	// SenderID is the ID of the user who sent the message.
	SenderID string `gorm:"type:uuid;not null;index:idx_room_msg" json:"sender_id"`
	// SenderName is the denormalized username of the sender at send time.
	SenderName string `gorm:"type:text" json:"sender_name"`
	// Content is the message text. Non-empty after trimming.
	Content string `gorm:"type:text;not null" json:"content"`
}
