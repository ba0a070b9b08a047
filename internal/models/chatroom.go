package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // Необхідний для pq.StringArray
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ChatRoom represents a group chat room.
// Members is the unordered set of member user IDs; RoomCode is set iff the
// room is private and is unique among private rooms.
type ChatRoom struct {
	// ID is the unique identifier for the chat room (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// Name is the display name of the room (max 50 characters).
	Name string `gorm:"not null" json:"name"`
	// Description is an optional room description (max 200 characters).
	Description string `json:"description"`
	// CreatorID is the ID of the user who created the room. The creator is
	// not required to remain a member.
	CreatorID string `gorm:"not null;index" json:"creator_id"`
	// IsPrivate indicates whether joining requires a room code or invitation.
	IsPrivate bool `json:"is_private"`
	// RoomCode is the 6-character base-36 uppercase join code (private only).
	RoomCode string `gorm:"index" json:"room_code,omitempty"`
	// Members holds the user IDs of the current members.
	Members pq.StringArray `gorm:"type:text[]" json:"members"`

	Invitations []Invitation `gorm:"foreignKey:RoomID" json:"invitations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Members == nil {
		r.Members = pq.StringArray{}
	}
	return
}

// HasMember reports whether the given user is currently a member.
func (r *ChatRoom) HasMember(userID string) bool {
	return lo.Contains(r.Members, userID)
}

// Invitation statuses. Accepted and declined are terminal.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

// Invitation is a pending grant of future membership in a private room,
// created by an existing member on behalf of a target user.
type Invitation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      string    `gorm:"not null;index:idx_room_invitee" json:"room_id"`
	Room        ChatRoom  `gorm:"foreignKey:RoomID" json:"-"`
	UserID      string    `gorm:"not null;index:idx_room_invitee" json:"user_id"`
	InvitedByID string    `gorm:"not null" json:"invited_by_id"`
	InvitedBy   User      `gorm:"foreignKey:InvitedByID" json:"-"`
	Status      string    `gorm:"size:20;default:'pending'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PendingInvite is the listing shape returned to invited users: the
// invitation itself plus the invited room's name/description and the
// inviter's identity.
type PendingInvite struct {
	RoomID          string    `json:"room_id"`
	RoomName        string    `json:"room_name"`
	RoomDescription string    `json:"room_description"`
	InvitedByID     string    `json:"invited_by_id"`
	InvitedByName   string    `json:"invited_by_name"`
	CreatedAt       time.Time `json:"created_at"`
}
