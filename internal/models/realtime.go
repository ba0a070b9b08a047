package models

// Session protocol event types, client → server.
const (
	EventJoinUser    = "join-user"
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
	EventStopTyping  = "stop-typing"
	EventRoomCreated = "room-created"
)

// Session protocol event types, server → client.
const (
	EventNewMessage     = "new-message"
	EventUserOnline     = "user-online"
	EventUserOffline    = "user-offline"
	EventUserTyping     = "user-typing"
	EventUserStopTyping = "user-stop-typing"
	EventNewPublicRoom  = "new-public-room"
	EventUserJoinedRoom = "user-joined-room"
	EventUserLeftRoom   = "user-left-room"
	EventError          = "error"
)

// Event is the flat wire frame for the realtime session protocol. Which
// fields are set depends on Type.
type Event struct {
	Type     string    `json:"type"`
	RoomID   string    `json:"room_id,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	Username string    `json:"username,omitempty"`
	Content  string    `json:"content,omitempty"`
	Message  *Message  `json:"message,omitempty"`
	Room     *ChatRoom `json:"room,omitempty"`

	// Origin is the originating connection ID. It travels with the event
	// through the pub/sub channel so typing and membership announcements can
	// exclude the sender's own connection; it is cleared before delivery.
	Origin string `json:"origin_conn,omitempty"`
}
