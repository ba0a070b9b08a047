package chathub

import (
	"log"
	"strings"

	"roomchat/backend/internal/config"
	"roomchat/backend/internal/models"
	"roomchat/backend/internal/presence"
	"roomchat/backend/internal/rooms"
	"roomchat/backend/internal/storage"
)

// TopicEvent is an event received from the pub/sub transport together with
// the topic (room ID or the broadcast pseudo-topic) it arrived on.
type TopicEvent struct {
	Topic string
	Event models.Event
}

// ManagerService is the hub: it owns the connection sessions and the
// per-room broadcast topics, and drives presence transitions on connect and
// disconnect. All session and topic state is touched only from the Run
// goroutine, which also fixes the delivery order of events within a room.
type ManagerService struct {
	Sessions map[string]*Session          // connection id -> session
	Topics   map[string]map[string]Client // room id -> connection id -> client

	IncomingCh   chan models.Event
	RegisterCh   chan Client
	UnregisterCh chan Client
	PubSubCh     chan TopicEvent

	Storage  storage.Storage
	Presence *presence.Tracker
	Rooms    *rooms.Registry
}

func NewManagerService(s storage.Storage, tracker *presence.Tracker, registry *rooms.Registry) *ManagerService {
	return &ManagerService{
		Sessions:     make(map[string]*Session),
		Topics:       make(map[string]map[string]Client),
		IncomingCh:   make(chan models.Event, config.BroadcastChannelSize),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		PubSubCh:     make(chan TopicEvent, config.BroadcastChannelSize),
		Storage:      s,
		Presence:     tracker,
		Rooms:        registry,
	}
}

// Run є головним диспетчером хаба.
func (m *ManagerService) Run() {
	m.StartPubSubListener()

	for {
		select {
		case client := <-m.RegisterCh:
			m.Sessions[client.GetConnID()] = newSession(client)

		case client := <-m.UnregisterCh:
			m.teardown(client.GetConnID())

		case ev := <-m.IncomingCh:
			m.dispatch(ev)

		case te := <-m.PubSubCh:
			m.fanOut(te)
		}
	}
}

func (m *ManagerService) dispatch(ev models.Event) {
	switch ev.Type {
	case models.EventJoinUser:
		m.bindUser(ev)
	case models.EventJoinRoom:
		m.joinRoomSession(ev)
	case models.EventLeaveRoom:
		m.leaveRoomSession(ev)
	case models.EventSendMessage:
		m.handleSendMessage(ev)
	case models.EventTyping:
		m.relayTyping(ev, models.EventUserTyping)
	case models.EventStopTyping:
		m.relayTyping(ev, models.EventUserStopTyping)
	case models.EventRoomCreated:
		m.handleRoomCreated(ev)
	default:
		log.Printf("Unknown event type %q from connection %s", ev.Type, ev.Origin)
	}
}

// bindUser binds the connection to a user, bumps presence and subscribes the
// connection to a snapshot of the user's current rooms. Rooms joined later
// need an explicit join-room session event.
func (m *ManagerService) bindUser(ev models.Event) {
	sess, ok := m.Sessions[ev.Origin]
	if !ok {
		return
	}

	userID := sess.Client.GetUserID()
	if userID == "" {
		userID = ev.UserID
		sess.Client.SetUserID(userID)
	}
	if userID == "" {
		log.Printf("join-user without a user id on connection %s", ev.Origin)
		return
	}
	sess.UserID = userID

	// Кожне з'єднання займає рівно один слот присутності, незалежно від
	// кількості отриманих join-user.
	wentOnline := false
	if !sess.Bound {
		wentOnline = m.Presence.Bind(userID)
		sess.Bound = true
	}

	userRooms, err := m.Rooms.RoomsForUser(userID)
	if err != nil {
		log.Printf("ERROR: Failed to load rooms for user %s: %v", userID, err)
		return
	}

	for _, room := range userRooms {
		m.subscribe(room.ID, sess.Client)
		sess.Rooms[room.ID] = true

		if wentOnline {
			m.publish(room.ID, models.Event{
				Type:   models.EventUserOnline,
				RoomID: room.ID,
				UserID: userID,
				Origin: ev.Origin,
			})
		}
	}
}

// joinRoomSession subscribes the connection to a room's broadcast topic. It
// does not touch the membership registry.
func (m *ManagerService) joinRoomSession(ev models.Event) {
	sess, ok := m.Sessions[ev.Origin]
	if !ok || ev.RoomID == "" {
		return
	}

	m.subscribe(ev.RoomID, sess.Client)
	sess.Rooms[ev.RoomID] = true

	m.publish(ev.RoomID, models.Event{
		Type:   models.EventUserJoinedRoom,
		RoomID: ev.RoomID,
		UserID: sess.UserID,
		Origin: ev.Origin,
	})
}

func (m *ManagerService) leaveRoomSession(ev models.Event) {
	sess, ok := m.Sessions[ev.Origin]
	if !ok || ev.RoomID == "" {
		return
	}

	m.unsubscribe(ev.RoomID, sess.Client.GetConnID())
	delete(sess.Rooms, ev.RoomID)

	m.publish(ev.RoomID, models.Event{
		Type:   models.EventUserLeftRoom,
		RoomID: ev.RoomID,
		UserID: sess.UserID,
		Origin: ev.Origin,
	})
}

// handleSendMessage persists the message and only then publishes it for
// delivery. A failed write suppresses the broadcast entirely; the sender
// gets a structured error event instead of a silent drop.
func (m *ManagerService) handleSendMessage(ev models.Event) {
	sess, ok := m.Sessions[ev.Origin]
	if !ok {
		return
	}
	if sess.UserID == "" {
		m.sendError(ev.Origin, "not bound to a user")
		return
	}

	content := strings.TrimSpace(ev.Content)
	if content == "" {
		m.sendError(ev.Origin, "message content is required")
		return
	}

	room, err := m.Storage.GetRoomByID(ev.RoomID)
	if err != nil || room == nil {
		m.sendError(ev.Origin, "chat room not found")
		return
	}
	if !room.HasMember(sess.UserID) {
		m.sendError(ev.Origin, "you are not a member of this room")
		return
	}

	msg := &models.Message{
		RoomID:     room.ID,
		SenderID:   sess.UserID,
		SenderName: ev.Username,
		Content:    content,
	}
	if err := m.Storage.SaveMessage(msg); err != nil {
		// Durability before delivery: no persist, no broadcast.
		m.sendError(ev.Origin, "failed to send message")
		return
	}

	m.publish(room.ID, models.Event{
		Type:    models.EventNewMessage,
		RoomID:  room.ID,
		Message: msg,
	})
}

// relayTyping forwards ephemeral typing signals without persisting them.
// The originating connection is excluded from delivery.
func (m *ManagerService) relayTyping(ev models.Event, outType string) {
	sess, ok := m.Sessions[ev.Origin]
	if !ok || ev.RoomID == "" {
		return
	}

	m.publish(ev.RoomID, models.Event{
		Type:     outType,
		RoomID:   ev.RoomID,
		UserID:   sess.UserID,
		Username: ev.Username,
		Origin:   ev.Origin,
	})
}

// handleRoomCreated subscribes the creating connection to the new room and,
// for public rooms, announces the room to every connected session.
func (m *ManagerService) handleRoomCreated(ev models.Event) {
	sess, ok := m.Sessions[ev.Origin]
	if !ok || ev.Room == nil || ev.Room.ID == "" {
		return
	}

	m.subscribe(ev.Room.ID, sess.Client)
	sess.Rooms[ev.Room.ID] = true

	if !ev.Room.IsPrivate {
		m.publish(storage.BroadcastTopic, models.Event{
			Type:   models.EventNewPublicRoom,
			Room:   ev.Room,
			Origin: ev.Origin,
		})
	}
}

// teardown unwinds a session: unsubscribe all topics, release the presence
// binding (persisting lastSeen best-effort) and, on an offline transition,
// announce it to the rooms the session had snapshotted.
func (m *ManagerService) teardown(connID string) {
	sess, ok := m.Sessions[connID]
	if !ok {
		return
	}
	delete(m.Sessions, connID)

	for roomID := range sess.Rooms {
		m.unsubscribe(roomID, connID)
	}

	if sess.Bound && sess.UserID != "" {
		if wentOffline := m.Presence.Unbind(sess.UserID); wentOffline {
			for roomID := range sess.Rooms {
				m.publish(roomID, models.Event{
					Type:   models.EventUserOffline,
					RoomID: roomID,
					UserID: sess.UserID,
					Origin: connID,
				})
			}
		}
	}

	sess.Client.Close()
}

func (m *ManagerService) subscribe(roomID string, client Client) {
	topic, ok := m.Topics[roomID]
	if !ok {
		topic = make(map[string]Client)
		m.Topics[roomID] = topic
	}
	topic[client.GetConnID()] = client
}

func (m *ManagerService) unsubscribe(roomID, connID string) {
	topic, ok := m.Topics[roomID]
	if !ok {
		return
	}
	delete(topic, connID)
	if len(topic) == 0 {
		delete(m.Topics, roomID)
	}
}

// publish hands an event to the pub/sub transport. Announcement failures are
// logged and never abort the calling operation.
func (m *ManagerService) publish(topic string, ev models.Event) {
	if err := m.Storage.PublishEvent(topic, ev); err != nil {
		log.Printf("ERROR: Failed to publish %s event to topic %s: %v", ev.Type, topic, err)
	}
}

// fanOut delivers an event received from the pub/sub transport to the local
// subscribers of its topic, preserving arrival order. Events carrying an
// origin connection skip that connection.
func (m *ManagerService) fanOut(te TopicEvent) {
	origin := te.Event.Origin
	ev := te.Event
	ev.Origin = ""

	if te.Topic == storage.BroadcastTopic {
		for connID, sess := range m.Sessions {
			if connID == origin {
				continue
			}
			m.deliver(connID, sess.Client, ev)
		}
		return
	}

	for connID, client := range m.Topics[te.Topic] {
		if connID == origin {
			continue
		}
		m.deliver(connID, client, ev)
	}
}

// deliver pushes an event into one client's send buffer without blocking.
// A client whose buffer is full is torn down so it cannot stall delivery to
// the rest of the room.
func (m *ManagerService) deliver(connID string, client Client, ev models.Event) {
	select {
	case client.GetSendChannel() <- ev:
	default:
		log.Printf("Connection %s is not keeping up, dropping it", connID)
		m.teardown(connID)
	}
}

func (m *ManagerService) sendError(connID string, msg string) {
	sess, ok := m.Sessions[connID]
	if !ok {
		return
	}
	m.deliver(connID, sess.Client, models.Event{
		Type:    models.EventError,
		Content: msg,
	})
}
