package chathub

// Session binds a live connection to a user identity and remembers which
// room topics the connection is subscribed to. Sessions live only in the
// hub's memory and are never persisted.
//
// Rooms is the subscription snapshot: it is seeded once when the user binds
// and afterwards changes only through explicit join-room / leave-room session
// events. A user added to a room by another party while connected will not
// receive that room's events until the client sends join-room.
type Session struct {
	Client Client
	UserID string
	Rooms  map[string]bool

	// Bound is set when the session has claimed a presence connection slot
	// via join-user. Teardown releases the slot only for bound sessions, so
	// bind and unbind stay paired per connection.
	Bound bool
}

func newSession(client Client) *Session {
	return &Session{
		Client: client,
		UserID: client.GetUserID(),
		Rooms:  make(map[string]bool),
	}
}
