package chathub

import "roomchat/backend/internal/models"

// Client is the interface for one live connection (e.g., WebSocket). It
// abstracts the underlying transport, allowing the hub to manage client
// connections uniformly and to substitute doubles in tests.
type Client interface {
	// GetConnID returns the unique identifier of this connection.
	GetConnID() string
	// GetUserID returns the user bound to the connection, or "" before bind.
	GetUserID() string
	// SetUserID binds the connection to a user identity.
	SetUserID(string)

	// GetSendChannel returns the channel to which the hub sends events
	// intended for this specific connection. It is a send-only channel.
	GetSendChannel() chan<- models.Event

	// Run starts the client's read and write pumps, which handle incoming and
	// outgoing events.
	Run()
	// Close gracefully shuts down the client's connection and associated channels.
	Close()
}
