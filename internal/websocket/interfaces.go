package websocket

import (
	"time"

	"github.com/sarinfocom/intellij-extra-icons/internal/notifier"
)

// Connection defines the interface for WebSocket connections
// This allows for proper mocking in tests
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	ReadMessage() (messageType int, p []byte, err error)

	Close() error

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)

	// RemoteAddr returns the remote network address
	RemoteAddr() string
}

// RefreshTopic is where clients subscribe for icon refresh requests
type RefreshTopic interface {
	Subscribe(s notifier.Subscriber) *notifier.Subscription
}

// ActivationSource reports the license activation included in refresh events
type ActivationSource interface {
	Activated() bool
}
