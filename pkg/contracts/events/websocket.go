// Package events contains the event contracts pushed to websocket clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeIconsRefresh asks the client to redraw every icon
	MessageTypeIconsRefresh MessageType = "icons:refresh"

	// MessageTypeLicenseStatus carries the current license activation
	MessageTypeLicenseStatus MessageType = "license:status"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// IconsRefreshData is the payload of an icons:refresh message
type IconsRefreshData struct {
	LicenseActivated bool `json:"license_activated"`
}

// LicenseStatusData is the payload of a license:status message
type LicenseStatusData struct {
	PluginType  string `json:"plugin_type"`
	ProductCode string `json:"product_code,omitempty"`
	Activated   bool   `json:"activated"`
	State       string `json:"state"`
}

// ConnectData is sent to a client right after it connects
type ConnectData struct {
	ClientID   string `json:"client_id"`
	APIVersion string `json:"api_version"`
}

// ErrorData is the payload of an error message
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage creates a message of the given type stamped with the current time
func NewMessage(msgType MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			Type:      msgType,
			Timestamp: time.Now().UTC(),
		},
		Data: data,
	}
}
