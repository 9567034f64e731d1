package types

import (
	"encoding/json"
	"time"
)

// Inbound frame types.
const (
	FrameJoin = "join"
	FrameChat = "chat"
	FramePing = "ping"
)

// Outbound frame types.
const (
	FramePong           = "pong"
	FrameRoomJoined     = "room_joined"
	FrameUserJoined     = "user_joined"
	FrameUserLeft       = "user_left"
	FrameNewMessage     = "SERVER:NEW_MESSAGE"
	FrameDeliveryFailed = "delivery_failed"
	FrameError          = "error"
)

// Envelope is the raw inbound frame. The payload stays undecoded until
// the type tag has been inspected, so every field access goes through a
// typed payload struct.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload is the payload of an inbound "join" frame.
type JoinPayload struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token"`
}

// ChatPayload is the payload of an inbound "chat" frame.
type ChatPayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

// Frame is an outbound frame.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// RoomJoinedPayload confirms a join to the caller.
type RoomJoinedPayload struct {
	RoomID string `json:"roomId"`
}

// PresencePayload notifies a room about a membership change.
type PresencePayload struct {
	Message   string `json:"message"`
	UserCount int    `json:"userCount"`
}

// NewMessagePayload wraps a relayed chat message.
type NewMessagePayload struct {
	Message Message `json:"message"`
}

// ErrorPayload carries a human-readable failure reason.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DeliveryFailedPayload tells the sender that an already-broadcast
// message could not be persisted.
type DeliveryFailedPayload struct {
	MessageID string `json:"messageId"`
	Reason    string `json:"reason"`
}

// Identity is the verified result of checking a bearer token. It is
// immutable once attached to a client.
type Identity struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Message is a chat message as it appears on the wire. The ID is
// provisional on the broadcast copy; the durable ID is assigned by the
// store and may differ. IDs are never used for deduplication.
type Message struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"roomId"`
	AuthorID       string    `json:"authorId"`
	AuthorEmail    string    `json:"authorEmail,omitempty"`
	AuthorUsername string    `json:"authorUsername,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewErrorFrame builds an error frame with the given reason.
func NewErrorFrame(reason string) Frame {
	return Frame{Type: FrameError, Payload: ErrorPayload{Message: reason}}
}

// NewMessageFrame wraps a message for broadcast.
func NewMessageFrame(msg Message) Frame {
	return Frame{Type: FrameNewMessage, Payload: NewMessagePayload{Message: msg}}
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}
