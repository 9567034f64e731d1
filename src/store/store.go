// Package store is the durable side of the relay: message history and
// the persistent half of rooms. The relay only ever creates messages,
// lists them, and upserts room rows; everything else about rooms and
// users belongs to the HTTP API.
package store

import (
	"context"

	"github.com/chatwire/relay/src/types"
)

// Store is the persistence collaborator consumed by the relay. Both
// operations are individually atomic; the relay places no transaction
// requirements beyond that.
type Store interface {
	// CreateMessage persists the message and returns the stored copy
	// with its durable ID. The input carries the provisional ID from
	// the broadcast; it is not reused.
	CreateMessage(ctx context.Context, msg types.Message) (*types.Message, error)

	// ListRecent returns up to limit messages for the room, newest
	// first. A room with no messages yields an empty slice, not an
	// error.
	ListRecent(ctx context.Context, roomID string, limit int) ([]types.Message, error)

	// EnsureRoom creates the persistent room row if it does not exist.
	EnsureRoom(ctx context.Context, roomID string) error
}
