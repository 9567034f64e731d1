// Package bridge relays broadcast frames between relay instances. Room
// membership stays local to each instance; only frames travel.
package bridge

import "github.com/chatwire/relay/src/types"

// Bridge defines the interface for cross-instance frame broadcasting.
type Bridge interface {
	// Publish sends a frame to all other instances via the bridge.
	Publish(roomID string, frame types.Frame) error

	// Start begins listening for frames from other instances.
	Start() error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}

// BroadcastTarget is implemented by the relay service to receive frames
// from the bridge.
type BroadcastTarget interface {
	BroadcastLocal(roomID string, frame types.Frame)
}
