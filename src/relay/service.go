// Package relay drives the per-connection protocol: authentication,
// room joins, chat fan-out, history replay, and disconnect cleanup.
package relay

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chatwire/relay/src/auth"
	"github.com/chatwire/relay/src/hub"
	"github.com/chatwire/relay/src/store"
	"github.com/chatwire/relay/src/types"
)

// Bridge publishes broadcast frames to other relay instances.
// Defined here to avoid circular imports with the bridge package.
type Bridge interface {
	Publish(roomID string, frame types.Frame) error
	Available() bool
}

const defaultStoreTimeout = 5 * time.Second

// Service is the relay core. One goroutine per connection runs the read
// loop; all of them share the registry and the store.
type Service struct {
	registry     *hub.Registry
	verifier     *auth.Verifier
	store        store.Store
	historyLimit int
	storeTimeout time.Duration
	logger       zerolog.Logger

	mu     sync.RWMutex
	bridge Bridge

	connections atomic.Int64
	persisting  sync.WaitGroup
}

// New creates a relay service.
func New(registry *hub.Registry, verifier *auth.Verifier, st store.Store, historyLimit int, logger zerolog.Logger) *Service {
	return &Service{
		registry:     registry,
		verifier:     verifier,
		store:        st,
		historyLimit: historyLimit,
		storeTimeout: defaultStoreTimeout,
		logger:       logger,
	}
}

// SetBridge attaches a cross-instance bridge. When set, relayed chat
// frames are also forwarded to other instances.
func (s *Service) SetBridge(b Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridge = b
}

// Registry returns the underlying room registry.
func (s *Service) Registry() *hub.Registry { return s.registry }

// ConnectionCount returns the number of live connections.
func (s *Service) ConnectionCount() int64 { return s.connections.Load() }

// BroadcastLocal delivers a frame from the bridge to local room members
// only. It does not re-publish, preventing infinite loops.
func (s *Service) BroadcastLocal(roomID string, frame types.Frame) {
	s.registry.Broadcast(roomID, frame, nil)
}

// HandleConnection owns the connection until the transport closes. It
// starts the write pump, runs the read loop, and cleans up afterwards.
func (s *Service) HandleConnection(conn types.Conn) {
	client := hub.NewClient(uuid.New().String(), conn)
	s.connections.Add(1)
	s.logger.Info().Str("client_id", client.ID).Msg("client connected")

	go client.WritePump()
	s.readLoop(client)
	s.disconnect(client)
}

// readLoop decodes and dispatches inbound frames. A malformed frame
// yields an error frame and keeps the connection open; only a transport
// failure ends the loop.
func (s *Service) readLoop(client *hub.Client) {
	for {
		env, err := client.ReadEnvelope()
		if err != nil {
			if isDecodeError(err) {
				client.Enqueue(types.NewErrorFrame("Invalid message format."))
				continue
			}
			return
		}

		switch env.Type {
		case types.FrameJoin:
			s.handleJoin(client, env.Payload)
		case types.FrameChat:
			s.handleChat(client, env.Payload)
		case types.FramePing:
			client.Enqueue(types.Frame{Type: types.FramePong})
		default:
			client.Enqueue(types.NewErrorFrame("Unknown message type."))
		}
	}
}

// disconnect removes the client from every room it joined, notifying
// each room's remaining members. Running it for an already-cleaned-up
// client is a no-op.
func (s *Service) disconnect(client *hub.Client) {
	counts := s.registry.LeaveAll(client)
	for roomID, count := range counts {
		s.registry.Broadcast(roomID, types.Frame{
			Type: types.FrameUserLeft,
			Payload: types.PresencePayload{
				Message:   "A user has left the room.",
				UserCount: count,
			},
		}, nil)
	}
	client.Close()
	s.connections.Add(-1)
	s.logger.Info().
		Str("client_id", client.ID).
		Int("rooms_left", len(counts)).
		Dur("session", time.Since(client.ConnectedAt())).
		Msg("client disconnected")
}

func (s *Service) publishToBridge(roomID string, frame types.Frame) {
	s.mu.RLock()
	b := s.bridge
	s.mu.RUnlock()

	if b == nil || !b.Available() {
		return
	}
	if err := b.Publish(roomID, frame); err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("bridge publish failed")
	}
}

// isDecodeError reports whether the read failed on the frame contents
// rather than the transport. Decode failures leave the session usable.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
