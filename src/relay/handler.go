package relay

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/chatwire/relay/src/auth"
	"github.com/chatwire/relay/src/hub"
	"github.com/chatwire/relay/src/types"
)

// handleJoin authenticates the client and adds it to the requested room.
// The first successful join pins the client's identity for the lifetime
// of the connection. Every failure leaves the session state unchanged.
func (s *Service) handleJoin(client *hub.Client, payload json.RawMessage) {
	var join types.JoinPayload
	if err := json.Unmarshal(payload, &join); err != nil {
		client.Enqueue(types.NewErrorFrame("Invalid join payload."))
		return
	}
	if strings.TrimSpace(join.RoomID) == "" {
		client.Enqueue(types.NewErrorFrame("roomId is required."))
		return
	}
	if strings.TrimSpace(join.Token) == "" {
		client.Enqueue(types.NewErrorFrame("Authentication token is missing."))
		return
	}

	identity, err := s.verifier.Verify(join.Token)
	if err != nil {
		client.Enqueue(types.NewErrorFrame(authFailureReason(err)))
		return
	}
	identity = client.AttachIdentity(identity)

	count := s.registry.Join(join.RoomID, client)
	s.logger.Info().
		Str("client_id", client.ID).
		Str("room_id", join.RoomID).
		Str("user_id", identity.UserID).
		Int("user_count", count).
		Msg("client joined room")

	client.Enqueue(types.Frame{
		Type:    types.FrameRoomJoined,
		Payload: types.RoomJoinedPayload{RoomID: join.RoomID},
	})

	s.ensureRoom(join.RoomID)
	s.replayHistory(client, join.RoomID)

	s.registry.Broadcast(join.RoomID, types.Frame{
		Type: types.FrameUserJoined,
		Payload: types.PresencePayload{
			Message:   "A new user has joined the room.",
			UserCount: count,
		},
	}, client)
}

// handleChat validates the request and hands it to the pipeline. A chat
// frame is only accepted from a client holding a verified identity, for
// a room it has joined, with non-empty content.
func (s *Service) handleChat(client *hub.Client, payload json.RawMessage) {
	var chat types.ChatPayload
	if err := json.Unmarshal(payload, &chat); err != nil {
		client.Enqueue(types.NewErrorFrame("Invalid chat payload."))
		return
	}

	identity := client.Identity()
	if identity == nil {
		client.Enqueue(types.NewErrorFrame("You must join a room first to chat."))
		return
	}
	if chat.RoomID == "" || !client.InRoom(chat.RoomID) {
		client.Enqueue(types.NewErrorFrame("You are not in that room."))
		return
	}
	if strings.TrimSpace(chat.Content) == "" {
		client.Enqueue(types.NewErrorFrame("Message content is required."))
		return
	}

	s.relayMessage(client, identity, chat.RoomID, chat.Content)
}

// ensureRoom upserts the persistent room row. Failure is logged and the
// join proceeds; the registry does not depend on the store.
func (s *Service) ensureRoom(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()
	if err := s.store.EnsureRoom(ctx, roomID); err != nil {
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("room upsert failed")
	}
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return "Authentication token has expired."
	case errors.Is(err, auth.ErrSignature):
		return "Invalid token."
	default:
		return "Invalid token."
	}
}
