package relay

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chatwire/relay/src/hub"
	"github.com/chatwire/relay/src/types"
)

// relayMessage broadcasts a chat message to the room, then persists it
// independently. Broadcast latency never depends on store latency, and
// a persistence failure never retracts a delivered broadcast; the
// sender alone gets a delivery_failed frame so its UI can flag the
// message. A crash between broadcast and persistence loses the message
// durably while clients believe it was delivered; that is the accepted
// cost of the optimistic design.
func (s *Service) relayMessage(client *hub.Client, identity *types.Identity, roomID, content string) {
	msg := types.Message{
		ID:             uuid.New().String(), // provisional; the store assigns the durable ID
		RoomID:         roomID,
		AuthorID:       identity.UserID,
		AuthorEmail:    identity.Email,
		AuthorUsername: identity.Username,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	frame := types.NewMessageFrame(msg)

	s.registry.Broadcast(roomID, frame, nil)
	s.publishToBridge(roomID, frame)

	s.persisting.Add(1)
	go s.persist(client, msg)
}

func (s *Service) persist(sender *hub.Client, msg types.Message) {
	defer s.persisting.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()

	if _, err := s.store.CreateMessage(ctx, msg); err != nil {
		s.logger.Error().
			Err(err).
			Str("room_id", msg.RoomID).
			Str("message_id", msg.ID).
			Msg("message persistence failed")
		sender.Enqueue(types.Frame{
			Type: types.FrameDeliveryFailed,
			Payload: types.DeliveryFailedPayload{
				MessageID: msg.ID,
				Reason:    "Message was delivered but could not be saved.",
			},
		})
	}
}

// Drain waits for in-flight persistence writes. Used during shutdown.
func (s *Service) Drain() {
	s.persisting.Wait()
}
