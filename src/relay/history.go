package relay

import (
	"context"

	"github.com/chatwire/relay/src/hub"
	"github.com/chatwire/relay/src/types"
)

// replayHistory streams recent messages to the joining client only,
// oldest first. The store returns newest-first for bounded retrieval;
// the order is reversed here. A room with no history emits nothing.
//
// This is a point-in-time snapshot: a message persisted while the join
// completes may arrive twice (history and live) or not at all. Accepted
// race under the optimistic-delivery design.
func (s *Service) replayHistory(client *hub.Client, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()

	messages, err := s.store.ListRecent(ctx, roomID, s.historyLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("history load failed")
		return
	}

	for i := len(messages) - 1; i >= 0; i-- {
		client.Enqueue(types.NewMessageFrame(messages[i]))
	}
}
