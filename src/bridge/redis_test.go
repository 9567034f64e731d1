package bridge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/relay/src/types"
)

// mockBroadcastTarget records frames forwarded from the bridge.
type mockBroadcastTarget struct {
	rooms  []string
	frames []types.Frame
}

func (m *mockBroadcastTarget) BroadcastLocal(roomID string, frame types.Frame) {
	m.rooms = append(m.rooms, roomID)
	m.frames = append(m.frames, frame)
}

func TestRedisEnvelopeRoundTrip(t *testing.T) {
	frame := types.NewMessageFrame(types.Message{
		ID:        "prov-1",
		RoomID:    "r1",
		AuthorID:  "user-1",
		Content:   "hello",
		CreatedAt: time.Now().Truncate(time.Second),
	})

	env := redisEnvelope{
		InstanceID: "node-1",
		RoomID:     "r1",
		Frame:      frame,
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded redisEnvelope
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "node-1", decoded.InstanceID)
	assert.Equal(t, "r1", decoded.RoomID)
	assert.Equal(t, types.FrameNewMessage, decoded.Frame.Type)

	payload, ok := decoded.Frame.Payload.(map[string]any)
	require.True(t, ok)
	message, ok := payload["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", message["content"])
	assert.Equal(t, "user-1", message["authorId"])
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, "chatwire:relay:", cfg.Prefix)
}

func TestRedisConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.example.com:6380")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_RELAY_PREFIX", "test:relay:")

	cfg := RedisConfigFromEnv()
	assert.Equal(t, "redis.example.com:6380", cfg.Addr)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 3, cfg.DB)
	assert.Equal(t, "test:relay:", cfg.Prefix)
}

func TestRedisConfigFromEnvInvalidDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := RedisConfigFromEnv()
	assert.Equal(t, 0, cfg.DB) // falls back to default
}

func TestRedisBridgeAvailableFalseBeforeStart(t *testing.T) {
	target := &mockBroadcastTarget{}
	rb := NewRedisBridge(DefaultRedisConfig(), target, zerolog.Nop())
	assert.False(t, rb.Available())
}

func TestRedisBridgeSkipsOwnFrames(t *testing.T) {
	target := &mockBroadcastTarget{}
	rb := NewRedisBridge(DefaultRedisConfig(), target, zerolog.Nop())

	env := redisEnvelope{
		InstanceID: rb.instanceID,
		RoomID:     "r1",
		Frame:      types.NewErrorFrame("should not be relayed"),
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	rb.handleRedisMessage(&redis.Message{Payload: string(data)})
	assert.Empty(t, target.frames)
}

func TestRedisBridgeForwardsRemoteFrames(t *testing.T) {
	target := &mockBroadcastTarget{}
	rb := NewRedisBridge(DefaultRedisConfig(), target, zerolog.Nop())

	env := redisEnvelope{
		InstanceID: "some-other-node",
		RoomID:     "r1",
		Frame:      types.NewErrorFrame("relayed"),
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	rb.handleRedisMessage(&redis.Message{Payload: string(data)})
	require.Len(t, target.frames, 1)
	assert.Equal(t, "r1", target.rooms[0])
	assert.Equal(t, types.FrameError, target.frames[0].Type)
}

func TestRedisBridgeInstanceIDUnique(t *testing.T) {
	target := &mockBroadcastTarget{}
	b1 := NewRedisBridge(DefaultRedisConfig(), target, zerolog.Nop())
	b2 := NewRedisBridge(DefaultRedisConfig(), target, zerolog.Nop())
	assert.NotEqual(t, b1.instanceID, b2.instanceID)
}
