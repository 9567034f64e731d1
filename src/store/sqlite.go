package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chatwire/relay/src/types"
)

// Room is the persistent half of a room. The live membership set lives
// only in the hub registry.
type Room struct {
	ID        string    `gorm:"primarykey;size:100" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the Room model.
func (Room) TableName() string {
	return "rooms"
}

// Message is a persisted chat message. Written once, never mutated.
type Message struct {
	ID             string    `gorm:"primarykey;size:36" json:"id"`
	RoomID         string    `gorm:"size:100;index;not null" json:"room_id"`
	AuthorID       string    `gorm:"size:36;not null" json:"author_id"`
	AuthorEmail    string    `gorm:"size:255" json:"author_email"`
	AuthorUsername string    `gorm:"size:100" json:"author_username"`
	Content        string    `gorm:"not null" json:"content"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}

// SQLStore implements Store on top of GORM with SQLite.
type SQLStore struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and runs the
// schema migration. Use ":memory:" for an in-memory database.
func Open(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&Room{}, &Message{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// NewSQLStore wraps an existing GORM handle. The caller is responsible
// for migration.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// CreateMessage persists the message with a fresh durable ID.
func (s *SQLStore) CreateMessage(ctx context.Context, msg types.Message) (*types.Message, error) {
	record := Message{
		ID:             uuid.New().String(),
		RoomID:         msg.RoomID,
		AuthorID:       msg.AuthorID,
		AuthorEmail:    msg.AuthorEmail,
		AuthorUsername: msg.AuthorUsername,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	stored := record.toWire()
	return &stored, nil
}

// ListRecent returns up to limit messages for the room, newest first.
func (s *SQLStore) ListRecent(ctx context.Context, roomID string, limit int) ([]types.Message, error) {
	var records []Message
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]types.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, record.toWire())
	}
	return messages, nil
}

// EnsureRoom upserts the persistent room row. The registry stays
// permissive regardless; this mirrors the membership the HTTP API sees.
func (s *SQLStore) EnsureRoom(ctx context.Context, roomID string) error {
	room := Room{ID: roomID, Name: roomID}
	err := s.db.WithContext(ctx).
		Where("id = ?", roomID).
		FirstOrCreate(&room).Error
	if err != nil {
		return fmt.Errorf("failed to ensure room: %w", err)
	}
	return nil
}

func (m Message) toWire() types.Message {
	return types.Message{
		ID:             m.ID,
		RoomID:         m.RoomID,
		AuthorID:       m.AuthorID,
		AuthorEmail:    m.AuthorEmail,
		AuthorUsername: m.AuthorUsername,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}
