package db

import (
	"fmt"

	"gorm.io/gorm"
)

// CreateMessageIndexes создает составной индекс под запрос публичной доски:
// where approved = true order by created_at desc, id desc
func CreateMessageIndexes(db *gorm.DB) error {
	createIndexSQL := `
		CREATE INDEX IF NOT EXISTS idx_messages_approved_created_at
		ON messages (approved, created_at DESC, id DESC);
	`
	if err := db.Exec(createIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create index idx_messages_approved_created_at: %w", err)
	}
	return nil
}
