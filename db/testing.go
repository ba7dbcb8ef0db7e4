package db

import (
	"fmt"
	"sync/atomic"

	"noteboard/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBCounter int64

// ConnectTestDB поднимает чистую in-memory sqlite базу и подменяет ORM.
// Каждый вызов дает изолированную базу - имя уникально на процесс.
func ConnectTestDB() error {
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:noteboard_test_%d?mode=memory&cache=shared", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(&models.Message{}, &models.Moderator{}, &models.ModeratorToken{})
	if err != nil {
		return err
	}

	if err := CreateMessageIndexes(db); err != nil {
		return err
	}

	ORM = db
	return nil
}
