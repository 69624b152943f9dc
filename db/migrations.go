package db

import (
	"fmt"

	"messagely/models"

	"gorm.io/gorm"
)

// Индексы под выборки входящих/исходящих сообщений пользователя
var messageIndexes = map[string]string{
	"idx_messages_to_username_sent_at":   "to_username, sent_at",
	"idx_messages_from_username_sent_at": "from_username, sent_at",
}

// Migrate создает таблицы users/messages и индексы к ним
func Migrate(orm *gorm.DB) error {
	if err := orm.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	for name, columns := range messageIndexes {
		createIndexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s);`,
			name, models.Message{}.TableName(), columns)
		if err := orm.Exec(createIndexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}
	return nil
}
