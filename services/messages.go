package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messagely/config"
	"messagely/db"
	"messagely/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageStore - хранилище сообщений, с которым работают обработчики
type MessageStore interface {
	Get(ctx context.Context, id int64) (*models.MessageDetail, error)
	Create(ctx context.Context, fromUsername, toUsername, body string) (*models.SentMessage, error)
	MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error)
	ListFrom(ctx context.Context, username string) ([]models.MessageDetail, error)
	ListTo(ctx context.Context, username string) ([]models.MessageDetail, error)
}

// MessageService - реализация MessageStore поверх gorm
type MessageService struct {
	db         *db.Manager
	readPolicy string
	now        func() time.Time
}

func NewMessageService(manager *db.Manager, readPolicy string) *MessageService {
	if readPolicy == "" {
		readPolicy = config.ReadPolicyKeep
	}
	return &MessageService{
		db:         manager,
		readPolicy: readPolicy,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *MessageService) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	var msg models.Message
	err := s.db.GetReadOnlyDB(ctx).
		Preload("FromUser").
		Preload("ToUser").
		First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("No such message: %d", id)
		}
		return nil, fmt.Errorf("failed to get message %d: %w", id, err)
	}
	detail := msg.Detail()
	return &detail, nil
}

func (s *MessageService) Create(ctx context.Context, fromUsername, toUsername, body string) (*models.SentMessage, error) {
	var recipients int64
	err := s.db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("username = ?", toUsername).Count(&recipients).Error
	if err != nil {
		return nil, fmt.Errorf("error checking recipient: %w", err)
	}
	if recipients == 0 {
		return nil, NotFound("No such user: %s", toUsername)
	}

	msg := models.Message{
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
		SentAt:       s.now(),
	}
	if err = s.db.GetWriteDB(ctx).Omit(clause.Associations).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	sent := msg.Sent()
	return &sent, nil
}

// MarkRead проставляет read_at. При политике keep повторная отметка ничего не меняет
// и возвращает время первого прочтения, при restamp время перезаписывается.
func (s *MessageService) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {
	q := s.db.GetWriteDB(ctx).Model(&models.Message{}).Where("id = ?", id)
	if s.readPolicy == config.ReadPolicyKeep {
		q = q.Where("read_at IS NULL")
	}
	if err := q.Update("read_at", s.now()).Error; err != nil {
		return nil, fmt.Errorf("failed to mark message %d read: %w", id, err)
	}

	// перечитываем с мастера, чтобы не словить отставание реплики
	var msg models.Message
	err := s.db.GetWriteDB(ctx).Select("id", "read_at").First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("No such message: %d", id)
		}
		return nil, fmt.Errorf("failed to reload message %d: %w", id, err)
	}
	receipt := msg.Receipt()
	return &receipt, nil
}

func (s *MessageService) ListFrom(ctx context.Context, username string) ([]models.MessageDetail, error) {
	return s.list(ctx, "from_username = ?", username)
}

func (s *MessageService) ListTo(ctx context.Context, username string) ([]models.MessageDetail, error) {
	return s.list(ctx, "to_username = ?", username)
}

func (s *MessageService) list(ctx context.Context, where string, username string) ([]models.MessageDetail, error) {
	var messages []models.Message
	err := s.db.GetReadOnlyDB(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where(where, username).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of %s: %w", username, err)
	}

	details := make([]models.MessageDetail, 0, len(messages))
	for _, m := range messages {
		details = append(details, m.Detail())
	}
	return details, nil
}
