package models

import (
	"time"
)

// Message представляет сообщение от одного пользователя другому
type Message struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	FromUsername string     `gorm:"size:60;not null" json:"from_username"`
	ToUsername   string     `gorm:"size:60;not null" json:"to_username"`
	Body         string     `gorm:"type:text;not null" json:"body"`
	SentAt       time.Time  `gorm:"not null" json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`

	FromUser User `gorm:"foreignKey:FromUsername;references:Username" json:"-"`
	ToUser   User `gorm:"foreignKey:ToUsername;references:Username" json:"-"`
}

// TableName возвращает имя таблицы для модели Message
func (Message) TableName() string {
	return "messages"
}

// MessageDetail - сообщение вместе с отправителем и получателем
type MessageDetail struct {
	ID       int64       `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
	ToUser   UserSummary `json:"to_user"`
}

// IsParty - является ли username отправителем или получателем
func (d MessageDetail) IsParty(username string) bool {
	return username == d.FromUser.Username || username == d.ToUser.Username
}

// SentMessage - ответ на создание сообщения, read_at еще нет
type SentMessage struct {
	ID           int64     `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

type ReadReceipt struct {
	ID     int64      `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

// InboxMessage - входящее сообщение в GET /users/:username/to
type InboxMessage struct {
	ID       int64       `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
}

// OutboxMessage - исходящее сообщение в GET /users/:username/from
type OutboxMessage struct {
	ID     int64       `json:"id"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
	ToUser UserSummary `json:"to_user"`
}

func (m Message) Detail() MessageDetail {
	return MessageDetail{
		ID:       m.ID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   m.ReadAt,
		FromUser: m.FromUser.Summary(),
		ToUser:   m.ToUser.Summary(),
	}
}

func (m Message) Sent() SentMessage {
	return SentMessage{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
	}
}

func (m Message) Receipt() ReadReceipt {
	return ReadReceipt{ID: m.ID, ReadAt: m.ReadAt}
}

func (d MessageDetail) Inbox() InboxMessage {
	return InboxMessage{ID: d.ID, Body: d.Body, SentAt: d.SentAt, ReadAt: d.ReadAt, FromUser: d.FromUser}
}

func (d MessageDetail) Outbox() OutboxMessage {
	return OutboxMessage{ID: d.ID, Body: d.Body, SentAt: d.SentAt, ReadAt: d.ReadAt, ToUser: d.ToUser}
}
