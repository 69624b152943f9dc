package services

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventMessageSent = "message_sent"
	EventMessageRead = "message_read"
)

// MessageEvent - событие по сообщению, доставляется адресату (Recipient) через WebSocket
type MessageEvent struct {
	Event     string    `json:"event"`
	MessageID int64     `json:"message_id"`
	From      string    `json:"from_username"`
	To        string    `json:"to_username"`
	At        time.Time `json:"at"`
	Recipient string    `json:"-"`
}

type Notifier interface {
	Notify(ctx context.Context, event MessageEvent) error
}

// WSNotifier отправляет событие сразу в WebSocket, без брокера
type WSNotifier struct {
	hub *WSConnManager
}

func NewWSNotifier(hub *WSConnManager) *WSNotifier {
	return &WSNotifier{hub: hub}
}

func (n *WSNotifier) Notify(_ context.Context, event MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	n.hub.Send(event.Recipient, data)
	return nil
}
