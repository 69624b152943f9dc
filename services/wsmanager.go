package services

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// wsClient - соединение со своим мьютексом записи: websocket.Conn не поддерживает конкурентную запись
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WSConnManager хранит открытые WebSocket-соединения по username
type WSConnManager struct {
	mu        sync.Mutex
	users     map[string][]*wsClient
	writeWait time.Duration
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users:     make(map[string][]*wsClient),
		writeWait: wsWriteWait,
	}
}

func (m *WSConnManager) Add(username string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = append(m.users[username], &wsClient{conn: conn})
}

func (m *WSConnManager) Remove(username string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clients := m.users[username]
	for i, c := range clients {
		if c.conn == conn {
			m.users[username] = append(clients[:i:i], clients[i+1:]...)
			break
		}
	}
	if len(m.users[username]) == 0 {
		delete(m.users, username)
	}
}

// Send пишет вне общего мьютекса, каждое соединение с дедлайном.
// Соединения, в которые не удалось записать, закрываются и удаляются.
func (m *WSConnManager) Send(username string, message []byte) {
	m.mu.Lock()
	clients := append([]*wsClient(nil), m.users[username]...)
	m.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.conn.SetWriteDeadline(time.Now().Add(m.writeWait))
		if err == nil {
			err = c.conn.WriteMessage(websocket.TextMessage, message)
		}
		c.mu.Unlock()
		if err != nil {
			log.Printf("Dropping websocket of %s: %v", username, err)
			m.Remove(username, c.conn)
			_ = c.conn.Close()
		}
	}
}

func (m *WSConnManager) Connected(username string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users[username])
}
