package services

import (
	"sync"

	"github.com/gorilla/websocket"
)

// BoardWSManager рассылает события доски всем подключенным зрителям.
// Доска публичная, поэтому адресации по пользователям нет - только broadcast.
type BoardWSManager struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

func NewBoardWSManager() *BoardWSManager {
	return &BoardWSManager{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (m *BoardWSManager) Add(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[conn] = struct{}{}
}

func (m *BoardWSManager) Remove(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, conn)
}

func (m *BoardWSManager) Broadcast(message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for conn := range m.conns {
		_ = conn.WriteMessage(websocket.TextMessage, message)
	}
}

func (m *BoardWSManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

var GlobalBoardWSManager = NewBoardWSManager()
