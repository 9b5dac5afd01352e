// server/internal/socket/hub.go
package socket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn
	role string
}

// Hub quản lý tất cả các client WebSocket.
type Hub struct {
	// clients là một map để lưu trữ các kết nối, key là accountID.
	clients map[string]*client
	// mu là một Mutex để đảm bảo an toàn khi truy cập map clients từ nhiều goroutine.
	mu sync.RWMutex
}

// NewHub tạo một Hub mới.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

// Register thêm một client mới vào Hub.
func (h *Hub) Register(accountID, role string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[accountID] = &client{conn: conn, role: role}
	log.Printf("WebSocket client registered: %s (%s)", accountID, role)
}

// Unregister xóa một client khỏi Hub.
func (h *Hub) Unregister(accountID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[accountID]; ok {
		delete(h.clients, accountID)
		log.Printf("WebSocket client unregistered: %s", accountID)
	}
}

// Send gửi một tin nhắn đến một client cụ thể.
func (h *Hub) Send(accountID string, message []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cl, ok := h.clients[accountID]
	if !ok {
		// Không tìm thấy client (có thể đã offline), không coi đây là lỗi nghiêm trọng.
		log.Printf("WebSocket client not found, could not send message: %s", accountID)
		return nil
	}

	// Gửi tin nhắn JSON
	return cl.conn.WriteMessage(websocket.TextMessage, message)
}

// BroadcastToRole gửi một tin nhắn đến tất cả client đang online có role tương ứng
// (ví dụ: báo cho mọi recycler biết có pickup mới).
func (h *Hub) BroadcastToRole(role string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for accountID, cl := range h.clients {
		if cl.role != role {
			continue
		}
		if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to send WebSocket message to %s: %v", accountID, err)
		}
	}
}
