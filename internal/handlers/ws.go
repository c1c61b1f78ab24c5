package handlers

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/titan3755/photobytes-blog/internal/services"
	"github.com/titan3755/photobytes-blog/internal/types"
	"github.com/titan3755/photobytes-blog/internal/utils"
)

// threadClient serializes writes to one connection. The ping goroutine and
// any number of broadcasting request goroutines share the conn, and gorilla
// allows only a single concurrent writer.
type threadClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *threadClient) writeJSON(value interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteJSON(value)
}

func (c *threadClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

var (
	threadClients   = make(map[string]map[*threadClient]bool)
	threadClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

func unregisterThreadClient(topic string, client *threadClient) {
	threadClientsMu.Lock()

	if clients, exists := threadClients[topic]; exists {
		delete(clients, client)

		if len(clients) == 0 {
			delete(threadClients, topic)
		}
	}

	threadClientsMu.Unlock()
}

// BroadcastThreadRefresh tells every client watching an order thread to
// re-fetch messages and unread counts.
func BroadcastThreadRefresh(orderID string) {
	threadClientsMu.RLock()
	clients, exists := threadClients[orderID]
	if !exists || len(clients) == 0 {
		threadClientsMu.RUnlock()
		return
	}

	clientsCopy := make([]*threadClient, 0, len(clients))
	for client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	threadClientsMu.RUnlock()

	for _, client := range clientsCopy {
		err := client.writeJSON(map[string]string{
			"type":     "refresh",
			"message":  "Order thread updated",
			"order_id": orderID,
		})

		if err != nil {
			log.Printf("Failed to broadcast refresh to client: %v", err)
			unregisterThreadClient(orderID, client)
			client.conn.Close()
		}
	}
}

// OrderThreadSocket upgrades the connection for an order's author or staff
// and keeps it registered until the client goes away.
func OrderThreadSocket(c *gin.Context) {
	currentUser, err := utils.GetCurrentUser(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	orderID, err := utils.GetIDParam(c, "id")

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Same access rule as the thread itself; piggyback on the list check.
	if _, err := services.ListMessages(orderID, orderViewer(currentUser)); err != nil {
		threadError(c, err)
		return
	}

	// Register under the canonical decimal form, which is also what
	// broadcasters use; the raw path param may carry leading zeros.
	topic := strconv.FormatUint(uint64(orderID), 10)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	client := &threadClient{conn: conn}

	threadClientsMu.Lock()
	if threadClients[topic] == nil {
		threadClients[topic] = make(map[*threadClient]bool)
	}
	threadClients[topic][client] = true
	threadClientsMu.Unlock()

	defer func() {
		unregisterThreadClient(topic, client)
		conn.Close()

		log.Printf("WebSocket connection closed for order %s", topic)
	}()

	err = client.writeJSON(map[string]string{
		"type":     "connected",
		"message":  "WebSocket connection established",
		"order_id": topic,
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := client.ping(); err != nil {
				log.Printf("Ping failed for order %s: %v", topic, err)
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline for order %s: %v", topic, err)
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for order %s: %v", topic, err)
			}
			break
		}
	}
}
