package controllers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/middleware"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// liveUpdate is the payload relayed to supervisor monitors for each
// ingested fix.
type liveUpdate struct {
	EmployeeID uint      `json:"employee_id"`
	ShiftID    uint      `json:"shift_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy"`
	CapturedAt time.Time `json:"captured_at"`
}

// LiveHub fans ingested fixes out to connected supervisor monitors.
type LiveHub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan liveUpdate
	mu        sync.Mutex
}

func NewLiveHub() *LiveHub {
	hub := &LiveHub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan liveUpdate, 100),
	}
	go hub.run()
	return hub
}

func (h *LiveHub) run() {
	for msg := range h.broadcast {
		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).
					Warn("Failed to send live update, unregistering client.")
				delete(h.clients, conn)
				conn.Close()
			}
		}
		h.mu.Unlock()
	}
}

func (h *LiveHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Supervisor monitor connected.")
}

func (h *LiveHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Supervisor monitor disconnected.")
}

// Publish queues an update for broadcast, dropping it when the channel is
// full rather than blocking the ingest path.
func (h *LiveHub) Publish(u liveUpdate) {
	select {
	case h.broadcast <- u:
	default:
		logrus.Warn("Live broadcast channel full, dropping update.")
	}
}

var liveHub = NewLiveHub()

// HandleLiveWebSocket upgrades a supervisor connection and keeps it
// registered with the hub until it closes. Authentication uses a JWT token
// query parameter because browsers cannot set headers on WebSocket dials.
func HandleLiveWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}
	claims, err := middleware.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if claims.Role != "supervisor" {
		c.JSON(http.StatusForbidden, gin.H{"error": "supervisor role required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	liveHub.Register(conn)
	defer liveHub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warn("Error reading from supervisor monitor.")
			}
			break
		}
	}
}
