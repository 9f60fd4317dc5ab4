// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	safetyService "wayguard/internal/service/safety"
)

// WebSocketClient represents a connected WebSocket client watching one
// location bucket for refreshed safety documents.
type WebSocketClient struct {
	conn         *websocket.Conn
	send         chan []byte
	bucket       string
	subscription *nats.Subscription
	closeOnce    sync.Once
	log          *logrus.Entry
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
	}
}

// upgrader is used to upgrade HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// SafetyWebSocketHandler streams refreshed safety documents for the caller's
// location bucket: every document the aggregator publishes for that bucket is
// pushed to the client until it disconnects.
func SafetyWebSocketHandler(natsConn *nats.Conn, subjectPrefix string) http.HandlerFunc {
	log := logrus.WithField("component", "websocket")

	return func(w http.ResponseWriter, r *http.Request) {
		if natsConn == nil {
			http.Error(w, "Live updates unavailable", http.StatusServiceUnavailable)
			return
		}

		loc, err := locationFromQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		bucket, ok := loc.BucketKey()
		if !ok {
			http.Error(w, "Missing location parameters", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("Failed to upgrade to WebSocket: %v", err)
			return
		}

		client := &WebSocketClient{
			conn:   conn,
			send:   make(chan []byte, 16),
			bucket: bucket,
			log:    log,
		}

		go client.writePump()
		go client.readPump()

		subject := safetyService.SubjectForBucket(subjectPrefix, bucket)
		sub, err := natsConn.Subscribe(subject, func(msg *nats.Msg) {
			select {
			case client.send <- msg.Data:
			default:
				// Slow consumer; the next refresh supersedes this one anyway.
			}
		})
		if err != nil {
			log.Errorf("Failed to subscribe to %s: %v", subject, err)
			client.closeConnection()
			return
		}
		client.subscription = sub

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":   "welcome",
			"bucket": bucket,
			"time":   time.Now(),
		})
		client.send <- welcome

		log.Infof("New WebSocket connection for bucket %s", bucket)
	}
}

// readPump discards client frames and watches for disconnection.
func (c *WebSocketClient) readPump() {
	config := DefaultWebSocketConfig()

	defer c.closeConnection()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warnf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps bucket updates to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	config := DefaultWebSocketConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConnection closes the WebSocket connection and cleans up resources
func (c *WebSocketClient) closeConnection() {
	c.closeOnce.Do(func() {
		if c.subscription != nil {
			c.subscription.Unsubscribe()
		}
		c.conn.Close()
		close(c.send)
		c.log.Infof("WebSocket connection closed for bucket %s", c.bucket)
	})
}
