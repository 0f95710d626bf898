package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
)

const (
	alertWriteTimeout = 5 * time.Second
	alertBufferSize   = 16
)

// AlertHub fans critical-risk alerts out to subscribed care-team
// dashboards over websockets. It also implements domain.AlertNotifier
// so the prediction pipeline can fire alerts without knowing about the
// transport. A slow or dead subscriber is dropped, never waited on.
type AlertHub struct {
	log      *logrus.Logger
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan *alertMessage
}

// alertMessage is the wire form of one critical-risk alert.
type alertMessage struct {
	Type         string              `json:"type"`
	PredictionID string              `json:"prediction_id"`
	PatientID    string              `json:"patient_id"`
	TenantID     string              `json:"tenant_id"`
	RiskCategory domain.RiskCategory `json:"risk_category"`
	Risk30Day    float64             `json:"risk_30_day"`
	Explanation  string              `json:"explanation"`
	Timestamp    time.Time           `json:"timestamp"`
}

// NewAlertHub creates an alert hub.
func NewAlertHub(logger *logrus.Logger) *AlertHub {
	return &AlertHub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// NotifyCriticalRisk implements domain.AlertNotifier.
func (h *AlertHub) NotifyCriticalRisk(ctx context.Context, p *domain.Prediction) error {
	h.Broadcast(p)
	return nil
}

// Broadcast delivers an alert to every connected subscriber.
func (h *AlertHub) Broadcast(p *domain.Prediction) {
	msg := &alertMessage{
		Type:         "critical_risk",
		PredictionID: p.ID,
		PatientID:    p.PatientID,
		TenantID:     p.TenantID,
		RiskCategory: p.RiskCategory,
		Risk30Day:    p.Risk30Day,
		Explanation:  p.Explanation,
		Timestamp:    time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
			// Subscriber buffer full; drop it rather than block the pipeline.
			go h.remove(sub)
		}
	}

	h.log.WithFields(logrus.Fields{
		"prediction_id": p.ID,
		"subscribers":   len(h.subs),
	}).Info("Critical risk alert broadcast")
}

// HandleSubscribe upgrades the connection and streams alerts until the
// client disconnects.
func (h *AlertHub) HandleSubscribe(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan *alertMessage, alertBufferSize),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	h.log.WithField("remote", conn.RemoteAddr().String()).Debug("Alert subscriber connected")

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// writeLoop drains the subscriber's buffer onto the wire.
func (h *AlertHub) writeLoop(sub *subscriber) {
	for msg := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(alertWriteTimeout))
		if err := sub.conn.WriteJSON(msg); err != nil {
			h.remove(sub)
			return
		}
	}
}

// readLoop discards inbound frames and detects disconnects.
func (h *AlertHub) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.remove(sub)
			return
		}
	}
}

func (h *AlertHub) remove(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, sub)
	h.mu.Unlock()

	close(sub.send)
	sub.conn.Close()
}

// Close disconnects all subscribers.
func (h *AlertHub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.remove(sub)
	}
}
