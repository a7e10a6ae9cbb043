// Package sse pushes real-time events to salon dashboard sessions over
// Server-Sent Events. Connections are grouped per tenant: every staff member
// watching the dashboard sees the same feed.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"
)

// EventType names the SSE events the dashboard listens for.
type EventType string

const (
	// EventInAppNotification carries a new feed entry.
	EventInAppNotification EventType = "in_app_notification"
	// EventEscalationOpened fires when a client is overdue and staff must act.
	EventEscalationOpened EventType = "escalation_opened"
	// EventAppointmentBooked fires when a new appointment lands on the agenda.
	EventAppointmentBooked EventType = "appointment_booked"
	// EventAppointmentStatusChanged fires on any lifecycle transition.
	EventAppointmentStatusChanged EventType = "appointment_status_changed"
)

// Event is one SSE payload.
type Event struct {
	Type          EventType   `json:"type"`
	AppointmentID uuid.UUID   `json:"appointmentId,omitempty"`
	Message       string      `json:"message,omitempty"`
	Data          interface{} `json:"data,omitempty"`
}

// conn is one open dashboard connection.
type conn struct {
	tenantID uuid.UUID
	userID   uuid.UUID
	events   chan Event
}

// Service is the connection hub. Safe for concurrent use.
type Service struct {
	mu    sync.RWMutex
	conns map[uuid.UUID][]*conn // tenantID -> open connections
	log   *logger.Logger
}

// New creates the SSE hub.
func New(log *logger.Logger) *Service {
	return &Service{
		conns: make(map[uuid.UUID][]*conn),
		log:   log,
	}
}

func (s *Service) addConn(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c.tenantID] = append(s.conns[c.tenantID], c)
}

// removeConn drops a connection and closes its channel. A connection already
// removed by Close is left alone.
func (s *Service) removeConn(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := s.conns[c.tenantID]
	for i, existing := range conns {
		if existing == c {
			s.conns[c.tenantID] = append(conns[:i], conns[i+1:]...)
			close(c.events)
			break
		}
	}
	if len(s.conns[c.tenantID]) == 0 {
		delete(s.conns, c.tenantID)
	}
}

// PublishToTenant broadcasts an event to every open dashboard session of the
// salon. Sessions with a full buffer miss the event; the durable feed row is
// the source of truth, the push is a hint.
//
// The read lock is held across the sends so no channel can be closed under
// us; sends never block thanks to the default case.
func (s *Service) PublishToTenant(tenantID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.conns[tenantID] {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full, event dropped", "tenantId", tenantID, "userId", c.userID, "event", event.Type)
		}
	}
}

// Handler returns the gin handler that upgrades a request into an SSE
// stream. Identity extraction is injected so the hub stays independent of
// the auth middleware.
func (s *Service) Handler(identify func(*gin.Context) (tenantID, userID uuid.UUID, ok bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, userID, ok := identify(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &conn{
			tenantID: tenantID,
			userID:   userID,
			events:   make(chan Event, 32),
		}
		s.addConn(cl)
		defer s.removeConn(cl)

		c.SSEvent("connected", gin.H{"tenantId": tenantID})
		c.Writer.Flush()

		s.log.Debug("sse session opened", "tenantId", tenantID, "userId", userID)

		gone := c.Request.Context().Done()
		for {
			select {
			case <-gone:
				s.log.Debug("sse session closed", "tenantId", tenantID, "userId", userID)
				return
			case event, open := <-cl.events:
				if !open {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					s.log.Error("sse event marshal failed", "event", event.Type, "error", err)
					continue
				}
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close drops every open connection. Used on shutdown.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conns := range s.conns {
		for _, c := range conns {
			close(c.events)
		}
	}
	s.conns = make(map[uuid.UUID][]*conn)
}
