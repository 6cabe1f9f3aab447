package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
	"github.com/sarinfocom/intellij-extra-icons/internal/notifier"
	"github.com/sarinfocom/intellij-extra-icons/pkg/contracts"
	"github.com/sarinfocom/intellij-extra-icons/pkg/contracts/events"
)

// Hub maintains the set of active clients and relays icon refresh requests to them
type Hub struct {
	// Registered clients and their refresh subscriptions
	clients map[*Client]*notifier.Subscription

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	topic      RefreshTopic
	activation ActivationSource
	logger     *slog.Logger
	metrics    *OTelMetrics

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewHub creates a hub. Clients subscribe to topic for refresh requests;
// activation is reported in each refresh event. Both may be nil.
func NewHub(topic RefreshTopic, activation ActivationSource, logger *slog.Logger, meter metric.Meter) (*Hub, error) {
	metrics, err := NewOTelMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Hub{
		clients:    make(map[*Client]*notifier.Subscription),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		topic:      topic,
		activation: activation,
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Start starts the hub's main loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = nil
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.RecordConnection(ctx)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			// connect goes out before any refresh
			connect := events.NewMessage(events.MessageTypeConnect, events.ConnectData{
				ClientID:   client.id,
				APIVersion: contracts.APIVersion,
			})
			connect.TraceID = client.traceID
			if data, err := json.Marshal(connect); err == nil {
				h.enqueue(client, data, connect.Type)
			}

			if h.topic != nil {
				sub := h.topic.Subscribe(client)
				h.mu.Lock()
				h.clients[client] = sub
				h.mu.Unlock()
			}

		case client := <-h.unregister:
			h.removeClient(client, "normal")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failCount := 0
			for _, client := range clients {
				if !h.enqueue(client, message, "broadcast") {
					failCount++
					h.removeClient(client, "slow_consumer")
				}
			}

			h.logger.Debug("Broadcast message to clients",
				slog.Int("client_count", len(clients)),
				slog.Int("fail_count", failCount),
				slog.Int("message_size", len(message)))
		}
	}
}

// enqueue queues data for client without blocking. It reports false when
// the client is gone or its buffer is full.
func (h *Hub) enqueue(client *Client, data []byte, msgType events.MessageType) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}

	select {
	case client.send <- data:
		return true
	default:
		h.metrics.RecordDropped(client.context(), string(msgType))
		h.logger.WarnContext(client.context(), "Client send buffer full, dropping message",
			slog.String("client_id", client.id),
			slog.String("type", string(msgType)))
		return false
	}
}

func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	sub, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	if sub != nil {
		sub.Close()
	}

	ctx := client.context()
	h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt), reason)
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

// Broadcast sends a message to every connected client
func (h *Hub) Broadcast(ctx context.Context, msgType events.MessageType, data interface{}) {
	msg := events.NewMessage(msgType, data)
	msg.TraceID = infrastructure.GetTraceID(ctx)

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msgType)))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	case <-ctx.Done():
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.conn.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub and disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	subs := make([]*notifier.Subscription, 0, len(h.clients))
	for client, sub := range h.clients {
		close(client.send)
		delete(h.clients, client)
		if sub != nil {
			subs = append(subs, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
