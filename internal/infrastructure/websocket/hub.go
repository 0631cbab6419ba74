// Package websocket hub de conexiones en tiempo real indexadas por tenant,
// usuario y canal. Implementa ports.EventPublisher.
package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/pkg/jwt"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// Tipos de mensaje.
const (
	TypeConnected    = "connected"
	TypeSubscribe    = "subscribe"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribe  = "unsubscribe"
	TypeUnsubscribed = "unsubscribed"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeData         = "data"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	// DefaultSendBuffer mensajes pendientes por conexión antes de descartarla.
	DefaultSendBuffer = 256
)

// Message sobre intercambiado con el cliente.
type Message struct {
	Type         string    `json:"type"`
	Channel      string    `json:"channel,omitempty"`
	ConnectionID string    `json:"connection_id,omitempty"`
	Message      string    `json:"message,omitempty"`
	Data         any       `json:"data,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Identity dueño autenticado de una conexión.
type Identity struct {
	TenantID int64
	UserID   int64
}

// AuthFunc resuelve el token de la query string.
type AuthFunc func(token string) (Identity, error)

// JWTAuth acepta solo access tokens ligados a un tenant.
func JWTAuth(secret string) AuthFunc {
	return func(token string) (Identity, error) {
		c, err := jwt.Parse(secret, token)
		if err != nil {
			return Identity{}, err
		}
		if c.TenantID == nil || c.Type == jwt.TypeRefresh {
			return Identity{}, errInvalidToken
		}
		return Identity{TenantID: *c.TenantID, UserID: c.UserID()}, nil
	}
}

type conn struct {
	id       string
	identity Identity
	ws       *websocket.Conn
	channels map[string]bool

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// enqueue deja el mensaje en el buffer sin bloquear. false si el buffer está
// lleno o la conexión ya se cerró.
func (c *conn) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *conn) enqueueMessage(m Message) bool {
	payload, err := json.Marshal(m)
	if err != nil {
		return false
	}
	return c.enqueue(payload)
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

type set map[string]*conn

// Hub registro de conexiones. Los índices solo se modifican bajo mu.
type Hub struct {
	upgrader   websocket.Upgrader
	auth       AuthFunc
	log        *logger.Logger
	now        func() time.Time
	sendBuffer int

	mu        sync.RWMutex
	conns     set
	byTenant  map[int64]set
	byUser    map[int64]set
	byChannel map[string]set
}

var _ ports.EventPublisher = (*Hub)(nil)

// NewHub crea un hub. allowedOrigins vacío acepta cualquier origen.
func NewHub(auth AuthFunc, allowedOrigins []string, log *logger.Logger) *Hub {
	h := &Hub{
		auth:       auth,
		log:        logger.OrNop(log).Component("websocket"),
		now:        func() time.Time { return time.Now().UTC() },
		sendBuffer: DefaultSendBuffer,
		conns:      set{},
		byTenant:   map[int64]set{},
		byUser:     map[int64]set{},
		byChannel:  map[string]set{},
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
	return h
}

func (h *Hub) newConn(ws *websocket.Conn, id Identity, channels map[string]bool) *conn {
	return &conn{
		id:       uuid.NewString(),
		identity: id,
		ws:       ws,
		channels: channels,
		send:     make(chan []byte, h.sendBuffer),
		done:     make(chan struct{}),
	}
}

func add[K comparable](idx map[K]set, k K, c *conn) {
	if idx[k] == nil {
		idx[k] = set{}
	}
	idx[k][c.id] = c
}

func remove[K comparable](idx map[K]set, k K, id string) {
	if s, ok := idx[k]; ok {
		delete(s, id)
		if len(s) == 0 {
			delete(idx, k)
		}
	}
}

func (h *Hub) register(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
	add(h.byTenant, c.identity.TenantID, c)
	add(h.byUser, c.identity.UserID, c)
	for ch := range c.channels {
		add(h.byChannel, ch, c)
	}
}

// disconnect retira la conexión de los tres índices y la cierra.
func (h *Hub) disconnect(c *conn) {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.id)
	remove(h.byTenant, c.identity.TenantID, c.id)
	remove(h.byUser, c.identity.UserID, c.id)
	for ch := range c.channels {
		remove(h.byChannel, ch, c.id)
	}
	h.mu.Unlock()
	c.close()
	h.log.Info().Str("connection_id", c.id).Int64("tenant_id", c.identity.TenantID).Msg("conexión websocket cerrada")
}

func (h *Hub) subscribe(c *conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.channels[channel] = true
	add(h.byChannel, channel, c)
}

func (h *Hub) unsubscribe(c *conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(c.channels, channel)
	remove(h.byChannel, channel, c.id)
}

// snapshot copia las conexiones que cumplen keep.
func (h *Hub) snapshot(s set, keep func(*conn) bool) []*conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*conn, 0, len(s))
	for _, c := range s {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// deliver encola el mensaje en cada conexión sin bloquear al publicador. Una
// conexión con el buffer lleno se descarta.
func (h *Hub) deliver(targets []*conn, m Message) {
	if len(targets) == 0 {
		return
	}
	payload, err := json.Marshal(m)
	if err != nil {
		h.log.Error().Err(err).Str("channel", m.Channel).Msg("mensaje websocket no serializable")
		return
	}
	for _, c := range targets {
		if !c.enqueue(payload) {
			h.log.Warn().Str("connection_id", c.id).Int64("tenant_id", c.identity.TenantID).Msg("cliente websocket lento, desconectado")
			h.disconnect(c)
		}
	}
}

// writePump único escritor de la conexión: vacía el buffer y envía pings.
func (h *Hub) writePump(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.disconnect(c)
	}()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Warn().Str("connection_id", c.id).Err(err).Msg("envío websocket fallido")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PublishToTenant difunde a las conexiones del tenant suscritas al canal. Con
// canal vacío llega a todas las conexiones del tenant.
func (h *Hub) PublishToTenant(tenantID int64, channel string, data any) {
	var targets []*conn
	if channel == "" {
		h.mu.RLock()
		s := h.byTenant[tenantID]
		h.mu.RUnlock()
		targets = h.snapshot(s, nil)
	} else {
		h.mu.RLock()
		s := h.byChannel[channel]
		h.mu.RUnlock()
		targets = h.snapshot(s, func(c *conn) bool { return c.identity.TenantID == tenantID })
	}
	h.deliver(targets, Message{Type: TypeData, Channel: channel, Data: data, Timestamp: h.now()})
}

// PublishToUser envía a todas las conexiones del usuario dentro del tenant.
func (h *Hub) PublishToUser(tenantID, userID int64, channel string, data any) {
	h.mu.RLock()
	s := h.byUser[userID]
	h.mu.RUnlock()
	targets := h.snapshot(s, func(c *conn) bool { return c.identity.TenantID == tenantID })
	h.deliver(targets, Message{Type: TypeData, Channel: channel, Data: data, Timestamp: h.now()})
}

// Stats conteo de conexiones por índice.
type Stats struct {
	Total    int `json:"total"`
	Tenants  int `json:"tenants"`
	Users    int `json:"users"`
	Channels int `json:"channels"`
}

// Stats devuelve el estado actual de los índices.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{Total: len(h.conns), Tenants: len(h.byTenant), Users: len(h.byUser), Channels: len(h.byChannel)}
}

// Close desconecta todas las conexiones.
func (h *Hub) Close() {
	for _, c := range h.snapshot(h.conns, nil) {
		h.disconnect(c)
	}
}

func splitChannels(raw string) map[string]bool {
	out := map[string]bool{}
	for _, ch := range strings.Split(raw, ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			out[ch] = true
		}
	}
	return out
}
