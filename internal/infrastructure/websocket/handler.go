package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var errInvalidToken = errors.New("token inválido")

// ServeHTTP autentica ?token=, registra la conexión con los canales de
// ?channels=a,b y atiende subscribe, unsubscribe y ping hasta que el cliente cierra.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := h.auth(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade websocket fallido")
		return
	}
	c := h.newConn(ws, id, splitChannels(r.URL.Query().Get("channels")))
	h.register(c)
	h.log.Info().Str("connection_id", c.id).Int64("tenant_id", id.TenantID).Int64("user_id", id.UserID).Msg("conexión websocket abierta")

	go h.writePump(c)
	if !c.enqueueMessage(Message{Type: TypeConnected, ConnectionID: c.id, Message: "WebSocket连接成功", Timestamp: h.now()}) {
		h.disconnect(c)
		return
	}
	h.readLoop(c)
}

func (h *Hub) readLoop(c *conn) {
	defer h.disconnect(c)
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Str("connection_id", c.id).Err(err).Msg("lectura websocket fallida")
			}
			return
		}
		var in Message
		if err := json.Unmarshal(raw, &in); err != nil {
			h.log.Warn().Str("connection_id", c.id).Msg("mensaje websocket con formato inválido")
			continue
		}
		var reply Message
		switch in.Type {
		case TypeSubscribe:
			if in.Channel == "" {
				continue
			}
			h.subscribe(c, in.Channel)
			reply = Message{Type: TypeSubscribed, Channel: in.Channel, Message: "已订阅频道: " + in.Channel}
		case TypeUnsubscribe:
			if in.Channel == "" {
				continue
			}
			h.unsubscribe(c, in.Channel)
			reply = Message{Type: TypeUnsubscribed, Channel: in.Channel, Message: "已取消订阅频道: " + in.Channel}
		case TypePing:
			reply = Message{Type: TypePong}
		default:
			h.log.Warn().Str("connection_id", c.id).Str("type", in.Type).Msg("tipo de mensaje desconocido")
			continue
		}
		reply.Timestamp = h.now()
		if !c.enqueueMessage(reply) {
			return
		}
	}
}
