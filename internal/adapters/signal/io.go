package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/loungefm/loungefm/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.teardown(sid, c)
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	readWait := ctl.cfg.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(sid, c, data)
		}
	}
}

// dispatch validates the envelope and routes to the handler for its kind.
// Errors stay on this connection; they are never broadcast.
func (ctl *Controller) dispatch(sid core.SessionID, c *WsConn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ctl.sendError(c, "invalid message format")
		return
	}

	switch string(env.Type) {
	case "joinRoom":
		ctl.handleJoinRoom(sid, c, env.Data)
	case "leaveRoom":
		ctl.handleLeaveRoom(sid, c, env.Data)
	case "sendMessage":
		ctl.handleSendMessage(sid, c, env.Data)
	case "typing":
		ctl.handleTyping(sid, c, env.Data)
	case "nowPlaying":
		ctl.handleNowPlaying(sid, c, env.Data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", string(env.Type)).Msg("unknown message kind")
		ctl.sendError(c, "unknown message type")
	}
}

func (ctl *Controller) sendJSON(c *WsConn, kind string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	out, err := json.Marshal(core.Envelope{Type: core.EventKind(kind), Data: data})
	if err != nil {
		return
	}
	_ = c.TrySend(out)
}

func (ctl *Controller) sendError(c *WsConn, msg string) {
	ctl.sendJSON(c, "error", map[string]string{"message": msg})
}
