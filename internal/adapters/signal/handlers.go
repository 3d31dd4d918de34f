package signal

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/loungefm/loungefm/internal/core"
	"github.com/loungefm/loungefm/internal/domain"
)

type roomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type messagePayload struct {
	RoomID  string `json:"roomId" validate:"required"`
	Message string `json:"message" validate:"required,max=2000"`
}

type typingPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}

type nowPlayingPayload struct {
	RoomID   string          `json:"roomId" validate:"required"`
	Track    json.RawMessage `json:"track" validate:"required"`
	Position float64         `json:"position"`
}

func (ctl *Controller) decode(c *WsConn, data []byte, dst any) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		ctl.sendError(c, "bad payload")
		return false
	}
	if err := ctl.validate.Struct(dst); err != nil {
		ctl.sendError(c, "bad payload")
		return false
	}
	return true
}

// memberOf checks the session's identity against live membership state,
// not a cached copy.
func (ctl *Controller) memberOf(sid core.SessionID, roomID string) (core.LoungeService, *domain.User, bool) {
	user, ok := ctl.registry.User(sid)
	if !ok {
		return nil, nil, false
	}
	lounge, err := ctl.lounges.Get(domain.LoungeID(roomID))
	if err != nil || !lounge.IsMember(user.ID) {
		return nil, user, false
	}
	return lounge, user, true
}

func (ctl *Controller) handleJoinRoom(sid core.SessionID, c *WsConn, data []byte) {
	var p roomPayload
	if !ctl.decode(c, data, &p) {
		return
	}
	lounge, user, ok := ctl.memberOf(sid, p.RoomID)
	if !ok {
		ctl.sendError(c, "not authorized to join this lounge")
		return
	}

	// A session subscribes to at most one channel; switching lounges
	// implicitly leaves the old one.
	if prev, had := ctl.registry.SetLounge(sid, lounge.ID()); had && prev != lounge.ID() {
		ctl.broker.Unsubscribe(prev, sid)
		ctl.broker.PublishExcept(prev, sid, core.UserLeftRoom{UserID: user.ID})
	}
	ctl.broker.Subscribe(lounge.ID(), sid, c)
	ctl.broker.PublishExcept(lounge.ID(), sid, core.UserJoinedRoom{UserID: user.ID})
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("lounge", string(lounge.ID())).Msg("joined channel")
}

func (ctl *Controller) handleLeaveRoom(sid core.SessionID, c *WsConn, data []byte) {
	var p roomPayload
	if !ctl.decode(c, data, &p) {
		return
	}
	loungeID := domain.LoungeID(p.RoomID)
	if current, ok := ctl.registry.LoungeOf(sid); !ok || current != loungeID {
		return
	}
	ctl.broker.Unsubscribe(loungeID, sid)
	ctl.registry.ClearLounge(sid)
	if user, ok := ctl.registry.User(sid); ok {
		ctl.broker.PublishExcept(loungeID, sid, core.UserLeftRoom{UserID: user.ID})
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("lounge", string(loungeID)).Msg("left channel")
}

func (ctl *Controller) handleSendMessage(sid core.SessionID, c *WsConn, data []byte) {
	var p messagePayload
	if !ctl.decode(c, data, &p) {
		return
	}
	lounge, user, ok := ctl.memberOf(sid, p.RoomID)
	if !ok {
		ctl.sendError(c, "not authorized")
		return
	}
	if !ctl.limiter.Allow(user.ID) {
		ctl.sendError(c, "too many messages, slow down")
		return
	}
	msg := strings.TrimSpace(p.Message)
	if msg == "" {
		ctl.sendError(c, "message is empty")
		return
	}
	// Everyone gets the server echo, the sender included, so all UIs
	// render the same authoritative copy.
	ctl.broker.Publish(lounge.ID(), core.NewMessage{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		User:      *user,
		Message:   msg,
		Timestamp: time.Now(),
	})
}

func (ctl *Controller) handleTyping(sid core.SessionID, c *WsConn, data []byte) {
	var p typingPayload
	if !ctl.decode(c, data, &p) {
		return
	}
	lounge, user, ok := ctl.memberOf(sid, p.RoomID)
	if !ok {
		return
	}
	ctl.broker.PublishExcept(lounge.ID(), sid, core.UserTyping{UserID: user.ID, IsTyping: p.IsTyping})
}

func (ctl *Controller) handleNowPlaying(sid core.SessionID, c *WsConn, data []byte) {
	var p nowPlayingPayload
	if !ctl.decode(c, data, &p) {
		return
	}
	lounge, user, ok := ctl.memberOf(sid, p.RoomID)
	if !ok {
		return
	}
	ctl.broker.PublishExcept(lounge.ID(), sid, core.NowPlayingUpdate{
		Track:    p.Track,
		Position: p.Position,
		UserID:   user.ID,
	})
}

func (ctl *Controller) handlePing(c *WsConn) {
	ctl.sendJSON(c, "pong", struct{}{})
}
