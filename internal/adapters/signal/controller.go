// Package signal is the websocket side of the session router: it
// authenticates a connection once, binds the identity for its lifetime
// and dispatches the closed set of client message kinds.
package signal

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/loungefm/loungefm/internal/app"
	"github.com/loungefm/loungefm/internal/config"
	"github.com/loungefm/loungefm/internal/core"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	cfg      *config.Config
	auth     *app.Authenticator
	registry *app.Registry
	lounges  *app.LoungeManager
	broker   core.Broker
	validate *validator.Validate
	limiter  *MessageRateLimiter
}

func NewController(cfg *config.Config, auth *app.Authenticator, registry *app.Registry, lounges *app.LoungeManager, broker core.Broker) *Controller {
	return &Controller{
		cfg:      cfg,
		auth:     auth,
		registry: registry,
		lounges:  lounges,
		broker:   broker,
		validate: validator.New(),
		limiter:  NewMessageRateLimiter(cfg.MessageRate, cfg.MessageWindow),
	}
}

// HandleWS upgrades the connection after a one-time token check. The
// resulting identity is immutable for the life of the session.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	user, err := ctl.auth.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := newWsConn(ws, ctl.cfg.SendBuffer)

	ctx, cancel := context.WithCancel(ctx)
	ctl.registry.Bind(sid, user, cancel)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("user", string(user.ID)).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

// teardown runs when a session ends for any reason. It only detaches the
// channel subscription; lounge and track state are untouched.
func (ctl *Controller) teardown(sid core.SessionID, conn *WsConn) {
	if loungeID, ok := ctl.registry.LoungeOf(sid); ok {
		ctl.broker.Unsubscribe(loungeID, sid)
		if user, ok := ctl.registry.User(sid); ok {
			ctl.broker.PublishExcept(loungeID, sid, core.UserLeftRoom{UserID: user.ID})
		}
	}
	ctl.registry.Unbind(sid)
	conn.Close()
}
