package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/middleware"
	"github.com/tasklink-app/tasklink-web/internal/realtime"
	"github.com/tasklink-app/tasklink-web/internal/session"
)

// StreamHandler upgrades authenticated browsers to a notification stream.
// Authentication rides on the session cookie; an unauthenticated upgrade is
// closed immediately.
type StreamHandler struct {
	Sessions *session.Manager
	Hub      *realtime.Hub
	Poller   *realtime.Poller
	Log      *zap.Logger
}

func (h *StreamHandler) Serve(conn *websocket.Conn) {
	defer conn.Close()

	sid := conn.Cookies(middleware.CookieName)
	if sid == "" {
		return
	}
	st, err := h.Sessions.Resume(context.Background(), sid)
	if err != nil || !st.Authenticated() {
		return
	}

	client := &realtime.Client{
		ID:     uuid.NewString(),
		UserID: st.User.ID,
		Send:   make(chan []byte, 64),
	}

	h.Hub.RegisterClient(client)
	defer h.Hub.UnregisterClient(client)

	h.Poller.Watch(st.User.ID, st.Token)
	defer h.Poller.Unwatch(st.User.ID)

	// writer drains until the hub closes Send on unregister
	go func() {
		for msg := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// read loop exists only to observe the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
