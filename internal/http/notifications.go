package httpx

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/splax/teamup/internal/ws"
)

const (
	sseRetry          = 3 * time.Second
	heartbeatInterval = 25 * time.Second
	wsReadLimit       = 512
	wsPongWait        = 2 * heartbeatInterval
)

// handleNotificationsSSE streams the caller's notifications as Server-Sent Events until the
// client disconnects.
func (r *Router) handleNotificationsSSE(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	client := ws.NewSSEClient(w, flusher, r.logger)
	if err := client.Open(sseRetry); err != nil {
		return
	}
	if err := client.Heartbeat(); err != nil {
		return
	}
	r.hub.Register(info.UserID, client)
	defer func() {
		r.hub.Unregister(info.UserID, client)
		client.Close()
	}()
	r.logger.Info("notification stream opened", "user_id", info.UserID, "transport", "sse")

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	ctx := req.Context()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("notification stream closed", "user_id", info.UserID, "transport", "sse")
			return
		case <-ticker.C:
			if client.Closed() {
				return
			}
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

// handleNotificationsWS upgrades to a websocket and pushes the caller's notifications. Inbound
// frames are read only to observe pongs and close frames.
func (r *Router) handleNotificationsWS(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "error", err, "user_id", info.UserID)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(info.UserID, client)
	r.logger.Info("notification stream opened", "user_id", info.UserID, "transport", "websocket")

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					r.logger.Warn("websocket read failed", "error", err, "user_id", info.UserID)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	defer func() {
		r.hub.Unregister(info.UserID, client)
		client.Close()
		r.logger.Info("notification stream closed", "user_id", info.UserID, "transport", "websocket")
	}()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		}
	}
}
