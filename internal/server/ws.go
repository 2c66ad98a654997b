package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ubuntu/ddp-insights/internal/flow"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsInbound is a message sent by the client.
// Type is "reply", carrying Payload, or "ping".
type wsInbound struct {
	Type    string        `json:"type"`
	Payload *flow.Payload `json:"payload,omitempty"`
}

// wsOutbound is a message sent to the client.
// Type is "session", "pong" or "error".
type wsOutbound struct {
	Type    string       `json:"type"`
	Session *sessionView `json:"session,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// serveWS drives a session over a websocket.
// The current session is sent on connection and after each reply. The connection is closed once the session is done.
// Archives are still sent to the file endpoint.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "session", r.PathValue("id"), "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		s.log.Warn("Websocket set read deadline failed", "err", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan wsOutbound, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out, ok := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session done"))
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	push := func(out wsOutbound) {
		select {
		case writeCh <- out:
		case <-writerDone:
		}
	}

	e.mu.Lock()
	v := viewOf(e)
	e.mu.Unlock()
	push(wsOutbound{Type: "session", Session: &v})

	for done := v.Exit != nil; !done; {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}

		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			push(wsOutbound{Type: "pong"})
		case "reply":
			if in.Payload == nil {
				push(wsOutbound{Type: "error", Code: "invalid_argument", Message: "payload is required"})
				continue
			}
			e.mu.Lock()
			v, err := s.step(ctx, e, *in.Payload, false)
			e.mu.Unlock()
			switch {
			case errors.Is(err, errFileOverReply):
				push(wsOutbound{Type: "error", Code: "invalid_argument", Message: err.Error()})
			case errors.Is(err, flow.ErrSessionDone):
				push(wsOutbound{Type: "error", Code: "failed_precondition", Message: err.Error()})
				done = true
			case errors.Is(err, ErrSessionNotFound):
				push(wsOutbound{Type: "error", Code: "not_found", Message: err.Error()})
				done = true
			default:
				// Lost donations are reported in the view.
				push(wsOutbound{Type: "session", Session: &v})
				done = v.Exit != nil
			}
		default:
			push(wsOutbound{Type: "error", Code: "invalid_argument", Message: "unknown message type"})
		}
	}

	close(writeCh)
	<-writerDone
}
