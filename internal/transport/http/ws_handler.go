package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"ochem-lab-service/internal/app"
	"ochem-lab-service/internal/domain"
	"ochem-lab-service/internal/logger"
)

type WSHandler struct {
	service  *app.ActivityService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ActivityService, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type hintPayload struct {
	Show bool `json:"show"`
}

type panelPayload struct {
	Name string `json:"name"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS mounts one activity widget per connection. The session lives as long
// as the socket: closing it unmounts the widget.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	activityID := r.URL.Query().Get("activityId")
	learnerID := r.URL.Query().Get("learnerId")
	if activityID == "" || learnerID == "" {
		http.Error(w, "missing activityId or learnerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	started, err := h.service.Start(ctx, activityID, learnerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}
	sessionID := started.SessionID

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}
	defer cancel()
	defer h.service.End(context.Background(), sessionID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", "session", sessionID, "error", err)
				return
			}
		}
	}()

	// Snapshots arrive from every mutation, including the time limit firing,
	// so completion is announced from here rather than from the command loop.
	go func() {
		defer close(updatesDone)
		announced := false
		forward := func(msg outboundMessage[any]) bool {
			select {
			case send <- msg:
				return true
			case <-closeSignals:
				return false
			}
		}
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if !forward(outboundMessage[any]{Type: "state", Payload: snap}) {
					return
				}
				if snap.Final != nil && !announced {
					if !forward(outboundMessage[any]{Type: "complete", Payload: *snap.Final}) {
						return
					}
				}
				announced = snap.Final != nil
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.dispatch(ctx, sessionID, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch runs one inbound command. State changes reach the client through the
// subscription; only verdicts and errors are replied to directly.
func (h *WSHandler) dispatch(ctx context.Context, sessionID string, in inboundMessage) (outboundMessage[any], bool) {
	var err error
	switch in.Type {
	case "answer":
		var answer domain.WorkingAnswer
		if err := json.Unmarshal(in.Payload, &answer); err != nil {
			return errorMessage("bad_payload", "invalid answer payload"), true
		}
		_, err = h.service.Answer(ctx, sessionID, answer)
	case "submit":
		var result domain.SubmitResult
		result, _, err = h.service.Submit(ctx, sessionID)
		if err == nil {
			return outboundMessage[any]{Type: "verdict", Payload: result}, true
		}
	case "advance":
		_, err = h.service.Advance(ctx, sessionID)
	case "retreat":
		_, err = h.service.Retreat(ctx, sessionID)
	case "jump":
		var p jumpPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errorMessage("bad_payload", "invalid jump payload"), true
		}
		_, err = h.service.JumpTo(ctx, sessionID, p.Index)
	case "reset":
		_, err = h.service.Reset(ctx, sessionID)
	case "hint":
		var p hintPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errorMessage("bad_payload", "invalid hint payload"), true
		}
		var shown bool
		_, shown, err = h.service.Hint(ctx, sessionID, p.Show)
		if err == nil && p.Show && !shown {
			return errorMessage("hint_locked", "hint is not available after the verdict"), true
		}
	case "panel":
		var p panelPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errorMessage("bad_payload", "invalid panel payload"), true
		}
		panel, perr := app.ParsePanel(p.Name)
		if perr != nil {
			return errorMessage("bad_payload", perr.Error()), true
		}
		_, err = h.service.TogglePanel(ctx, sessionID, panel)
	default:
		return errorMessage("unsupported", "unsupported message type"), true
	}
	if err != nil {
		return outboundMessage[any]{Type: "error", Payload: newErrorPayload(err)}, true
	}
	return outboundMessage[any]{}, false
}

func errorMessage(code, message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: message}}
}

func newErrorPayload(err error) errorPayload {
	code, _ := classify(err)
	return errorPayload{Code: code, Message: err.Error()}
}
