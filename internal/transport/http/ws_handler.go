package http

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
	"mcq-studio/internal/app"
	"mcq-studio/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	Key        string `json:"key"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Row     int    `json:"row,omitempty"`
}

func errorMessage(err error) outboundMessage[any] {
	_, body := statusFor(err)
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: body.Error, Row: body.Row}}
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz session
// over the connection. Every mutation is answered with the new state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	state, err := h.service.Session(r.Context(), sessionID)
	if err != nil {
		status, body := statusFor(err)
		http.Error(w, body.Error, status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer: gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn().Err(err).Str("session", sessionID).Msg("ws write error")
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: newSessionView(state)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(r, sessionID, inbound) {
			select {
			case send <- msg:
			case <-writerDone:
			}
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) handle(r *http.Request, sessionID string, inbound inboundMessage) []outboundMessage[any] {
	ctx := r.Context()
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" || len(payload.Key) != 1 {
			return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}}
		}
		key := domain.OptionKey(strings.ToUpper(payload.Key))
		state, err := h.service.Select(ctx, sessionID, payload.QuestionID, key)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "state", Payload: newSessionView(state)}}
	case "submit":
		state, result, err := h.service.Submit(ctx, sessionID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{
			{Type: "result", Payload: newResultView(result)},
			{Type: "state", Payload: newSessionView(state)},
		}
	case "reset":
		state, err := h.service.Reset(ctx, sessionID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "state", Payload: newSessionView(state)}}
	case "state":
		state, err := h.service.Session(ctx, sessionID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}
		}
		return []outboundMessage[any]{{Type: "state", Payload: newSessionView(state)}}
	default:
		return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}}
	}
}
