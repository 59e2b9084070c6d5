package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"phiz-quiz-service/internal/app"
	"phiz-quiz-service/internal/domain"
)

// ReminderScheduler (re)plans a user's reminder jobs.
type ReminderScheduler interface {
	Schedule(ctx context.Context, userID string) error
}

type WSHandler struct {
	service   *app.QuizService
	identity  Identity
	reminders ReminderScheduler
	upgrader  websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, identity Identity, reminders ReminderScheduler) *WSHandler {
	return &WSHandler{
		service:   service,
		identity:  identity,
		reminders: reminders,
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

type answerPayload struct {
	Index *int `json:"index"`
}

type sessionPayload struct {
	SessionID       string `json:"sessionId"`
	Total           int    `json:"total"`
	QuestionSeconds int    `json:"questionSeconds"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

// ServeWS upgrades HTTP requests to websockets and runs one quiz session per connection.
//
// Client messages: {"type":"answer","payload":{"index":N}}, {"type":"state"}, {"type":"finish"}.
// Server messages: session, question, tick, feedback, finished, result, state, error.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.identity.Identify(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.Start(ctx, userID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	sessionID := session.ID()
	defer h.service.Leave(context.WithoutCancel(ctx), sessionID)

	if h.reminders != nil {
		if err := h.reminders.Schedule(ctx, userID); err != nil {
			log.Printf("schedule reminders for %s: %v", userID, err)
		}
	}

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	state := session.State()
	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{
		SessionID:       sessionID,
		Total:           state.Total,
		QuestionSeconds: int(state.Remaining / time.Second),
	}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: string(update.Type), Payload: update}}
				if update.Type == app.EventFinished {
					msgs = append(msgs, h.finish(ctx, sessionID))
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
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
		var reply *outboundMessage[any]
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Index == nil {
				msg := errorMessage(domain.ErrInvalidSubmission)
				reply = &msg
				break
			}
			// feedback reaches the client through the session's event stream
			if _, err := h.service.Submit(ctx, sessionID, *payload.Index); err != nil {
				msg := errorMessage(err)
				reply = &msg
			}
		case "state":
			st, err := h.service.State(ctx, sessionID)
			msg := outboundMessage[any]{Type: "state", Payload: st}
			if err != nil {
				msg = errorMessage(err)
			}
			reply = &msg
		case "finish":
			msg := h.finish(ctx, sessionID)
			reply = &msg
		default:
			msg := outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "unsupported", Message: "unsupported message type"}}
			reply = &msg
		}
		if reply != nil {
			send <- *reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) finish(ctx context.Context, sessionID string) outboundMessage[any] {
	report, err := h.service.Finish(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrResultRecorded) {
			log.Printf("record result for session %s: %v", sessionID, err)
		}
		return errorMessage(err)
	}
	return outboundMessage[any]{Type: "result", Payload: report}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoQuestionsAvailable):
		return "no_questions_available"
	case errors.Is(err, domain.ErrInvalidSubmission):
		return "invalid_submission"
	case errors.Is(err, domain.ErrPersistenceFailure):
		return "persistence_failure"
	case errors.Is(err, domain.ErrMissingIdentity):
		return "missing_identity"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrSessionFinished):
		return "session_finished"
	case errors.Is(err, domain.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, domain.ErrSessionInProgress):
		return "session_in_progress"
	case errors.Is(err, domain.ErrAnswerLocked):
		return "answer_locked"
	case errors.Is(err, domain.ErrResultRecorded):
		return "result_recorded"
	case errors.Is(err, domain.ErrInvalidPreferences):
		return "invalid_preferences"
	default:
		return "internal"
	}
}
