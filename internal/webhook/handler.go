// Package webhook receives Lark events and feeds them into the conversation
// engine. Two event families matter: incoming text messages and card button
// callbacks. Everything else is acknowledged and dropped.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/workflow"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/menu"
)

const (
	eventTypeMessage    = "im.message.receive_v1"
	eventTypeCardAction = "card.action.trigger"

	handleTimeout = 30 * time.Second
)

// Handler handles webhook requests
type Handler struct {
	verifier  *Verifier
	engine    *workflow.Engine
	messenger port.Messenger
	sequencer *Sequencer
	logger    *zap.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(verifier *Verifier, engine *workflow.Engine, messenger port.Messenger, logger *zap.Logger) *Handler {
	return &Handler{
		verifier:  verifier,
		engine:    engine,
		messenger: messenger,
		sequencer: NewSequencer(logger),
		logger:    logger,
	}
}

// Close drains in-flight updates. Call after the HTTP server has stopped.
func (h *Handler) Close() {
	h.sequencer.Close()
}

// Event is the envelope of a Lark event callback
type Event struct {
	Schema string          `json:"schema"`
	Header EventHeader     `json:"header"`
	Event  json.RawMessage `json:"event"`
}

// EventHeader contains event metadata
type EventHeader struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Token     string `json:"token"`
	AppID     string `json:"app_id"`
}

type messageEvent struct {
	Sender struct {
		SenderID struct {
			UserID string `json:"user_id"`
		} `json:"sender_id"`
	} `json:"sender"`
	Message struct {
		MessageType string `json:"message_type"`
		Content     string `json:"content"`
	} `json:"message"`
}

type cardActionEvent struct {
	Operator struct {
		UserID string `json:"user_id"`
	} `json:"operator"`
	Action struct {
		Value struct {
			Action string `json:"action"`
		} `json:"value"`
	} `json:"action"`
}

// Handle processes incoming webhook requests
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	timestamp := c.GetHeader("X-Lark-Request-Timestamp")
	nonce := c.GetHeader("X-Lark-Request-Nonce")
	signature := c.GetHeader("X-Lark-Signature")

	if !h.verifier.VerifySignature(timestamp, nonce, signature, string(body)) {
		h.logger.Warn("invalid webhook signature", zap.String("timestamp", timestamp))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	body, err = h.verifier.DecryptBody(body)
	if err != nil {
		h.logger.Error("failed to decrypt event body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to decrypt body"})
		return
	}

	var challengeCheck struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &challengeCheck); err == nil && challengeCheck.Type == "url_verification" {
		challenge, err := h.verifier.VerifyChallenge(body)
		if err != nil {
			h.logger.Error("challenge verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "challenge verification failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"challenge": challenge})
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("failed to parse event", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse event"})
		return
	}

	// Respond to Lark immediately; the engine run happens in the background.
	// Updates from one chat are serialized, different chats run concurrently.
	if chatID, act, ok := h.translate(&event); ok {
		eventID := event.Header.EventID
		h.sequencer.Submit(chatID, func() {
			h.process(chatID, act, eventID)
		})
	}
	c.JSON(http.StatusOK, gin.H{"message": "event received"})
}

func (h *Handler) process(chatID int64, act action.Action, eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	reply, err := h.engine.Handle(ctx, chatID, act)
	if err != nil {
		h.logger.Error("engine failed to handle update",
			zap.Int64("chat_id", chatID),
			zap.String("event_id", eventID),
			zap.Error(err))
		if sendErr := h.messenger.SendText(ctx, chatID, "Something went wrong. Please try again."); sendErr != nil {
			h.logger.Error("failed to send error reply", zap.Int64("chat_id", chatID), zap.Error(sendErr))
		}
		return
	}

	h.deliver(ctx, chatID, reply)
}

// translate maps a Lark event to an engine action. The second return is the
// parsed action; ok is false for events the bot does not react to.
func (h *Handler) translate(event *Event) (int64, action.Action, bool) {
	switch event.Header.EventType {
	case eventTypeMessage:
		var msg messageEvent
		if err := json.Unmarshal(event.Event, &msg); err != nil {
			h.logger.Error("failed to parse message event", zap.Error(err))
			return 0, action.Action{}, false
		}
		if msg.Message.MessageType != "text" {
			return 0, action.Action{}, false
		}

		chatID, err := strconv.ParseInt(msg.Sender.SenderID.UserID, 10, 64)
		if err != nil {
			h.logger.Warn("non-numeric sender user id", zap.String("user_id", msg.Sender.SenderID.UserID))
			return 0, action.Action{}, false
		}

		var content struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(msg.Message.Content), &content); err != nil {
			h.logger.Error("failed to parse message content", zap.Error(err))
			return 0, action.Action{}, false
		}
		return chatID, action.Text(content.Text), true

	case eventTypeCardAction:
		var card cardActionEvent
		if err := json.Unmarshal(event.Event, &card); err != nil {
			h.logger.Error("failed to parse card action event", zap.Error(err))
			return 0, action.Action{}, false
		}

		chatID, err := strconv.ParseInt(card.Operator.UserID, 10, 64)
		if err != nil {
			h.logger.Warn("non-numeric operator user id", zap.String("user_id", card.Operator.UserID))
			return 0, action.Action{}, false
		}

		token := card.Action.Value.Action
		// Menu buttons carry the command token itself as their value.
		if menu.IsCommand(token) {
			return chatID, action.Text(token), true
		}

		act, err := action.Parse(token)
		if err != nil {
			h.logger.Warn("unknown action token", zap.String("token", token))
			return 0, action.Action{}, false
		}
		return chatID, act, true
	}

	return 0, action.Action{}, false
}

func (h *Handler) deliver(ctx context.Context, chatID int64, reply workflow.Reply) {
	if reply.File != nil {
		if reply.Text != "" {
			if err := h.messenger.SendText(ctx, chatID, reply.Text); err != nil {
				h.logger.Error("failed to send reply text", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		}
		if err := h.messenger.SendFile(ctx, chatID, reply.File.Name, reply.File.Content); err != nil {
			h.logger.Error("failed to send reply file", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		return
	}

	if len(reply.Options) > 0 {
		if err := h.messenger.SendOptions(ctx, chatID, reply.Text, reply.Options); err != nil {
			h.logger.Error("failed to send reply options", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		return
	}

	if reply.Text == "" {
		return
	}
	if err := h.messenger.SendText(ctx, chatID, reply.Text); err != nil {
		h.logger.Error("failed to send reply text", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
