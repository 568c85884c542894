package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
)

// receiveIDType used for all outbound messages. Employee chat ids are the
// numeric user ids of the workspace.
const receiveIDType = "user_id"

// Messenger implements port.Messenger over the Lark IM API. Plain replies go
// out as text messages; replies with options are rendered as an interactive
// card whose buttons carry the action token as their callback value.
type Messenger struct {
	sdk    *SDKClient
	logger *zap.Logger
}

// NewMessenger creates a new Lark messenger adapter
func NewMessenger(sdk *SDKClient, logger *zap.Logger) *Messenger {
	return &Messenger{sdk: sdk, logger: logger}
}

func (m *Messenger) SendText(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal text content: %w", err)
	}

	return m.send(ctx, chatID, "text", string(content))
}

func (m *Messenger) SendOptions(ctx context.Context, chatID int64, text string, options []port.Option) error {
	if len(options) == 0 {
		return m.SendText(ctx, chatID, text)
	}

	card, err := json.Marshal(buildOptionCard(text, options))
	if err != nil {
		return fmt.Errorf("marshal option card: %w", err)
	}

	return m.send(ctx, chatID, "interactive", string(card))
}

func (m *Messenger) SendFile(ctx context.Context, chatID int64, name string, fileContent []byte) error {
	fileKey, err := m.uploadFile(ctx, name, fileContent)
	if err != nil {
		return err
	}

	content, err := json.Marshal(map[string]string{"file_key": fileKey})
	if err != nil {
		return fmt.Errorf("marshal file content: %w", err)
	}

	return m.send(ctx, chatID, "file", string(content))
}

func (m *Messenger) send(ctx context.Context, chatID int64, msgType, content string) error {
	receiveID := strconv.FormatInt(chatID, 10)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.sdk.GetClient().Im.Message.Create(ctx, req)
	if err != nil {
		m.logger.Error("failed to send message",
			zap.String("receive_id", receiveID),
			zap.String("msg_type", msgType),
			zap.Error(err))
		return fmt.Errorf("send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("message API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("message API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	return nil
}

func (m *Messenger) uploadFile(ctx context.Context, name string, content []byte) (string, error) {
	req := larkim.NewCreateFileReqBuilder().
		Body(larkim.NewCreateFileReqBodyBuilder().
			FileType("stream").
			FileName(name).
			File(bytes.NewReader(content)).
			Build()).
		Build()

	resp, err := m.sdk.GetClient().Im.File.Create(ctx, req)
	if err != nil {
		m.logger.Error("failed to upload file", zap.String("file_name", name), zap.Error(err))
		return "", fmt.Errorf("upload file: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("file API returned failure",
			zap.String("file_name", name),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("file API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	if resp.Data == nil || resp.Data.FileKey == nil {
		return "", fmt.Errorf("file API returned no file key")
	}
	return *resp.Data.FileKey, nil
}

// buildOptionCard renders one interactive card: a text block followed by one
// button per option. The button callback value round-trips the action token
// through the card-action webhook.
func buildOptionCard(text string, options []port.Option) map[string]interface{} {
	elements := make([]interface{}, 0, len(options)+1)
	if text != "" {
		elements = append(elements, map[string]interface{}{
			"tag": "div",
			"text": map[string]interface{}{
				"tag":     "plain_text",
				"content": text,
			},
		})
	}

	actions := make([]interface{}, 0, len(options))
	for _, opt := range options {
		actions = append(actions, map[string]interface{}{
			"tag": "button",
			"text": map[string]interface{}{
				"tag":     "plain_text",
				"content": opt.Label,
			},
			"type":  "default",
			"value": map[string]string{"action": opt.Data},
		})
	}
	elements = append(elements, map[string]interface{}{
		"tag":     "action",
		"actions": actions,
	})

	return map[string]interface{}{
		"config":   map[string]bool{"wide_screen_mode": true},
		"elements": elements,
	}
}

// Verify interface compliance
var _ port.Messenger = (*Messenger)(nil)
