package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
)

type mockOutbox struct {
	pending []*entity.Notification
	sent    []int64
	failed  map[int64]string
}

func (m *mockOutbox) Create(ctx context.Context, n *entity.Notification) error { return nil }
func (m *mockOutbox) GetPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	if len(m.pending) > limit {
		return m.pending[:limit], nil
	}
	return m.pending, nil
}
func (m *mockOutbox) MarkSent(ctx context.Context, id int64) error {
	m.sent = append(m.sent, id)
	return nil
}
func (m *mockOutbox) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	if m.failed == nil {
		m.failed = map[int64]string{}
	}
	m.failed[id] = errorMsg
	return nil
}

type sentMessage struct {
	chatID  int64
	text    string
	options []port.Option
}

type mockMessenger struct {
	messages []sentMessage
	failFor  map[int64]error
}

func (m *mockMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	if err := m.failFor[chatID]; err != nil {
		return err
	}
	m.messages = append(m.messages, sentMessage{chatID: chatID, text: text})
	return nil
}

func (m *mockMessenger) SendOptions(ctx context.Context, chatID int64, text string, options []port.Option) error {
	if err := m.failFor[chatID]; err != nil {
		return err
	}
	m.messages = append(m.messages, sentMessage{chatID: chatID, text: text, options: options})
	return nil
}

func (m *mockMessenger) SendFile(ctx context.Context, chatID int64, name string, content []byte) error {
	return nil
}

func newTestWorker(outbox *mockOutbox, messenger *mockMessenger) *NotificationWorker {
	return NewNotificationWorker(DefaultNotificationWorkerConfig(), outbox, messenger, zap.NewNop())
}

func TestDeliverPending_TextNotification(t *testing.T) {
	outbox := &mockOutbox{pending: []*entity.Notification{
		{ID: 1, RecipientID: 500, Text: "Shift ended.", Kind: entity.NotificationKindText, Status: entity.NotificationPending},
	}}
	messenger := &mockMessenger{}

	w := newTestWorker(outbox, messenger)
	require.NoError(t, w.DeliverPending(context.Background()))

	require.Len(t, messenger.messages, 1)
	assert.Equal(t, int64(500), messenger.messages[0].chatID)
	assert.Equal(t, "Shift ended.", messenger.messages[0].text)
	assert.Empty(t, messenger.messages[0].options)
	assert.Equal(t, []int64{1}, outbox.sent)
}

func TestDeliverPending_DecisionNotificationCarriesButtons(t *testing.T) {
	orderID := int64(42)
	outbox := &mockOutbox{pending: []*entity.Notification{
		{ID: 2, RecipientID: 600, Text: "New dispatch order #42.", Kind: entity.NotificationKindDispatchDecision, OrderID: &orderID, Status: entity.NotificationPending},
	}}
	messenger := &mockMessenger{}

	w := newTestWorker(outbox, messenger)
	require.NoError(t, w.DeliverPending(context.Background()))

	require.Len(t, messenger.messages, 1)
	require.Len(t, messenger.messages[0].options, 2)
	assert.Equal(t, "dispatch_approve_42", messenger.messages[0].options[0].Data)
	assert.Equal(t, "dispatch_reject_42", messenger.messages[0].options[1].Data)
	assert.Equal(t, []int64{2}, outbox.sent)
}

func TestDeliverPending_FailureMarksFailedAndContinues(t *testing.T) {
	outbox := &mockOutbox{pending: []*entity.Notification{
		{ID: 3, RecipientID: 700, Text: "one", Kind: entity.NotificationKindText, Status: entity.NotificationPending},
		{ID: 4, RecipientID: 800, Text: "two", Kind: entity.NotificationKindText, Status: entity.NotificationPending},
	}}
	messenger := &mockMessenger{failFor: map[int64]error{700: fmt.Errorf("recipient unreachable")}}

	w := newTestWorker(outbox, messenger)
	require.NoError(t, w.DeliverPending(context.Background()))

	assert.Equal(t, []int64{4}, outbox.sent)
	assert.Contains(t, outbox.failed[3], "unreachable")
	require.Len(t, messenger.messages, 1)
	assert.Equal(t, int64(800), messenger.messages[0].chatID)
}
