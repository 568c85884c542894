package entity

import "time"

// Notification is one row of the outbound message outbox. Finalizers insert
// rows inside the committing transaction; the delivery worker attempts the
// send afterwards. Delivery is best-effort: failures are recorded here, never
// surfaced into the transaction that enqueued the row.
type Notification struct {
	ID          int64  `json:"id"`
	RecipientID int64  `json:"recipient_id"` // transport chat id
	Text        string `json:"text"`

	// Kind selects how the worker renders the message. A dispatch_decision
	// notification carries approve/reject buttons for OrderID.
	Kind    string `json:"kind"`
	OrderID *int64 `json:"order_id,omitempty"`

	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
