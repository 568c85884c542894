package port

import "context"

// Option is one selectable button offered alongside a prompt. Data is the
// wire token the transport sends back when the button is pressed.
type Option struct {
	Label string
	Data  string
}

// Messenger sends outbound messages on the chat transport. Implementations
// must be safe for concurrent use; the delivery worker and workflow replies
// share one instance.
type Messenger interface {
	// SendText delivers a plain message to a chat.
	SendText(ctx context.Context, chatID int64, text string) error

	// SendOptions delivers a prompt with selectable buttons.
	SendOptions(ctx context.Context, chatID int64, text string, options []Option) error

	// SendFile delivers a generated document (e.g. a dispatch report).
	SendFile(ctx context.Context, chatID int64, name string, content []byte) error
}

// FileStorage persists generated artifacts such as report workbooks.
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string
}
