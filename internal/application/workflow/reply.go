package workflow

import (
	"fmt"

	"github.com/firestation/dutybot/internal/application/port"
)

// File is a generated document attached to a reply.
type File struct {
	Name    string
	Content []byte
}

// Reply is what the bot answers to one inbound update. The transport decides
// how to render options (inline buttons, keyboard).
type Reply struct {
	Text    string
	Options []port.Option
	File    *File
}

func textReply(format string, args ...interface{}) Reply {
	if len(args) == 0 {
		return Reply{Text: format}
	}
	return Reply{Text: fmt.Sprintf(format, args...)}
}

func optionsReply(text string, options []port.Option) Reply {
	return Reply{Text: text, Options: options}
}

// cancelOption is offered on every multi-step prompt.
func cancelOption() port.Option {
	return port.Option{Label: "Cancel", Data: "universal_cancel"}
}

func withCancel(options []port.Option) []port.Option {
	return append(options, cancelOption())
}
