package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/codewandler/rtvoice"
	"github.com/codewandler/rtvoice/realtime"
)

// printer renders completed transcript lines as the console's published
// snapshot evolves. Each item is printed once, when its transcript settles.
type printer struct {
	w io.Writer

	mu      sync.Mutex
	printed map[string]bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, printed: make(map[string]bool)}
}

// render is invoked from the console's control loop after every state
// change.
func (p *printer) render(console *rtvoice.Console) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, item := range console.Items() {
		if p.printed[item.ID] || item.Status != realtime.ItemCompleted {
			continue
		}

		text := item.Formatted.Transcript
		if text == "" {
			text = item.Formatted.Text
		}
		if text == "" && item.Formatted.Tool != nil {
			text = fmt.Sprintf("[tool %s(%s)]", item.Formatted.Tool.Name, item.Formatted.Tool.Arguments)
		}
		if text == "" {
			continue
		}

		p.printed[item.ID] = true
		fmt.Fprintf(p.w, "%s> %s\n", item.Role, text)
	}
}
