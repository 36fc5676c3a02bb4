// Package notify shows short-lived status messages.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultDuration is how long a message stays visible.
const DefaultDuration = 3 * time.Second

// Message is a status line.
type Message struct {
	Text    string
	IsError bool
}

func (m Message) String() string {
	if m.IsError {
		return "error: " + m.Text
	}
	return m.Text
}

// Notifier holds at most one message and clears it after a fixed delay.
// A new message replaces the current one and restarts the delay.
type Notifier struct {
	mu       sync.Mutex
	out      io.Writer
	duration time.Duration
	current  *Message
	timer    *time.Timer
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithDuration sets how long messages stay visible. Default: 3s.
func WithDuration(d time.Duration) Option {
	return func(n *Notifier) { n.duration = d }
}

// New creates a Notifier echoing each message to out. out may be nil.
func New(out io.Writer, opts ...Option) *Notifier {
	n := &Notifier{out: out, duration: DefaultDuration}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Success shows a success message.
func (n *Notifier) Success(text string) { n.Show(text, false) }

// Error shows an error message.
func (n *Notifier) Error(text string) { n.Show(text, true) }

// Show displays text and schedules it to be cleared.
func (n *Notifier) Show(text string, isError bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	msg := &Message{Text: text, IsError: isError}
	n.current = msg
	if n.out != nil {
		fmt.Fprintln(n.out, msg)
	}

	n.timer = time.AfterFunc(n.duration, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		// Only clear the message this timer was started for.
		if n.current == msg {
			n.current = nil
		}
	})
}

// Current returns the visible message, if any.
func (n *Notifier) Current() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Message{}, false
	}
	return *n.current, true
}
