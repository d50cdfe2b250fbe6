// Package workflow drives a user from choosing a service to having payment
// instructions in hand, and keeps a pending payment's status fresh.
package workflow

import (
	"fmt"
	"io"
)

// Notifier surfaces transient user-facing messages, the toast equivalent.
// Every terminal failure produces exactly one notification; none blocks.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// WriterNotifier prints notifications to a writer, one per line.
type WriterNotifier struct {
	w io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Success(msg string) { fmt.Fprintf(n.w, "✔ %s\n", msg) }
func (n *WriterNotifier) Error(msg string)   { fmt.Fprintf(n.w, "✖ %s\n", msg) }
func (n *WriterNotifier) Info(msg string)    { fmt.Fprintf(n.w, "ℹ %s\n", msg) }

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}
func (NopNotifier) Info(string)    {}
