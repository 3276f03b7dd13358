package surface

import (
	"context"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"
)

// ConsoleNotifier prints one line per notification, like a toast.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (c *ConsoleNotifier) Name() string { return "console" }

func (c *ConsoleNotifier) Notify(_ context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	marker := "ok"
	if n.Failure {
		marker = "!!"
	}
	_, err := fmt.Fprintf(c.w, "[%s] %s: %s\n", marker, n.Title, n.Body)
	return err
}

// Publisher is the part of the SNS client the notifier needs.
type Publisher interface {
	PublishMessage(ctx context.Context, subject, message string) (string, error)
}

// SNS limits subjects to 100 characters.
const maxSubjectLen = 100

// SNSNotifier forwards notifications to an SNS topic.
type SNSNotifier struct {
	publisher Publisher
	prefix    string
}

func NewSNSNotifier(p Publisher, subjectPrefix string) *SNSNotifier {
	return &SNSNotifier{publisher: p, prefix: subjectPrefix}
}

func (s *SNSNotifier) Name() string { return "sns" }

func (s *SNSNotifier) Notify(ctx context.Context, n Notification) error {
	subject := n.Title
	if s.prefix != "" {
		subject = s.prefix + " " + subject
	}
	subject = truncateRunes(subject, maxSubjectLen)
	_, err := s.publisher.PublishMessage(ctx, subject, n.Body)
	return err
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
