package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/videotube/backend/internal/config"
)

// Sender delivers a single mail message. The default implementation speaks
// SMTP; tests substitute a recording function.
type Sender func(ctx context.Context, addr, from string, to []string, msg []byte) error

// Message is a plain-text mail to be delivered in the background.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages asynchronously through a small worker pool.
// Delivery failures are logged and never surfaced to the caller.
type Mailer struct {
	addr   string
	from   string
	send   Sender
	logger *slog.Logger

	jobs chan Message
	wg   sync.WaitGroup
	once sync.Once

	// mu orders Enqueue against Shutdown closing the queue.
	mu     sync.RWMutex
	closed bool
}

var errMailerClosed = errors.New("mailer closed")

// NewMailer constructs the background mail worker pool. A config with an
// empty Host yields a disabled mailer that drops every message silently.
func NewMailer(cfg config.MailConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	m := &Mailer{
		from:   cfg.From,
		send:   smtpSender,
		logger: logger,
		jobs:   make(chan Message, 64),
	}
	if strings.TrimSpace(cfg.Host) != "" {
		m.addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	m.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go m.worker()
	}

	return m
}

// Enqueue schedules delivery without blocking on the SMTP exchange. A full
// queue drops the message rather than stall the request path.
func (m *Mailer) Enqueue(ctx context.Context, msg Message) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errMailerClosed
	}

	select {
	case m.jobs <- msg:
		return nil
	default:
		m.logger.Warn("mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
		return nil
	}
}

// Shutdown drains outstanding deliveries, bounded by the supplied context.
func (m *Mailer) Shutdown(ctx context.Context) error {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.jobs)
		m.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (m *Mailer) worker() {
	defer m.wg.Done()

	for msg := range m.jobs {
		m.deliver(msg)
	}
}

func (m *Mailer) deliver(msg Message) {
	if m.addr == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.from, msg.To, msg.Subject, msg.Body)

	if err := m.send(ctx, m.addr, m.from, []string{msg.To}, []byte(body)); err != nil {
		m.logger.Error("mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}

	m.logger.Debug("mail delivered", "to", msg.To, "subject", msg.Subject)
}

func smtpSender(ctx context.Context, addr, from string, to []string, msg []byte) error {
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, nil, from, to, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
