package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/videotube/backend/internal/config"
)

func TestMailerDeliversQueuedMessages(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)

	m := NewMailer(config.MailConfig{Host: "smtp.test", Port: 2525, From: "no-reply@videotube.local", Workers: 2}, nil)
	m.send = func(ctx context.Context, addr, from string, to []string, msg []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if addr != "smtp.test:2525" {
			t.Errorf("unexpected addr %q", addr)
		}
		sent = append(sent, to[0])
		if !strings.Contains(string(msg), "Subject: welcome") {
			t.Errorf("missing subject header in %q", msg)
		}
		return nil
	}

	for _, rcpt := range []string{"a@example.com", "b@example.com"} {
		if err := m.Enqueue(context.Background(), Message{To: rcpt, Subject: "welcome", Body: "hi"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(sent))
	}
}

func TestMailerDisabledWithoutHost(t *testing.T) {
	m := NewMailer(config.MailConfig{From: "no-reply@videotube.local"}, nil)
	m.send = func(ctx context.Context, addr, from string, to []string, msg []byte) error {
		t.Error("send should not be called when mail is disabled")
		return nil
	}

	if err := m.Enqueue(context.Background(), Message{To: "a@example.com", Subject: "x"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestMailerSwallowsDeliveryFailures(t *testing.T) {
	m := NewMailer(config.MailConfig{Host: "smtp.test", Port: 25, From: "no-reply@videotube.local"}, nil)
	m.send = func(ctx context.Context, addr, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	if err := m.Enqueue(context.Background(), Message{To: "a@example.com", Subject: "x"}); err != nil {
		t.Fatalf("Enqueue should not surface delivery errors, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestMailerRejectsEnqueueAfterShutdown(t *testing.T) {
	m := NewMailer(config.MailConfig{Host: "smtp.test", Port: 25, From: "no-reply@videotube.local"}, nil)
	m.send = func(ctx context.Context, addr, from string, to []string, msg []byte) error { return nil }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if err := m.Enqueue(context.Background(), Message{To: "a@example.com"}); err == nil {
		t.Fatal("expected error enqueueing after shutdown")
	}
}

func TestMailerEnqueueDuringShutdownDoesNotPanic(t *testing.T) {
	m := NewMailer(config.MailConfig{Host: "smtp.test", Port: 25, From: "no-reply@videotube.local", Workers: 2}, nil)
	m.send = func(ctx context.Context, addr, from string, to []string, msg []byte) error { return nil }

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 100; j++ {
				// Enqueue must either queue or report the mailer closed,
				// never send on the closed channel.
				_ = m.Enqueue(context.Background(), Message{To: "a@example.com", Subject: "x"})
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	}()

	close(start)
	wg.Wait()
}
