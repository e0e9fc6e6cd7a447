package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingSink struct {
	mu       sync.Mutex
	comments []string
	block    chan struct{}
}

func (s *recordingSink) PostComment(clearingRequestID, author, text string) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, clearingRequestID+":"+text)
	return nil
}

type recordingMailer struct {
	mu    sync.Mutex
	mails []string
}

func (m *recordingMailer) Send(recipients []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, subject)
	return nil
}

func TestDispatcherDeliversComments(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil, zerolog.Nop())

	d.EnqueueComment("cr-1", "admin@example.org", "releases moved")
	d.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.comments) != 1 || sink.comments[0] != "cr-1:releases moved" {
		t.Fatalf("unexpected comments: %v", sink.comments)
	}
	if d.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", d.Dropped())
	}
}

func TestDispatcherDeliversMail(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(nil, mailer, zerolog.Nop())

	d.EnqueueMail([]string{"mod@example.org"}, "moderation request", "please review")
	d.Close()

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if len(mailer.mails) != 1 || mailer.mails[0] != "moderation request" {
		t.Fatalf("unexpected mails: %v", mailer.mails)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, nil, zerolog.Nop())

	// Saturate the workers and the queue, then overflow it.
	total := defaultQueueSize + defaultConcurrency + 10
	for i := 0; i < total; i++ {
		d.EnqueueComment("cr-1", "a@x.org", "text")
	}

	deadline := time.After(2 * time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected drops once the queue overflowed")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(sink.block)
	d.Close()
}

func TestSizedDispatcherFallsBackToDefaults(t *testing.T) {
	d := NewSizedDispatcher(nil, nil, zerolog.Nop(), 0, -1)
	if cap(d.jobs) != defaultQueueSize {
		t.Errorf("queue capacity = %d, want %d", cap(d.jobs), defaultQueueSize)
	}
	d.Close()
}

func TestLogSinksAcceptJobs(t *testing.T) {
	d := NewDispatcher(LogCommentSink{Log: zerolog.Nop()}, LogMailer{Log: zerolog.Nop()}, zerolog.Nop())
	d.EnqueueComment("cr-1", "a@x.org", "text")
	d.EnqueueMail([]string{"b@x.org"}, "subject", "body")
	d.Close()
	if d.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", d.Dropped())
	}
}

func TestDispatcherNilSinksDoNotPanic(t *testing.T) {
	d := NewDispatcher(nil, nil, zerolog.Nop())
	d.EnqueueComment("cr-1", "a@x.org", "text")
	d.EnqueueMail([]string{"b@x.org"}, "subject", "body")
	d.Close()
}
