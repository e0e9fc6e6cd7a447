// Package notify delivers post-commit notifications: clearing-request comment
// threads and moderation mails. Delivery is asynchronous through a bounded
// queue; when the queue is full new notifications are counted as dropped
// rather than blocking the catalog operation that produced them.
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const (
	defaultQueueSize   = 64
	defaultConcurrency = 4
)

// CommentSink posts a comment on a clearing request thread.
type CommentSink interface {
	PostComment(clearingRequestID, author, text string) error
}

// Mailer sends a notification mail to a set of recipients.
type Mailer interface {
	Send(recipients []string, subject, body string) error
}

// Job is one queued notification.
type Job struct {
	// ClearingRequestID is set for comment jobs.
	ClearingRequestID string
	Author            string
	Text              string

	// Recipients is set for mail jobs.
	Recipients []string
	Subject    string
	Body       string
}

// Dispatcher runs a fixed worker pool draining the notification queue.
type Dispatcher struct {
	comments CommentSink
	mailer   Mailer
	log      zerolog.Logger

	jobs    chan Job
	wg      sync.WaitGroup
	dropped atomic.Int64

	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher with the default queue size and worker
// count. Either sink may be nil; jobs for a nil sink are logged and skipped.
func NewDispatcher(comments CommentSink, mailer Mailer, log zerolog.Logger) *Dispatcher {
	return NewSizedDispatcher(comments, mailer, log, defaultQueueSize, defaultConcurrency)
}

// NewSizedDispatcher starts a dispatcher with an explicit queue size and
// worker count. Values <= 0 fall back to the defaults.
func NewSizedDispatcher(comments CommentSink, mailer Mailer, log zerolog.Logger, queueSize, workers int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if workers <= 0 {
		workers = defaultConcurrency
	}
	d := &Dispatcher{
		comments: comments,
		mailer:   mailer,
		log:      log,
		jobs:     make(chan Job, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue queues a notification for delivery. It never blocks: when the
// queue is full the job is dropped and counted.
func (d *Dispatcher) Enqueue(job Job) {
	select {
	case d.jobs <- job:
	default:
		d.dropped.Add(1)
		d.log.Warn().
			Str("clearing_request_id", job.ClearingRequestID).
			Msg("notification queue full, dropping job")
	}
}

// EnqueueComment queues a clearing-request comment.
func (d *Dispatcher) EnqueueComment(clearingRequestID, author, text string) {
	d.Enqueue(Job{ClearingRequestID: clearingRequestID, Author: author, Text: text})
}

// EnqueueMail queues a notification mail.
func (d *Dispatcher) EnqueueMail(recipients []string, subject, body string) {
	d.Enqueue(Job{Recipients: recipients, Subject: subject, Body: body})
}

// Dropped returns the number of jobs discarded because the queue was full.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close stops accepting jobs and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.deliver(job)
	}
}

func (d *Dispatcher) deliver(job Job) {
	if job.ClearingRequestID != "" {
		if d.comments == nil {
			d.log.Debug().Str("clearing_request_id", job.ClearingRequestID).Msg("no comment sink configured")
			return
		}
		if err := d.comments.PostComment(job.ClearingRequestID, job.Author, job.Text); err != nil {
			d.log.Error().Err(err).
				Str("clearing_request_id", job.ClearingRequestID).
				Msg("failed to post clearing comment")
		}
		return
	}
	if len(job.Recipients) > 0 {
		if d.mailer == nil {
			d.log.Debug().Strs("recipients", job.Recipients).Msg("no mailer configured")
			return
		}
		if err := d.mailer.Send(job.Recipients, job.Subject, job.Body); err != nil {
			d.log.Error().Err(err).
				Strs("recipients", job.Recipients).
				Msg("failed to send notification mail")
		}
	}
}
