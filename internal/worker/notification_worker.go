package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-intake/internal/mail"
	"github.com/spec-kit/legal-intake/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// ErrQueueFull is returned when the mail queue cannot take more work.
var ErrQueueFull = errors.New("mail queue full")

// MailQueue is a mail.Sender that hands delivery to a background goroutine so
// request handlers never wait on the mail provider.
type MailQueue struct {
	next        mail.Sender
	logger      *zap.Logger
	sendTimeout time.Duration

	queue  chan mail.Message
	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

// NewMailQueue buffers up to size messages in front of next.
func NewMailQueue(next mail.Sender, size int, logger *zap.Logger) *MailQueue {
	if size <= 0 {
		size = 64
	}
	return &MailQueue{
		next:        next,
		logger:      logger,
		sendTimeout: 15 * time.Second,
		queue:       make(chan mail.Message, size),
	}
}

// Send enqueues msg without blocking.
func (q *MailQueue) Send(_ context.Context, msg mail.Message) error {
	select {
	case q.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the delivery goroutine.
func (q *MailQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return errors.New("mail queue already started")
	}
	ctx, q.cancel = context.WithCancel(ctx)
	q.done = make(chan struct{})
	go q.run(ctx)
	return nil
}

// Stop halts delivery after flushing what is already queued.
func (q *MailQueue) Stop() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel == nil {
		return errors.New("mail queue already stopped or not started")
	}
	q.cancel()
	<-q.done
	q.cancel = nil
	return nil
}

func (q *MailQueue) run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case msg := <-q.queue:
			q.deliver(ctx, msg)
		case <-ctx.Done():
			q.flush()
			return
		}
	}
}

func (q *MailQueue) flush() {
	for {
		select {
		case msg := <-q.queue:
			q.deliver(context.Background(), msg)
		default:
			return
		}
	}
}

func (q *MailQueue) deliver(ctx context.Context, msg mail.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.sendTimeout)
	defer cancel()
	if err := q.next.Send(ctx, msg); err != nil {
		q.logger.Error("can't send mail", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
	}
}
