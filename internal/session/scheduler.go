package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pushchat/internal/domain"
)

// messageSender is the part of the message client the session sends through.
type messageSender interface {
	Send(ctx context.Context, msg *domain.MessageInst) error
}

// Scheduler sends plain messages with a future delivery hint and revokes
// each of them with an unschedule message after a fixed wait.
//
// Overlapping scheduled sends are not serialized: each runs its own timer and
// only the most recent is reported by Pending.
type Scheduler struct {
	client          messageSender
	delay           time.Duration
	unscheduleAfter time.Duration
	now             func() time.Time

	mu     sync.Mutex
	latest *PendingSend
}

// NewScheduler returns a scheduler that hints delivery delay after the send
// and revokes it unscheduleAfter later.
func NewScheduler(client messageSender, delay, unscheduleAfter time.Duration) *Scheduler {
	return &Scheduler{
		client:          client,
		delay:           delay,
		unscheduleAfter: unscheduleAfter,
		now:             time.Now,
	}
}

// Schedule starts the send then unschedule sequence for body to target and
// returns its timer entity. Failures are logged and never stop the sequence.
func (s *Scheduler) Schedule(ctx context.Context, sender domain.Handle, target domain.Handle, body string) *PendingSend {
	msg := domain.NewMessageInst(
		domain.Conversation{
			Participants: []domain.Handle{target},
			SenderGUID:   uuid.NewString(),
		},
		sender,
		domain.Message{
			Kind:            domain.KindMessage,
			Text:            body,
			ScheduledMillis: s.now().Add(s.delay).UnixMilli(),
		},
	)

	p := &PendingSend{
		Target: target,
		Sender: sender,
		msg:    msg,
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.latest = p
	s.mu.Unlock()

	go p.run(ctx, s.client, s.unscheduleAfter)
	return p
}

// Pending returns the most recently scheduled send, if any.
func (s *Scheduler) Pending() *PendingSend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// PendingSend is one scheduled message awaiting its unschedule.
type PendingSend struct {
	Target domain.Handle
	Sender domain.Handle

	mu          sync.Mutex
	msg         domain.MessageInst
	sendErr     error
	unschedErr  error
	unscheduled bool

	cancelOnce sync.Once
	cancel     chan struct{}
	done       chan struct{}
}

// Cancel stops the wait so no unschedule message is sent. It has no effect
// once the unschedule has been issued.
func (p *PendingSend) Cancel() {
	p.cancelOnce.Do(func() { close(p.cancel) })
}

// Done is closed when the sequence has finished.
func (p *PendingSend) Done() <-chan struct{} { return p.done }

// Message returns the scheduled message as sent.
func (p *PendingSend) Message() domain.MessageInst {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneInst(p.msg)
}

// Result reports the send and unschedule errors and whether the unschedule
// was attempted. It is meaningful once Done is closed.
func (p *PendingSend) Result() (sendErr, unscheduleErr error, unscheduled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sendErr, p.unschedErr, p.unscheduled
}

func (p *PendingSend) run(ctx context.Context, client messageSender, wait time.Duration) {
	defer close(p.done)

	msg := cloneInst(p.msg)
	err := client.Send(ctx, &msg)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Schedule",
			"target":   p.Target,
			"error":    err,
		}).Error("Scheduled send failed")
	}
	p.mu.Lock()
	p.msg = cloneInst(msg)
	p.sendErr = err
	p.mu.Unlock()

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.cancel:
		logrus.WithFields(logrus.Fields{
			"function": "Schedule",
			"id":       msg.ID,
		}).Debug("Unschedule cancelled")
		return
	case <-ctx.Done():
		return
	}

	msg.Message = domain.Message{Kind: domain.KindUnschedule, ScheduledMillis: msg.Message.ScheduledMillis}
	err = client.Send(ctx, &msg)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Schedule",
			"id":       msg.ID,
			"target":   p.Target,
			"error":    err,
		}).Error("Unschedule send failed")
	}
	p.mu.Lock()
	p.unschedErr = err
	p.unscheduled = true
	p.mu.Unlock()
}

func cloneInst(m domain.MessageInst) domain.MessageInst {
	out := m
	if m.Conversation != nil {
		conv := *m.Conversation
		conv.Participants = append([]domain.Handle(nil), m.Conversation.Participants...)
		out.Conversation = &conv
	}
	out.Target = append([]string(nil), m.Target...)
	return out
}
