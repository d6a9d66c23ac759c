package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pushchat/internal/domain"
	"pushchat/internal/push"
)

// Loop reconciles inbound push envelopes and console input into one session.
type Loop struct {
	sub         domain.Subscription
	location    domain.LocationService
	client      domain.MessageClient
	scheduler   *Scheduler
	console     *Console
	interpreter Interpreter
	ledger      *Ledger

	filter   string
	receipts sync.WaitGroup
}

// LoopConfig holds the collaborators of a Loop.
type LoopConfig struct {
	Subscription domain.Subscription
	Location     domain.LocationService
	Client       domain.MessageClient
	Scheduler    *Scheduler
	Console      *Console
	Interpreter  Interpreter
}

// NewLoop builds a loop with an empty ledger and no filter target.
func NewLoop(cfg LoopConfig) *Loop {
	return &Loop{
		sub:         cfg.Subscription,
		location:    cfg.Location,
		client:      cfg.Client,
		scheduler:   cfg.Scheduler,
		console:     cfg.Console,
		interpreter: cfg.Interpreter,
		ledger:      NewLedger(),
	}
}

// Filter returns the current filter target. Not safe while Run is active.
func (l *Loop) Filter() string { return l.filter }

// Ledger returns the loop's dedup ledger. Not safe while Run is active.
func (l *Loop) Ledger() *Ledger { return l.ledger }

type inbound struct {
	env domain.Envelope
	err error
}

// Run processes events until ctx is cancelled or the subscription closes.
// Each iteration handles exactly one of the two sources; the other stays
// pending for the next iteration.
func (l *Loop) Run(ctx context.Context) error {
	defer l.receipts.Wait()

	pumpCtx, stop := context.WithCancel(ctx)
	defer stop()
	envs := make(chan inbound)
	go l.pump(pumpCtx, envs)

	lines := l.console.ReadLine()
	l.console.Prompt()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in := <-envs:
			if in.err != nil {
				if errors.Is(in.err, push.ErrLagged) {
					logrus.WithFields(logrus.Fields{
						"function": "Run",
						"error":    in.err,
					}).Warn("Inbound subscription lagged")
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("inbound subscription: %w", in.err)
			}
			l.handleInbound(ctx, in.env)

		case res := <-lines:
			lines = l.handleLine(ctx, res)
		}
	}
}

// pump feeds envelopes to out one at a time. It stops after the first
// error other than a lag.
func (l *Loop) pump(ctx context.Context, out chan<- inbound) {
	for {
		env, err := l.sub.Recv(ctx)
		select {
		case out <- inbound{env: env, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil && !errors.Is(err, push.ErrLagged) {
			return
		}
	}
}

func (l *Loop) handleInbound(ctx context.Context, env domain.Envelope) {
	if err := l.location.Handle(ctx, env); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "handleInbound",
			"envelope": env.ID,
			"error":    err,
		}).Debug("Location handling failed")
	}

	msg, err := l.client.Handle(ctx, env)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "handleInbound",
			"envelope": env.ID,
			"from":     env.From,
			"error":    err,
		}).Error("Failed to receive message")
		return
	}
	if msg == nil || !msg.HasPayload() || !l.ledger.Record(msg.ID) {
		return
	}

	l.console.Display(msg)
	l.console.Prompt()

	if msg.SendDelivered {
		l.console.Println("sending delivered")
		l.sendReceipt(ctx, *msg)
	}
}

// sendReceipt acknowledges msg in the background, keeping its id, target and
// conversation. A message without participants is acknowledged to its sender.
func (l *Loop) sendReceipt(ctx context.Context, msg domain.MessageInst) {
	var conv domain.Conversation
	if msg.Conversation != nil {
		conv = *msg.Conversation
		conv.Participants = append([]domain.Handle(nil), msg.Conversation.Participants...)
	}
	if len(conv.Participants) == 0 {
		conv.Participants = []domain.Handle{msg.Sender}
	}
	receipt := domain.NewMessageInst(conv, l.self(), domain.Message{Kind: domain.KindDelivered})
	receipt.ID = msg.ID
	receipt.Target = append([]string(nil), msg.Target...)

	l.receipts.Add(1)
	go func() {
		defer l.receipts.Done()
		if err := l.client.Send(ctx, &receipt); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "sendReceipt",
				"id":       receipt.ID,
				"error":    err,
			}).Warn("Delivery receipt failed")
		}
	}()
}

// handleLine processes one read result and returns the next read task.
func (l *Loop) handleLine(ctx context.Context, res LineResult) <-chan LineResult {
	if res.Err != nil {
		if errors.Is(res.Err, io.EOF) {
			logrus.WithFields(logrus.Fields{
				"function": "handleLine",
			}).Info("Console input closed")
			return nil
		}
		logrus.WithFields(logrus.Fields{
			"function": "handleLine",
			"error":    res.Err,
		}).Debug("Console read failed")
		return l.console.ReadLine()
	}

	cmd := l.interpreter.Interpret(l.filter, res.Line)
	switch cmd.Action {
	case ActionNone:
	case ActionSetFilter:
		l.filter = cmd.Target
		l.console.Printf("Filtering to %s\n", l.filter)
	case ActionActivateSecondary:
		l.activateSecondary(ctx)
	case ActionUsageError:
		l.console.Println("Usage: filter [target]")
	case ActionSendScheduled:
		l.scheduler.Schedule(ctx, l.self(), domain.Handle(cmd.Target), cmd.Body)
	}

	l.console.Prompt()
	return l.console.ReadLine()
}

// activateSecondary sends the account-level SMS activation control message.
func (l *Loop) activateSecondary(ctx context.Context) {
	msg := domain.NewMessageInst(
		domain.Conversation{
			Participants: []domain.Handle{},
			SenderGUID:   uuid.NewString(),
		},
		l.self(),
		domain.Message{Kind: domain.KindEnableSMSActivation, Enabled: true},
	)
	if err := l.client.Send(ctx, &msg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "activateSecondary",
			"error":    err,
		}).Error("SMS activation failed")
		return
	}
	l.console.Println("sms activated")
}

func (l *Loop) self() domain.Handle {
	if hs := l.client.Handles(); len(hs) > 0 {
		return hs[0]
	}
	return ""
}
