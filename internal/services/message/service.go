package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pushchat/internal/domain"
)

var (
	// ErrNoIdentity indicates the client has no user to send as.
	ErrNoIdentity = errors.New("message: no user identity")
	// ErrMissingID indicates an inbound message without an identifier.
	ErrMissingID = errors.New("message: inbound message has no id")
	// ErrRotationNotify marks failures reported by rotation listeners.
	ErrRotationNotify = errors.New("message: rotation listener failed")
)

// Service is the session's message client.
type Service struct {
	relay      domain.RelayClient
	identities domain.IdentityService
	registrar  domain.Registrar
	push       func() domain.PushState
	now        func() time.Time

	mu     sync.RWMutex
	device domain.DeviceIdentity
	users  []domain.UserIdentity

	lmu       sync.Mutex
	listeners []listenerEntry
	nextID    int
}

type listenerEntry struct {
	id int
	l  domain.RotationListener
}

// New constructs a message client acting for users on device. push reports
// the current push state used when re-registering.
func New(
	relay domain.RelayClient,
	identities domain.IdentityService,
	registrar domain.Registrar,
	push func() domain.PushState,
	device domain.DeviceIdentity,
	users []domain.UserIdentity,
) *Service {
	return &Service{
		relay:      relay,
		identities: identities,
		registrar:  registrar,
		push:       push,
		now:        time.Now,
		device:     device,
		users:      domain.CloneUsers(users),
	}
}

// Handles returns every handle of every user, primary user first.
func (s *Service) Handles() []domain.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Handle
	for _, u := range s.users {
		out = append(out, u.Handles...)
	}
	return out
}

// Users returns a copy of the current user identities.
func (s *Service) Users() []domain.UserIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneUsers(s.users)
}

func (s *Service) owns(h domain.Handle) bool {
	for _, own := range s.Handles() {
		if own == h {
			return true
		}
	}
	return false
}

func (s *Service) primary() (domain.Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.users) == 0 {
		return "", false
	}
	h := s.users[0].PrimaryHandle()
	return h, h != ""
}

// Handle decodes env. Envelopes on other topics yield (nil, nil).
func (s *Service) Handle(_ context.Context, env domain.Envelope) (*domain.MessageInst, error) {
	if env.Topic != domain.TopicMessages {
		return nil, nil
	}

	var msg domain.MessageInst
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		return nil, fmt.Errorf("decode envelope %s from %q: %w", env.ID, env.From, err)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("envelope %s from %q: %w", env.ID, env.From, ErrMissingID)
	}
	if msg.Sender == "" {
		msg.Sender = env.From
	}
	msg.SendDelivered = msg.HasPayload() && !s.owns(msg.Sender)
	return &msg, nil
}

// Send posts msg to every recipient of its conversation. It assigns an id,
// the sender and the sent time when they are unset.
func (s *Service) Send(ctx context.Context, msg *domain.MessageInst) error {
	self, ok := s.primary()
	if !ok {
		return ErrNoIdentity
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Sender == "" {
		msg.Sender = self
	}
	msg.SentMillis = s.now().UnixMilli()

	recipients := s.recipients(msg, self)
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", msg.ID, err)
	}

	var errs []error
	for _, to := range recipients {
		env := domain.Envelope{
			ID:        uuid.NewString(),
			Topic:     domain.TopicMessages,
			From:      msg.Sender,
			To:        to,
			Payload:   payload,
			Timestamp: msg.SentMillis,
		}
		if err := s.relay.SendEnvelope(ctx, env); err != nil {
			errs = append(errs, fmt.Errorf("send %s to %q: %w", msg.ID, to, err))
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Send",
		"id":         msg.ID,
		"kind":       msg.Message.Kind,
		"recipients": recipients,
		"failed":     len(errs),
	}).Debug("Sent message")
	return errors.Join(errs...)
}

// recipients lists the participants other than our own handles. The sender
// joins a non-empty participant list so replies can reach it. A message with
// no other participant is an account-level control message for self.
func (s *Service) recipients(msg *domain.MessageInst, self domain.Handle) []domain.Handle {
	if msg.Conversation == nil || len(msg.Conversation.Participants) == 0 {
		return []domain.Handle{self}
	}

	conv := msg.Conversation
	hasSender := false
	var out []domain.Handle
	for _, p := range conv.Participants {
		if p == msg.Sender {
			hasSender = true
		}
		if !s.owns(p) {
			out = append(out, p)
		}
	}
	if !hasSender {
		conv.Participants = append(conv.Participants, msg.Sender)
	}
	if len(out) == 0 {
		return []domain.Handle{self}
	}
	return out
}

// SubscribeRotations registers l for rotation events and returns a function
// that removes it.
func (s *Service) SubscribeRotations(l domain.RotationListener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, l: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			for i, e := range s.listeners {
				if e.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// RotateIdentities gives every user a fresh signing key, registers the new
// identities and notifies each listener synchronously. Listener failures are
// joined and wrapped in ErrRotationNotify.
func (s *Service) RotateIdentities(ctx context.Context) error {
	s.mu.RLock()
	users := domain.CloneUsers(s.users)
	device := s.device
	s.mu.RUnlock()
	if len(users) == 0 {
		return ErrNoIdentity
	}

	rotated := make([]domain.UserIdentity, 0, len(users))
	for _, u := range users {
		r, err := s.identities.Rotate(u)
		if err != nil {
			return fmt.Errorf("rotate %s: %w", u.PrimaryHandle(), err)
		}
		rotated = append(rotated, r)
	}

	registered, err := s.registrar.Register(ctx, s.push(), device, rotated)
	if err != nil {
		return fmt.Errorf("re-register rotated identities: %w", err)
	}

	s.mu.Lock()
	s.users = domain.CloneUsers(registered)
	s.mu.Unlock()

	return s.notify(ctx, registered)
}

func (s *Service) notify(ctx context.Context, users []domain.UserIdentity) error {
	s.lmu.Lock()
	listeners := make([]domain.RotationListener, 0, len(s.listeners))
	for _, e := range s.listeners {
		listeners = append(listeners, e.l)
	}
	s.lmu.Unlock()

	var errs []error
	for _, l := range listeners {
		if err := l.IdentitiesRotated(ctx, domain.CloneUsers(users)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrRotationNotify, errors.Join(errs...))
	}
	return nil
}

// RunRotation rotates identities every interval until ctx is done. Rotation
// and registration failures are logged and retried on the next tick; a
// listener failure ends the run and is returned.
func (s *Service) RunRotation(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			err := s.RotateIdentities(ctx)
			switch {
			case err == nil:
			case errors.Is(err, ErrRotationNotify):
				return err
			default:
				logrus.WithFields(logrus.Fields{
					"function": "RunRotation",
					"error":    err,
				}).Warn("Identity rotation failed")
			}
		}
	}
}

// Compile-time assertion that Service implements domain.MessageClient.
var _ domain.MessageClient = (*Service)(nil)
