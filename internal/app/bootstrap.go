package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pushchat/internal/domain"
	"pushchat/internal/push"
	identitysvc "pushchat/internal/services/identity"
	locationsvc "pushchat/internal/services/location"
	messagesvc "pushchat/internal/services/message"
	"pushchat/internal/session"
)

// Session is a bootstrapped, ready-to-run interactive session.
type Session struct {
	Connection *push.Connection
	State      *session.StateStore
	Client     *messagesvc.Service
	Location   *locationsvc.Service
	Console    *session.Console
	Loop       *session.Loop

	rotationInterval time.Duration
	stopRotations    func()
}

// Bootstrap restores the saved session or creates a new one, registers the
// primary user when it has no registration and writes the full state before
// returning. Any failure here is fatal to startup.
func Bootstrap(ctx context.Context, w *Wire, cfg Config) (*Session, error) {
	in, out := cfg.In, cfg.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	console := session.NewConsole(in, out)

	prior, found, err := w.Sink.LoadSessionState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}

	var priorPush *domain.PushState
	if found {
		priorPush = &prior.Push
	}
	conn := push.NewConnection(w.Relay, cfg.relayURL(), priorPush, cfg.Settings.PollInterval, cfg.Settings.ReceiveLimit)

	state := prior
	if !found {
		username := cfg.Username
		if username == "" {
			if username, err = console.Ask("Username: "); err != nil {
				return nil, fmt.Errorf("read username: %w", err)
			}
		}
		user, err := w.Identity.NewUser(domain.Handle(username))
		if err != nil {
			return nil, err
		}
		state = domain.SessionState{Users: []domain.UserIdentity{user}}
	}

	if state.Device.IsZero() {
		if state.Device, err = w.Identity.NewDevice(); err != nil {
			return nil, fmt.Errorf("create device identity: %w", err)
		}
	}
	state.Push = conn.State()

	if primary, _ := state.Primary(); !primary.IsRegistered() {
		users, err := w.Registrar.Register(ctx, state.Push, state.Device, state.Users)
		if err != nil {
			return nil, fmt.Errorf("register: %w", err)
		}
		state.Users = users
	}

	store := session.NewStateStore(state, w.Sink)
	if err := store.Save(ctx); err != nil {
		return nil, err
	}

	client := messagesvc.New(w.Relay, w.Identity, w.Registrar, conn.State, state.Device, state.Users)
	stop := client.SubscribeRotations(store)

	loc := locationsvc.New()
	loop := session.NewLoop(session.LoopConfig{
		Subscription: conn.Subscribe(),
		Location:     loc,
		Client:       client,
		Scheduler:    session.NewScheduler(client, cfg.Settings.ScheduleDelay, cfg.Settings.UnscheduleAfter),
		Console:      console,
		Interpreter: session.Interpreter{
			FilterPrefix:     cfg.Settings.FilterPrefix,
			SecondaryKeyword: cfg.Settings.SecondaryKeyword,
		},
	})

	logrus.WithFields(logrus.Fields{
		"function":    "Bootstrap",
		"resumed":     found,
		"handles":     client.Handles(),
		"device":      identitysvc.DeviceFingerprint(state.Device),
		"push_token":  state.Push.Token,
		"relay":       state.Push.RelayURL,
		"rotate_each": cfg.Settings.RotationInterval.String(),
	}).Info("Session ready")

	return &Session{
		Connection:       conn,
		State:            store,
		Client:           client,
		Location:         loc,
		Console:          console,
		Loop:             loop,
		rotationInterval: cfg.Settings.RotationInterval,
		stopRotations:    stop,
	}, nil
}

// Run drives polling, identity rotation and the event loop until ctx ends or
// one of them fails. Cancellation of ctx is not an error.
func (s *Session) Run(ctx context.Context) error {
	defer s.stopRotations()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Connection.Run(gctx, s.Client.Handles) })
	g.Go(func() error { return s.Client.RunRotation(gctx, s.rotationInterval) })
	g.Go(func() error { return s.Loop.Run(gctx) })

	err := g.Wait()
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled) || errors.Is(err, push.ErrClosed)) {
		return nil
	}
	return err
}

// Close detaches the state store from rotation events.
func (s *Session) Close() { s.stopRotations() }
