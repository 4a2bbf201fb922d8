package service

import (
	"context"
	"errors"
	"sync"

	"github.com/adwski/chat-client/backend/codec"
	"github.com/adwski/chat-client/backend/content"
	"github.com/adwski/chat-client/backend/model"
	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
)

const (
	defaultQueueSize = 256
)

var (
	ErrQueueFull = errors.New("event queue is full")
	ErrStopped   = errors.New("controller is stopped")
	ErrSend      = errors.New("unable to send frame")
	ErrEncode    = errors.New("unable to encode frame")
)

type TriggerKind int

const (
	TriggerInit TriggerKind = iota
	TriggerInbound
	TriggerSubmit
	TriggerSetDraft
	TriggerToggleEmojiPicker
	TriggerPickEmoji
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerInit:
		return "init"
	case TriggerInbound:
		return "inbound"
	case TriggerSubmit:
		return "submit"
	case TriggerSetDraft:
		return "set-draft"
	case TriggerToggleEmojiPicker:
		return "toggle-emoji-picker"
	case TriggerPickEmoji:
		return "pick-emoji"
	default:
		return "unknown"
	}
}

// Trigger is one event for the controller. Text carries the raw inbound
// payload, the submitted or drafted input, or the picked glyph.
type Trigger struct {
	Kind TriggerKind
	Text string
}

type (
	Transport interface {
		Send(text string) error
	}

	Bus interface {
		Subscribe(ctx context.Context, handler func(string)) (unsubscribe func())
	}

	Store interface {
		ApplyFrame(model.Frame) model.Change
		Snapshot() model.Snapshot
		ResolveSender(id string) model.RosterEntry
	}

	// Service is the chat controller. All triggers go through one queue and
	// are handled one at a time, in order, by Run.
	Service struct {
		store     Store
		transport Transport
		bus       Bus
		userID    string
		dump      bool
		logger    zerolog.Logger

		queue   chan Trigger
		stopped chan struct{}

		mx         *sync.RWMutex
		draft      string
		pickerOpen bool
	}

	Config struct {
		Store      Store
		Transport  Transport
		Bus        Bus
		Logger     *zerolog.Logger
		UserID     string
		QueueSize  int
		DumpFrames bool
	}

	MessageView struct {
		Sender  model.RosterEntry  `json:"sender"`
		Mine    bool               `json:"mine"`
		Body    string             `json:"body"`
		Content content.Descriptor `json:"content"`
	}

	View struct {
		User       string              `json:"user"`
		Roster     []model.RosterEntry `json:"roster"`
		Messages   []MessageView       `json:"messages"`
		PickerOpen bool                `json:"picker_open"`
		Draft      string              `json:"draft"`
	}
)

func NewService(cfg Config) *Service {
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Service{
		store:     cfg.Store,
		transport: cfg.Transport,
		bus:       cfg.Bus,
		userID:    cfg.UserID,
		dump:      cfg.DumpFrames,
		logger:    cfg.Logger.With().Str("component", "controller").Str("user", cfg.UserID).Logger(),
		queue:     make(chan Trigger, size),
		stopped:   make(chan struct{}),
		mx:        &sync.RWMutex{},
	}
}

// Run registers with the server, subscribes to inbound payloads and handles
// queued triggers until ctx is done.
func (svc *Service) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer func() {
		close(svc.stopped)
		svc.logger.Debug().Msg("controller stopped")
		wg.Done()
	}()

	unsubscribe := svc.bus.Subscribe(ctx, func(payload string) {
		if err := svc.Post(ctx, Trigger{Kind: TriggerInbound, Text: payload}); err != nil {
			svc.logger.Warn().Err(err).Msg("inbound payload dropped")
		}
	})
	defer unsubscribe()

	svc.Handle(Trigger{Kind: TriggerInit})

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-svc.queue:
			svc.Handle(t)
		}
	}
}

// Post enqueues t, waiting for room in the queue.
func (svc *Service) Post(ctx context.Context, t Trigger) error {
	select {
	case <-svc.stopped:
		return ErrStopped
	default:
	}
	select {
	case svc.queue <- t:
		return nil
	case <-svc.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPost enqueues t without waiting.
func (svc *Service) TryPost(t Trigger) error {
	select {
	case <-svc.stopped:
		return ErrStopped
	default:
	}
	select {
	case svc.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

func (svc *Service) SubmitMessage(text string) error {
	return svc.TryPost(Trigger{Kind: TriggerSubmit, Text: text})
}

func (svc *Service) SetDraft(text string) error {
	return svc.TryPost(Trigger{Kind: TriggerSetDraft, Text: text})
}

func (svc *Service) ToggleEmojiPicker() error {
	return svc.TryPost(Trigger{Kind: TriggerToggleEmojiPicker})
}

func (svc *Service) PickEmoji(glyph string) error {
	return svc.TryPost(Trigger{Kind: TriggerPickEmoji, Text: glyph})
}

// Handle processes a single trigger to completion.
func (svc *Service) Handle(t Trigger) {
	svc.logger.Trace().Stringer("trigger", t.Kind).Msg("handling trigger")

	switch t.Kind {
	case TriggerInit:
		svc.register()
	case TriggerInbound:
		svc.inbound(t.Text)
	case TriggerSubmit:
		svc.submit(t.Text)
	case TriggerSetDraft:
		svc.mx.Lock()
		svc.draft = t.Text
		svc.mx.Unlock()
	case TriggerToggleEmojiPicker:
		svc.mx.Lock()
		svc.pickerOpen = !svc.pickerOpen
		svc.mx.Unlock()
	case TriggerPickEmoji:
		svc.mx.Lock()
		svc.draft += t.Text
		svc.pickerOpen = false
		svc.mx.Unlock()
	default:
		svc.logger.Warn().Int("kind", int(t.Kind)).Msg("unknown trigger")
	}
}

func (svc *Service) register() {
	if err := svc.send(model.NewRegister(svc.userID)); err != nil {
		svc.logger.Error().Err(err).Msg("registration failed")
		return
	}
	svc.logger.Debug().Msg("registration sent")
}

func (svc *Service) inbound(payload string) {
	f, err := codec.Decode([]byte(payload))
	if err != nil {
		svc.logger.Error().Err(err).Str("payload", payload).Msg("failed to decode inbound frame")
		return
	}
	if svc.dump {
		svc.logger.Trace().Str("frame", spew.Sdump(f)).Msg("decoded frame")
	}
	if f.Ignored() {
		svc.logger.Debug().Str("messageType", string(f.Kind)).Msg("ignoring frame")
		return
	}
	if svc.store.ApplyFrame(f) == model.StateChanged {
		svc.logger.Trace().Str("messageType", string(f.Kind)).Msg("state changed")
	}
}

// submit sends the message and resets the input. The message is not added to
// local history: it shows up once the server echoes it back.
func (svc *Service) submit(text string) {
	if err := svc.send(model.NewMessage(svc.userID, text)); err != nil {
		svc.logger.Error().Err(err).Msg("failed to submit message")
	}

	svc.mx.Lock()
	svc.draft = ""
	svc.pickerOpen = false
	svc.mx.Unlock()
}

func (svc *Service) send(f model.Frame) error {
	b, err := codec.Encode(f)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	if err = svc.transport.Send(string(b)); err != nil {
		return errors.Join(ErrSend, err)
	}
	return nil
}

// View returns a read-only snapshot for presentation: messages carry their
// resolved sender and rendered content, the store keeps raw bodies.
func (svc *Service) View() View {
	snap := svc.store.Snapshot()

	svc.mx.RLock()
	v := View{
		User:       svc.userID,
		Roster:     snap.Roster,
		Messages:   make([]MessageView, 0, len(snap.Messages)),
		PickerOpen: svc.pickerOpen,
		Draft:      svc.draft,
	}
	svc.mx.RUnlock()

	for _, m := range snap.Messages {
		v.Messages = append(v.Messages, MessageView{
			Sender:  svc.store.ResolveSender(m.From),
			Mine:    m.From == svc.userID,
			Body:    m.Body,
			Content: content.Transform(m.Body),
		})
	}
	return v
}
