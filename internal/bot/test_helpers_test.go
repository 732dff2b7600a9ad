package bot

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/connectical/whistler/internal/transport"
)

// fakeTransport records every call the bot makes and lets tests replay
// server-side events through the registered handlers, synchronously, the way
// a real transport's dispatch context would.
type fakeTransport struct {
	mu sync.Mutex

	connectErr  error
	connectHook func() // runs inside Connect, before it returns
	tlsErr      error
	leaveErr    error
	roster      []transport.RosterEntry
	rosterErr   error

	handlers map[transport.EventKind]func(transport.Event)

	sent        []transport.Message
	updates     []rosterUpdate
	presences   []transport.PresenceKind
	joined      []roomNick
	left        []roomNick
	pings       int
	disconnects int
}

type rosterUpdate struct {
	id  transport.Identity
	sub transport.Subscription
}

type roomNick struct {
	room transport.Identity
	nick string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[transport.EventKind]func(transport.Event))}
}

func (f *fakeTransport) Connect(ctx context.Context, host string, port int) error {
	if f.connectHook != nil {
		f.connectHook()
	}
	return f.connectErr
}

func (f *fakeTransport) StartTLS() error { return f.tlsErr }

func (f *fakeTransport) SendMessage(msg transport.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Roster() ([]transport.RosterEntry, error) {
	return f.roster, f.rosterErr
}

func (f *fakeTransport) UpdateRoster(id transport.Identity, sub transport.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, rosterUpdate{id: id, sub: sub})
	return nil
}

func (f *fakeTransport) SendPresence(kind transport.PresenceKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presences = append(f.presences, kind)
	return nil
}

func (f *fakeTransport) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

func (f *fakeTransport) JoinRoom(room transport.Identity, nick string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, roomNick{room: room, nick: nick})
	return nil
}

func (f *fakeTransport) LeaveRoom(room transport.Identity, nick string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, roomNick{room: room, nick: nick})
	return f.leaveErr
}

func (f *fakeTransport) HandleFunc(kind transport.EventKind, fn func(transport.Event)) {
	f.handlers[kind] = fn
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

// emit delivers an event to the bot as if it came off the wire.
func (f *fakeTransport) emit(t *testing.T, ev transport.Event) {
	t.Helper()
	fn, ok := f.handlers[ev.Kind]
	if !ok {
		t.Fatalf("no handler registered for event kind %v", ev.Kind)
	}
	fn(ev)
}

func (f *fakeTransport) sentMessages() []transport.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.Message(nil), f.sent...)
}

func (f *fakeTransport) rosterUpdates() []rosterUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rosterUpdate(nil), f.updates...)
}

func (f *fakeTransport) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

// levelCounter is a zerolog hook counting emitted events per level.
type levelCounter struct {
	mu     sync.Mutex
	counts map[zerolog.Level]int
}

func (c *levelCounter) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[level]++
}

func (c *levelCounter) count(level zerolog.Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[level]
}

func testLogger() zerolog.Logger { return zerolog.New(io.Discard) }

// newTestBot builds a bot over a fake transport with a log-event counter.
func newTestBot(t *testing.T, opts Options) (*Bot, *fakeTransport, *levelCounter) {
	t.Helper()

	tr := newFakeTransport()
	counter := &levelCounter{counts: make(map[zerolog.Level]int)}
	logger := zerolog.New(io.Discard).Hook(counter)

	if opts.JID == "" {
		opts.JID = "bot@example.com"
	}
	if opts.Resource == "" {
		opts.Resource = "whistler"
	}
	return New(opts, tr, logger), tr, counter
}

// groupMessage wraps a body in a group-message event from the given sender.
func groupMessage(from, room transport.Identity, body string) transport.Event {
	return transport.Event{
		Kind: transport.EventGroupMessage,
		Message: &transport.Message{
			From: from,
			Room: room,
			Body: body,
			Kind: transport.KindGroup,
		},
	}
}

// directMessage wraps a body in a direct-message event from the given sender.
func directMessage(from transport.Identity, body string) transport.Event {
	return transport.Event{
		Kind: transport.EventDirectMessage,
		Message: &transport.Message{
			From: from,
			Body: body,
			Kind: transport.KindDirect,
		},
	}
}
