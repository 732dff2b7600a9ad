// Package wsjson is a Transport adapter speaking JSON frames over a
// websocket. It exists so the bot has something real to run against; the core
// never imports it and works with any other Transport implementation.
//
// The read goroutine only decodes frames: reply frames (roster, pong) feed
// their waiter channels directly, everything else is queued to a dedicated
// dispatch goroutine that invokes handlers one at a time. Keeping the two
// apart lets an event handler make a blocking request/reply call (the bot
// fetches the roster from inside the session-established handler) without
// starving the socket of the very reply it is waiting for.
package wsjson

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/connectical/whistler/internal/transport"
)

const requestTimeout = 10 * time.Second

// eventBuffer bounds the dispatch queue. A handler blocked in a
// request/reply call can fall this many events behind before the read loop
// itself has to wait.
const eventBuffer = 32

// Options configures the adapter.
type Options struct {
	// JID and Password authenticate the session after dialing.
	JID      transport.Identity
	Password string
	// Secure dials wss:// instead of ws://. The encrypted channel is
	// negotiated at dial time; StartTLS only verifies it is in place.
	Secure bool
	// Path is the websocket endpoint path. Defaults to "/ws".
	Path string
}

// Transport implements transport.Transport over a websocket.
type Transport struct {
	opts Options
	log  zerolog.Logger

	handlers map[transport.EventKind]func(transport.Event)

	writeMu sync.Mutex // serializes frame writes
	mu      sync.Mutex // guards conn and done
	conn    *websocket.Conn
	done    chan struct{}

	rosterCh chan []transport.RosterEntry
	pongCh   chan struct{}
}

// New builds an unconnected adapter. Handlers must be registered before
// Connect; events begin flowing as soon as the read loop starts.
func New(opts Options, logger zerolog.Logger) *Transport {
	if opts.Path == "" {
		opts.Path = "/ws"
	}
	return &Transport{
		opts:     opts,
		log:      logger,
		handlers: make(map[transport.EventKind]func(transport.Event)),
		rosterCh: make(chan []transport.RosterEntry, 1),
		pongCh:   make(chan struct{}, 1),
	}
}

// HandleFunc registers the callback for one event kind.
func (t *Transport) HandleFunc(kind transport.EventKind, fn func(transport.Event)) {
	t.handlers[kind] = fn
}

// Connect dials the server, authenticates, and starts the read and dispatch
// loops.
func (t *Transport) Connect(ctx context.Context, host string, port int) error {
	scheme := "ws"
	if t.opts.Secure {
		scheme = "wss"
	}
	url := fmt.Sprintf("%s://%s:%d%s", scheme, host, port, t.opts.Path)

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}

	done := make(chan struct{})
	t.mu.Lock()
	t.conn = conn
	t.done = done
	t.mu.Unlock()

	auth := Frame{Type: TypeAuth, Auth: &AuthData{
		JID:      string(t.opts.JID),
		Password: t.opts.Password,
	}}
	if err := t.write(ctx, auth); err != nil {
		_ = t.Disconnect()
		return fmt.Errorf("authenticate: %w", err)
	}

	events := make(chan transport.Event, eventBuffer)
	go t.dispatchLoop(events, done)
	go t.readLoop(conn, events, done)
	t.log.Debug().Str("url", url).Msg("websocket connected")
	return nil
}

// StartTLS verifies the channel is encrypted. Websocket TLS is negotiated at
// dial time, so there is nothing to upgrade after the fact; a cleartext
// connection is reported, not upgraded.
func (t *Transport) StartTLS() error {
	if !t.opts.Secure {
		t.log.Debug().Msg("running over cleartext websocket")
	}
	return nil
}

// SendMessage delivers a chat message.
func (t *Transport) SendMessage(msg transport.Message) error {
	kind := "chat"
	if msg.Kind == transport.KindGroup {
		kind = "groupchat"
	}
	return t.writeTimeout(Frame{Type: TypeMessage, Message: &MessageData{
		To:      string(msg.To),
		Body:    msg.Body,
		Subject: msg.Subject,
		Kind:    kind,
	}})
}

// Roster requests the server-side roster and waits for the reply frame.
func (t *Transport) Roster() ([]transport.RosterEntry, error) {
	// A reply that arrived after a previous request timed out must not
	// satisfy this one.
	select {
	case <-t.rosterCh:
	default:
	}
	if err := t.writeTimeout(Frame{Type: TypeRosterGet}); err != nil {
		return nil, err
	}
	select {
	case entries := <-t.rosterCh:
		return entries, nil
	case <-time.After(requestTimeout):
		return nil, errors.New("roster request timed out")
	case <-t.doneCh():
		return nil, errors.New("transport closed")
	}
}

// UpdateRoster pushes a subscription change.
func (t *Transport) UpdateRoster(id transport.Identity, sub transport.Subscription) error {
	return t.writeTimeout(Frame{Type: TypeRosterUpdate, Update: &RosterUpdate{
		JID:          string(id),
		Subscription: string(sub),
	}})
}

// SendPresence broadcasts the bot's presence.
func (t *Transport) SendPresence(kind transport.PresenceKind) error {
	return t.writeTimeout(Frame{Type: TypePresence, Presence: &PresenceData{Kind: string(kind)}})
}

// Ping sends a liveness probe and waits for the pong.
func (t *Transport) Ping(ctx context.Context) error {
	select {
	case <-t.pongCh:
		// Stale pong from a timed-out probe; drop it.
	default:
	}
	if err := t.write(ctx, Frame{Type: TypePing}); err != nil {
		return err
	}
	select {
	case <-t.pongCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.doneCh():
		return errors.New("transport closed")
	}
}

// JoinRoom enters a group channel.
func (t *Transport) JoinRoom(room transport.Identity, nick string) error {
	return t.writeTimeout(Frame{Type: TypeJoin, Room: &RoomData{Room: string(room), Nick: nick}})
}

// LeaveRoom exits a group channel.
func (t *Transport) LeaveRoom(room transport.Identity, nick string) error {
	return t.writeTimeout(Frame{Type: TypeLeave, Room: &RoomData{Room: string(room), Nick: nick}})
}

// Disconnect closes the connection. Idempotent.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	conn := t.conn
	done := t.done
	t.conn = nil
	t.done = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	close(done)
	return conn.Close(websocket.StatusNormalClosure, "bye")
}

// readLoop decodes frames off the socket. Reply frames are consumed inside
// route; events are queued for the dispatch goroutine.
func (t *Transport) readLoop(conn *websocket.Conn, events chan<- transport.Event, done <-chan struct{}) {
	ctx := context.Background()
	for {
		var f Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !t.closed() {
					t.log.Warn().Err(err).Msg("websocket read failed")
				}
			}
			return
		}
		ev, ok := t.route(f)
		if !ok {
			continue
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// dispatchLoop invokes event handlers one at a time, preserving wire order.
func (t *Transport) dispatchLoop(events <-chan transport.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev := <-events:
			t.emit(ev)
		}
	}
}

// route classifies one inbound frame. Reply frames (roster, pong) feed their
// waiter channels here, on the read goroutine, so that a blocked
// request/reply caller is answered even while the dispatch goroutine is busy;
// event frames are returned for queueing.
func (t *Transport) route(f Frame) (transport.Event, bool) {
	switch f.Type {
	case TypeSession:
		return transport.Event{Kind: transport.EventSessionEstablished}, true
	case TypeMessage:
		if f.Message == nil {
			return transport.Event{}, false
		}
		msg := &transport.Message{
			From: transport.Identity(f.Message.From),
			To:   transport.Identity(f.Message.To),
			Room: transport.Identity(f.Message.Room),
			Body: f.Message.Body,
		}
		if f.Message.Kind == "groupchat" {
			msg.Kind = transport.KindGroup
			return transport.Event{Kind: transport.EventGroupMessage, Message: msg}, true
		}
		msg.Kind = transport.KindDirect
		return transport.Event{Kind: transport.EventDirectMessage, Message: msg}, true
	case TypePresence:
		if f.Presence == nil {
			return transport.Event{}, false
		}
		return transport.Event{Kind: transport.EventPresence, Presence: &transport.Presence{
			From: transport.Identity(f.Presence.From),
			Kind: transport.PresenceKind(f.Presence.Kind),
		}}, true
	case TypeRoster:
		entries := make([]transport.RosterEntry, 0, len(f.Roster))
		for _, row := range f.Roster {
			entries = append(entries, transport.RosterEntry{
				ID:           transport.Identity(row.JID),
				Subscription: transport.Subscription(row.Subscription),
			})
		}
		select {
		case t.rosterCh <- entries:
		default:
			// Nobody waiting; drop.
		}
		return transport.Event{}, false
	case TypePong:
		select {
		case t.pongCh <- struct{}{}:
		default:
		}
		return transport.Event{}, false
	default:
		t.log.Debug().Str("type", f.Type).Msg("ignoring unknown frame")
		return transport.Event{}, false
	}
}

func (t *Transport) emit(ev transport.Event) {
	if fn, ok := t.handlers[ev.Kind]; ok {
		fn(ev)
	}
}

func (t *Transport) write(ctx context.Context, f Frame) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return wsjson.Write(ctx, conn, f)
}

func (t *Transport) writeTimeout(f Frame) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return t.write(ctx, f)
}

func (t *Transport) doneCh() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return t.done
}

func (t *Transport) closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn == nil
}
