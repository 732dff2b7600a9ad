// Package bot implements the session and command core: it drives a Transport
// through the connect/ready/disconnect lifecycle, routes incoming group and
// direct messages to registered command handlers, gates restricted commands
// on roster membership, and keeps the session alive with a periodic probe.
//
// Concurrency: the transport delivers events one at a time from a single
// dispatch context; the command table and roster manager are only touched
// from that context. The keep-alive job is the one independent goroutine and
// reaches only the Transport, never bot state. The bot's mutex guards the
// lifecycle state and the room set, and is never held across a blocking
// transport call.
package bot

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/connectical/whistler/internal/transport"
)

// DefaultSigil marks a group message as an explicit command invocation.
const DefaultSigil = "!"

// DefaultKeepAliveEvery is the keep-alive probe period.
const DefaultKeepAliveEvery = 60 * time.Second

// Options configures a Bot.
type Options struct {
	// JID is the bot's bare identity.
	JID transport.Identity
	// Host and Port locate the server. Host defaults to the JID domain part
	// being resolved by the transport; the bot passes it through untouched.
	Host string
	Port int
	// Resource is the session resource and the default room nickname.
	// Autogenerated when empty.
	Resource string
	// Rooms are joined on every Ready transition.
	Rooms []transport.Identity
	// Users are seeded into the pending-authorization set on Ready.
	Users []transport.Identity
	// Sigil is the command marker for group messages. Defaults to "!".
	Sigil string
	// KeepAliveEvery is the probe period. Defaults to one minute.
	KeepAliveEvery time.Duration
}

// Bot is the chat-room command bot.
type Bot struct {
	jid      transport.Identity // full identity, with resource
	resource string
	sigil    string
	host     string
	port     int

	tr  transport.Transport
	log zerolog.Logger

	commands     map[string]Handler
	roster       *rosterManager
	initialUsers []transport.Identity

	keepAliveEvery time.Duration

	mu    sync.Mutex
	state State
	alive *keepalive
	rooms map[transport.Identity]string // room -> nickname
}

// New builds a bot over the given transport and registers its event handlers.
// The transport must not deliver events before Start succeeds.
func New(opts Options, tr transport.Transport, logger zerolog.Logger) *Bot {
	resource := opts.Resource
	if resource == "" {
		resource = "whistler-" + uuid.NewString()[:8]
	}
	sigil := opts.Sigil
	if sigil == "" {
		sigil = DefaultSigil
	}
	every := opts.KeepAliveEvery
	if every <= 0 {
		every = DefaultKeepAliveEvery
	}

	b := &Bot{
		jid:            opts.JID.WithResource(resource),
		resource:       resource,
		sigil:          sigil,
		host:           opts.Host,
		port:           opts.Port,
		tr:             tr,
		log:            logger,
		commands:       make(map[string]Handler),
		initialUsers:   append([]transport.Identity(nil), opts.Users...),
		keepAliveEvery: every,
		rooms:          make(map[transport.Identity]string, len(opts.Rooms)),
	}
	for _, room := range opts.Rooms {
		b.rooms[room] = resource
	}
	b.roster = newRosterManager(tr, logger, b.jid, b.isRoom)

	tr.HandleFunc(transport.EventSessionEstablished, b.handleSessionEstablished)
	tr.HandleFunc(transport.EventGroupMessage, b.handleGroupMessage)
	tr.HandleFunc(transport.EventDirectMessage, b.handleDirectMessage)
	tr.HandleFunc(transport.EventPresence, b.handlePresence)
	return b
}

// JID returns the bot's full identity, resource included.
func (b *Bot) JID() transport.Identity { return b.jid }

// Resource returns the session resource, which doubles as the group-channel
// nickname the bot answers to.
func (b *Bot) Resource() string { return b.resource }

// SendTo sends a direct message to any identity. Intended for use from
// command handlers.
func (b *Bot) SendTo(to transport.Identity, text string) error {
	return b.tr.SendMessage(transport.Message{
		To:   to,
		Body: text,
		Kind: transport.KindDirect,
	})
}

// SetSubject changes the subject of a joined room. Returns ErrNotInRoom for
// rooms the bot is not a member of.
func (b *Bot) SetSubject(room transport.Identity, subject string) error {
	b.mu.Lock()
	_, joined := b.rooms[room]
	b.mu.Unlock()
	if !joined {
		return fmt.Errorf("set subject on %s: %w", room, ErrNotInRoom)
	}
	return b.tr.SendMessage(transport.Message{
		To:      room,
		Body:    "subject set to: " + subject,
		Subject: subject,
		Kind:    transport.KindGroup,
	})
}

// JoinRoom adds a room to the membership set and, when the session is ready,
// joins it immediately. Joining a room twice is a no-op. An empty nick falls
// back to the bot's resource, which allows several bots to share a room under
// distinct nicks.
func (b *Bot) JoinRoom(room transport.Identity, nick string) error {
	if nick == "" {
		nick = b.resource
	}
	b.mu.Lock()
	if _, ok := b.rooms[room]; ok {
		b.mu.Unlock()
		return nil
	}
	b.rooms[room] = nick
	ready := b.state == StateReady
	b.mu.Unlock()

	if !ready {
		return nil
	}
	return b.tr.JoinRoom(room, nick)
}

// LeaveRoom removes a room from the membership set and leaves it. Leaving a
// room the bot is not in is a no-op.
func (b *Bot) LeaveRoom(room transport.Identity) error {
	b.mu.Lock()
	nick, ok := b.rooms[room]
	if ok {
		delete(b.rooms, room)
	}
	ready := b.state == StateReady
	b.mu.Unlock()

	if !ok || !ready {
		return nil
	}
	return b.tr.LeaveRoom(room, nick)
}

// Rooms returns the rooms the bot maintains membership in.
func (b *Bot) Rooms() []transport.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]transport.Identity, 0, len(b.rooms))
	for room := range b.rooms {
		out = append(out, room)
	}
	return out
}

// RegisterUser grants an identity a mutual subscription, authorizing it for
// restricted commands.
func (b *Bot) RegisterUser(id transport.Identity) error {
	return b.roster.Grant(id)
}

// UnregisterUser revokes an identity's subscription.
func (b *Bot) UnregisterUser(id transport.Identity) error {
	return b.roster.Revoke(id)
}

// Users returns a snapshot of the roster identities that can administer the
// bot: rooms and the bot's own identity are excluded.
func (b *Bot) Users() []transport.Identity {
	return b.roster.users()
}

func (b *Bot) isRoom(id transport.Identity) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.rooms[id.Bare()]
	return ok
}
