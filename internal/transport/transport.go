// Package transport declares the contract between the bot core and the
// messaging protocol implementation. The core consumes this interface and
// never imports a concrete adapter; anything that can connect, exchange
// messages, manage a roster, and deliver events one at a time satisfies it.
package transport

import "context"

// MessageKind distinguishes one-to-one chat from group-channel traffic.
type MessageKind int

const (
	// KindDirect is a one-to-one chat message.
	KindDirect MessageKind = iota
	// KindGroup is a message addressed to a group channel.
	KindGroup
)

// Message is a chat message crossing the transport boundary, in either
// direction. Room is set on inbound group messages to the originating
// channel; Subject is honored on outbound group sends only.
type Message struct {
	From    Identity
	To      Identity
	Room    Identity
	Body    string
	Subject string
	Kind    MessageKind
}

// Subscription is a roster subscription state pushed through UpdateRoster.
type Subscription string

const (
	// SubscriptionBoth approves the subscription in both directions.
	SubscriptionBoth Subscription = "both"
	// SubscriptionRemove drops the subscription entirely.
	SubscriptionRemove Subscription = "remove"
)

// RosterEntry is one row of the server-side roster snapshot.
type RosterEntry struct {
	ID           Identity
	Subscription Subscription
}

// PresenceKind classifies presence traffic.
type PresenceKind string

const (
	PresenceAvailable   PresenceKind = "available"
	PresenceUnavailable PresenceKind = "unavailable"
	PresenceSubscribe   PresenceKind = "subscribe"
	PresenceSubscribed  PresenceKind = "subscribed"
)

// Presence is a presence change observed for an identity.
type Presence struct {
	From Identity
	Kind PresenceKind
}

// EventKind enumerates the notifications a transport delivers to the core.
type EventKind int

const (
	// EventSessionEstablished fires once the session is usable (after
	// authentication and any resource binding).
	EventSessionEstablished EventKind = iota
	// EventGroupMessage fires for a message received in a joined channel.
	EventGroupMessage
	// EventDirectMessage fires for a one-to-one chat message.
	EventDirectMessage
	// EventPresence fires for presence changes and subscription requests.
	EventPresence
)

// Event is delivered to registered handlers. Message is non-nil for the two
// message kinds, Presence for EventPresence.
type Event struct {
	Kind     EventKind
	Message  *Message
	Presence *Presence
}

// Transport is the protocol collaborator the bot core drives. Implementations
// must deliver events sequentially from a single dispatch context: handlers
// registered via HandleFunc are never invoked concurrently with each other.
//
// Connect is synchronous and may block until the connection is established or
// has definitively failed. All other calls are expected to return promptly.
type Transport interface {
	// Connect establishes the transport-level connection.
	Connect(ctx context.Context, host string, port int) error

	// StartTLS upgrades an established connection to an encrypted channel.
	StartTLS() error

	// SendMessage delivers a chat message. Group sends address msg.To at the
	// channel and may carry a subject.
	SendMessage(msg Message) error

	// Roster fetches the current server-side roster snapshot.
	Roster() ([]RosterEntry, error)

	// UpdateRoster pushes a subscription change for one identity.
	UpdateRoster(id Identity, sub Subscription) error

	// SendPresence broadcasts the bot's own presence.
	SendPresence(kind PresenceKind) error

	// Ping performs a trivial liveness probe against the server.
	Ping(ctx context.Context) error

	// JoinRoom enters a group channel under the given nickname. Joining a
	// channel the bot is already in is a no-op.
	JoinRoom(room Identity, nick string) error

	// LeaveRoom exits a group channel. Leaving twice is a no-op.
	LeaveRoom(room Identity, nick string) error

	// HandleFunc registers the callback for one event kind. Registering the
	// same kind twice replaces the prior callback.
	HandleFunc(kind EventKind, fn func(Event))

	// Disconnect tears the connection down. Idempotent.
	Disconnect() error
}
