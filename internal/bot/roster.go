package bot

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/connectical/whistler/internal/transport"
)

// rosterManager tracks which identities may drive restricted commands and
// which subscription handshakes are still in flight. It holds the last roster
// snapshot fetched from the server plus local mutations (grants/revokes), and
// the pending-initial-users set seeded on session start.
//
// All methods run on the transport's dispatch context; no locking.
type rosterManager struct {
	tr   transport.Transport
	log  zerolog.Logger
	self transport.Identity

	isRoom func(transport.Identity) bool

	entries map[transport.Identity]transport.Subscription
	pending map[transport.Identity]struct{}
}

func newRosterManager(tr transport.Transport, log zerolog.Logger, self transport.Identity, isRoom func(transport.Identity) bool) *rosterManager {
	return &rosterManager{
		tr:      tr,
		log:     log,
		self:    self.Bare(),
		isRoom:  isRoom,
		entries: make(map[transport.Identity]transport.Subscription),
		pending: make(map[transport.Identity]struct{}),
	}
}

// Authorized reports whether id may run restricted commands: present in the
// roster, not a room, and not the bot itself.
func (r *rosterManager) Authorized(id transport.Identity) bool {
	id = id.Bare()
	if id == r.self || r.isRoom(id) {
		return false
	}
	_, ok := r.entries[id]
	return ok
}

// Grant issues a mutual-subscription roster update for id and mirrors it in
// the local snapshot.
func (r *rosterManager) Grant(id transport.Identity) error {
	id = id.Bare()
	if err := r.tr.UpdateRoster(id, transport.SubscriptionBoth); err != nil {
		return err
	}
	r.entries[id] = transport.SubscriptionBoth
	return nil
}

// Revoke removes the subscription for id.
func (r *rosterManager) Revoke(id transport.Identity) error {
	id = id.Bare()
	if err := r.tr.UpdateRoster(id, transport.SubscriptionRemove); err != nil {
		return err
	}
	delete(r.entries, id)
	return nil
}

// HandlePresence processes subscription traffic. Incoming "subscribe"
// requests are approved only for identities seeded into the pending set at
// session start; anything else is ignored so that unknown senders cannot
// subscribe themselves into authorization.
func (r *rosterManager) HandlePresence(p transport.Presence) {
	from := p.From.Bare()
	switch p.Kind {
	case transport.PresenceSubscribe:
		if _, ok := r.pending[from]; !ok {
			return
		}
		if err := r.Grant(from); err != nil {
			r.log.Warn().Err(err).Str("from", string(from)).Msg("failed to approve subscription")
			return
		}
		delete(r.pending, from)
	case transport.PresenceSubscribed:
		delete(r.pending, from)
	}
}

// setSnapshot replaces the local roster view with a fresh server snapshot.
func (r *rosterManager) setSnapshot(entries []transport.RosterEntry) {
	r.entries = make(map[transport.Identity]transport.Subscription, len(entries))
	for _, e := range entries {
		r.entries[e.ID.Bare()] = e.Subscription
	}
}

// seedPending registers the configured initial users as awaiting subscription
// confirmation.
func (r *rosterManager) seedPending(ids []transport.Identity) {
	for _, id := range ids {
		r.pending[id.Bare()] = struct{}{}
	}
}

// users returns the roster identities that are neither rooms nor the bot
// itself, sorted for a stable, restartable view.
func (r *rosterManager) users() []transport.Identity {
	out := make([]transport.Identity, 0, len(r.entries))
	for id := range r.entries {
		if id == r.self || r.isRoom(id) {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
