package bot

import (
	"context"

	"github.com/connectical/whistler/internal/transport"
)

// State is the session lifecycle state.
type State int

const (
	// StateDisconnected means no connection attempt is in progress. The bot
	// starts here and returns here after Stop; Start may be called again.
	StateDisconnected State = iota
	// StateConnecting means Connect is in flight.
	StateConnecting
	// StateConnected means the transport-level connection (including the
	// encrypted channel) is up but the session is not yet usable.
	StateConnected
	// StateReady means the session is established: roster fetched, presence
	// sent, rooms joined, keep-alive running.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// State returns the current lifecycle state.
func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start connects to the server. It is synchronous: it blocks until the
// transport connection and encrypted channel are up or have definitively
// failed, returning a *ConnectionError in the latter case. Session readiness
// (roster, presence, rooms, keep-alive) follows asynchronously when the
// transport signals session establishment.
//
// A failed Start leaves the bot disconnected; it is never retried internally.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateDisconnected {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.state = StateConnecting
	b.mu.Unlock()

	if err := b.tr.Connect(ctx, b.host, b.port); err != nil {
		b.setState(StateDisconnected)
		return &ConnectionError{Host: b.host, Port: b.port, Err: err}
	}
	if err := b.tr.StartTLS(); err != nil {
		_ = b.tr.Disconnect()
		b.setState(StateDisconnected)
		return &ConnectionError{Host: b.host, Port: b.port, Err: err}
	}

	b.mu.Lock()
	if b.state != StateConnecting {
		// Stop raced with the connect. Tear the fresh connection down and
		// stay disconnected instead of resurrecting a stopped session.
		b.mu.Unlock()
		_ = b.tr.Disconnect()
		b.log.Info().Msg("stop requested during connect")
		return nil
	}
	b.state = StateConnected
	b.mu.Unlock()
	b.log.Info().Str("host", b.host).Int("port", b.port).Msg("connected")
	return nil
}

// Stop leaves every joined room, stops the keep-alive job, and tears down the
// transport connection. Room leaves are best-effort: a failure is logged and
// shutdown proceeds. Stopping an already-stopped bot is a no-op.
func (b *Bot) Stop() {
	b.mu.Lock()
	if b.state == StateDisconnected {
		b.mu.Unlock()
		return
	}
	b.state = StateDisconnected
	alive := b.alive
	b.alive = nil
	rooms := make(map[transport.Identity]string, len(b.rooms))
	for room, nick := range b.rooms {
		rooms[room] = nick
	}
	b.mu.Unlock()

	b.log.Info().Msg("shutting down the bot")
	for room, nick := range rooms {
		if err := b.tr.LeaveRoom(room, nick); err != nil {
			b.log.Warn().Err(err).Str("room", string(room)).Msg("failed to leave room")
		}
	}
	if alive != nil {
		alive.stop()
	}
	if err := b.tr.Disconnect(); err != nil {
		b.log.Warn().Err(err).Msg("disconnect failed")
	}
}

// handleSessionEstablished drives the Connected → Ready transition: fetch the
// roster, announce availability, (re)start the keep-alive job, join the
// configured rooms, and seed the pending-authorization set.
func (b *Bot) handleSessionEstablished(transport.Event) {
	entries, err := b.tr.Roster()
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to fetch roster")
	} else {
		b.roster.setSnapshot(entries)
	}

	if err := b.tr.SendPresence(transport.PresenceAvailable); err != nil {
		b.log.Warn().Err(err).Msg("failed to send presence")
	}

	b.resetKeepalive()

	b.mu.Lock()
	rooms := make(map[transport.Identity]string, len(b.rooms))
	for room, nick := range b.rooms {
		rooms[room] = nick
	}
	b.mu.Unlock()
	for room, nick := range rooms {
		if err := b.tr.JoinRoom(room, nick); err != nil {
			b.log.Warn().Err(err).Str("room", string(room)).Msg("failed to join room")
		}
	}

	b.roster.seedPending(b.initialUsers)
	b.setState(StateReady)
	b.log.Info().Msg("session ready")
}

// handlePresence forwards presence traffic to the roster manager.
func (b *Bot) handlePresence(ev transport.Event) {
	if ev.Presence == nil {
		return
	}
	b.roster.HandlePresence(*ev.Presence)
}

// resetKeepalive replaces any running keep-alive job with a fresh one. The
// transport may re-establish the session without an intervening Stop; a stale
// ticker from the previous session must not be left running next to the new
// one.
func (b *Bot) resetKeepalive() {
	b.mu.Lock()
	old := b.alive
	b.alive = newKeepalive(b.keepAliveEvery)
	alive := b.alive
	b.mu.Unlock()

	if old != nil {
		old.stop()
	}
	go alive.run(b.tr, b.log)
}

func (b *Bot) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}
