package bot

import (
	"strings"

	"github.com/connectical/whistler/internal/transport"
)

// handleGroupMessage routes a group-channel message. A message is a command
// candidate only when it starts with the sigil or addresses the bot by
// nickname ("<nick>, cmd ..." or "<nick>: cmd ..."); everything else is
// ordinary room chatter and is ignored.
func (b *Bot) handleGroupMessage(ev transport.Event) {
	msg := ev.Message
	if msg == nil {
		return
	}
	name, args, ok := parseGroupCommand(msg.Body, b.sigil, b.resource)
	if !ok {
		return
	}
	b.dispatch(&Message{From: msg.From, Body: msg.Body, Room: msg.Room, bot: b}, name, args)
}

// handleDirectMessage routes a one-to-one chat message. Any non-empty body is
// treated as a command; no sigil or addressing prefix is required.
func (b *Bot) handleDirectMessage(ev transport.Event) {
	msg := ev.Message
	if msg == nil {
		return
	}
	fields := strings.Fields(msg.Body)
	if len(fields) == 0 {
		return
	}
	b.dispatch(&Message{From: msg.From, Body: msg.Body, bot: b}, fields[0], fields[1:])
}

// parseGroupCommand extracts the command name and arguments from a group
// message body. ok is false when the body is not a command candidate.
func parseGroupCommand(body, sigil, nick string) (name string, args []string, ok bool) {
	if body == "" {
		return "", nil, false
	}
	switch {
	case strings.HasPrefix(body, sigil):
		fields := strings.Fields(body)
		name = strings.TrimPrefix(fields[0], sigil)
		return name, fields[1:], name != ""
	case strings.HasPrefix(body, nick+", ") || strings.HasPrefix(body, nick+": "):
		fields := strings.Fields(body)
		if len(fields) < 2 {
			return "", nil, false
		}
		return fields[1], fields[2:], true
	}
	return "", nil, false
}

// dispatch resolves the command and runs it. Unknown commands are ignored
// apart from an info-level log line; the bot never error-replies to input it
// does not understand.
func (b *Bot) dispatch(msg *Message, name string, args []string) {
	h, ok := b.commands[name]
	if !ok {
		b.log.Info().Str("command", name).Msg("unknown command, ignoring")
		return
	}
	b.log.Info().Str("command", name).Strs("args", args).Str("from", string(msg.From)).Msg("command")
	reply, send := h(msg, args)
	if !send {
		return
	}
	if err := msg.Reply(reply); err != nil {
		b.log.Warn().Err(err).Str("command", name).Msg("failed to send reply")
	}
}
