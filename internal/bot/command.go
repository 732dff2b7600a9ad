package bot

// Handler is a command implementation. It receives the message context and
// the whitespace-split arguments that followed the command name. The reply is
// sent back to the originating context when send is true; send == false means
// no reply at all, so an empty string with send == true is still a valid
// (empty) reply.
type Handler func(msg *Message, args []string) (reply string, send bool)

// RegisterCommand binds a handler to a command name. Names are case-sensitive
// and must not contain whitespace. Registering an existing name replaces the
// prior binding. Restricted commands are wrapped once, here, so that every
// invocation goes through the authorization check.
//
// The command table is read and written from the transport's dispatch context
// only; see the concurrency note on Bot.
func (b *Bot) RegisterCommand(name string, h Handler, restricted bool) {
	if restricted {
		h = b.restrict(name, h)
	}
	b.commands[name] = h
}

// UnregisterCommand removes a command binding. Removing an unknown name is a
// no-op.
func (b *Bot) UnregisterCommand(name string) {
	delete(b.commands, name)
}

// restrict wraps a handler with the authorization gate. An unauthorized
// sender gets no reply and no handler invocation, only a warn-level log entry
// naming the command and the sender.
func (b *Bot) restrict(name string, h Handler) Handler {
	return func(msg *Message, args []string) (string, bool) {
		sender := msg.From.Bare()
		if !b.roster.Authorized(sender) {
			b.log.Warn().
				Str("command", name).
				Str("from", string(sender)).
				Msg("ignoring restricted command from unauthorized sender")
			return "", false
		}
		return h(msg, args)
	}
}
