package bot

import "github.com/connectical/whistler/internal/transport"

// Message is the context a command handler receives: who sent the text, the
// raw body, and the originating room when the command arrived over a group
// channel. Room is empty for direct messages.
type Message struct {
	From transport.Identity
	Body string
	Room transport.Identity

	bot *Bot
}

// Reply sends text back to the originating context: to the room for group
// messages, directly to the sender otherwise.
func (m *Message) Reply(text string) error {
	if m.Room != "" {
		return m.bot.tr.SendMessage(transport.Message{
			To:   m.Room,
			Body: text,
			Kind: transport.KindGroup,
		})
	}
	return m.bot.tr.SendMessage(transport.Message{
		To:   m.From,
		Body: text,
		Kind: transport.KindDirect,
	})
}
