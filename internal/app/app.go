// Package app wires configuration, logging, transport, and the bot core
// together.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/connectical/whistler/internal/bot"
	"github.com/connectical/whistler/internal/config"
	"github.com/connectical/whistler/internal/transport"
	"github.com/connectical/whistler/internal/transport/wsjson"
)

// App owns one bot and its transport.
type App struct {
	bot *bot.Bot
	log zerolog.Logger
}

// New builds the application: a websocket transport authenticated with the
// configured credentials, and a bot configured with the rooms, users, and
// addressing conventions from cfg.
func New(cfg config.Config, logger zerolog.Logger) *App {
	tr := wsjson.New(wsjson.Options{
		JID:      transport.Identity(cfg.JID),
		Password: cfg.Password,
		Secure:   cfg.Secure,
	}, logger)

	b := bot.New(bot.Options{
		JID:            transport.Identity(cfg.JID),
		Host:           cfg.Host,
		Port:           cfg.Port,
		Resource:       cfg.Resource,
		Rooms:          identities(cfg.Rooms),
		Users:          identities(cfg.Users),
		Sigil:          cfg.Sigil,
		KeepAliveEvery: cfg.KeepAlive,
	}, tr, logger)

	return &App{bot: b, log: logger}
}

// Bot exposes the bot for command registration before Run.
func (a *App) Bot() *bot.Bot { return a.bot }

// Run starts the bot and blocks until the context is cancelled, then stops
// it. A failed start is returned immediately.
func (a *App) Run(ctx context.Context) error {
	if err := a.bot.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.bot.Stop()
	return nil
}

func identities(values []string) []transport.Identity {
	out := make([]transport.Identity, 0, len(values))
	for _, v := range values {
		out = append(out, transport.Identity(v))
	}
	return out
}
