package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/connectical/whistler/internal/app"
	"github.com/connectical/whistler/internal/bot"
	"github.com/connectical/whistler/internal/config"
	"github.com/connectical/whistler/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	overrides := config.Default()

	cmd := &cobra.Command{
		Use:           "whistler",
		Short:         "Chat-room command bot",
		Long:          "whistler joins a set of group channels and answers registered commands, addressed either with a leading sigil or by nickname.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLog := log.New(overrides.LogLevel)
			cfg, path, err := config.Load(&bootLog, configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, &cfg, overrides)

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("jid", cfg.JID).Msg("starting whistler")

			application := app.New(cfg, logger)
			registerBuiltins(application.Bot())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("bot stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&overrides.JID, "jid", overrides.JID, "bot identity")
	cmd.Flags().StringVar(&overrides.Password, "password", overrides.Password, "bot password")
	cmd.Flags().StringVar(&overrides.Host, "host", overrides.Host, "server host")
	cmd.Flags().IntVar(&overrides.Port, "port", overrides.Port, "server port")
	cmd.Flags().BoolVar(&overrides.Secure, "secure", overrides.Secure, "dial over an encrypted channel")
	cmd.Flags().StringVar(&overrides.Resource, "resource", overrides.Resource, "session resource / room nickname")
	cmd.Flags().StringSliceVar(&overrides.Rooms, "room", overrides.Rooms, "room to auto-join (repeatable)")
	cmd.Flags().StringSliceVar(&overrides.Users, "user", overrides.Users, "initially-authorized user (repeatable)")
	cmd.Flags().StringVar(&overrides.Sigil, "sigil", overrides.Sigil, "command sigil for group messages")
	cmd.Flags().DurationVar(&overrides.KeepAlive, "keep-alive", overrides.KeepAlive, "keep-alive probe period")
	cmd.Flags().StringVar(&overrides.LogLevel, "log-level", overrides.LogLevel, "log level (debug, info, warn, error)")
	return cmd
}

// applyFlagOverrides lets explicitly-set flags win over config file and env.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, overrides config.Config) {
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("jid", func() { cfg.JID = overrides.JID })
	set("password", func() { cfg.Password = overrides.Password })
	set("host", func() { cfg.Host = overrides.Host })
	set("port", func() { cfg.Port = overrides.Port })
	set("secure", func() { cfg.Secure = overrides.Secure })
	set("resource", func() { cfg.Resource = overrides.Resource })
	set("room", func() { cfg.Rooms = overrides.Rooms })
	set("user", func() { cfg.Users = overrides.Users })
	set("sigil", func() { cfg.Sigil = overrides.Sigil })
	set("keep-alive", func() { cfg.KeepAlive = overrides.KeepAlive })
	set("log-level", func() { cfg.LogLevel = overrides.LogLevel })
}

// registerBuiltins installs the stock commands every whistler instance
// answers to.
func registerBuiltins(b *bot.Bot) {
	started := time.Now()

	b.RegisterCommand("echo", func(msg *bot.Message, args []string) (string, bool) {
		return strings.Join(args, " "), true
	}, false)

	b.RegisterCommand("whoami", func(msg *bot.Message, args []string) (string, bool) {
		return "You are " + string(msg.From), true
	}, false)

	b.RegisterCommand("uptime", func(msg *bot.Message, args []string) (string, bool) {
		return "up " + time.Since(started).Round(time.Second).String(), true
	}, false)

	b.RegisterCommand("list_rooms", func(msg *bot.Message, args []string) (string, bool) {
		rooms := b.Rooms()
		names := make([]string, 0, len(rooms))
		for _, room := range rooms {
			names = append(names, string(room))
		}
		return strings.Join(names, ", "), true
	}, true)

	b.RegisterCommand("users", func(msg *bot.Message, args []string) (string, bool) {
		users := b.Users()
		names := make([]string, 0, len(users))
		for _, user := range users {
			names = append(names, string(user))
		}
		return strings.Join(names, ", "), true
	}, true)
}
