package config

import "time"

// Config holds the bot configuration.
type Config struct {
	// JID is the bot's bare identity on the server.
	JID string `mapstructure:"jid" yaml:"jid"`
	// Password authenticates the JID; handed to the transport untouched.
	Password string `mapstructure:"password" yaml:"password"`
	// Host and Port locate the server. An empty host lets the transport
	// derive it from the JID domain.
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// Secure dials the server over an encrypted channel.
	Secure bool `mapstructure:"secure" yaml:"secure"`
	// Resource is the session resource and group-channel nickname.
	// Autogenerated when empty.
	Resource string `mapstructure:"resource" yaml:"resource"`
	// Rooms are joined automatically on session start.
	Rooms []string `mapstructure:"rooms" yaml:"rooms"`
	// Users are the initially-authorized identities awaiting subscription
	// confirmation.
	Users []string `mapstructure:"users" yaml:"users"`
	// Sigil is the leading character marking a group message as a command.
	Sigil string `mapstructure:"sigil" yaml:"sigil"`
	// KeepAlive is the liveness probe period.
	KeepAlive time.Duration `mapstructure:"keep_alive" yaml:"keep_alive"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Port:      5222,
		Secure:    true,
		Sigil:     "!",
		KeepAlive: 60 * time.Second,
		LogLevel:  "info",
	}
}
