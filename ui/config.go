package ui

import "github.com/dgnsrekt/rsvp/rsvp"

// Config contains TUI-specific configuration.
type Config struct {
	EnableMouse bool

	// File being read; empty for stdin, clipboard and typed text.
	Path string

	// Reader settings, loaded from the config file and flags.
	Reader rsvp.Config

	// Draw the guide marks above and below the anchor.
	ShowGuides bool `env:"RSVP_SHOW_GUIDES" envDefault:"true"`

	// For debugging the UI
	Debug bool `env:"RSVP_DEBUG"`
}
