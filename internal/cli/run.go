package cli

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/aretw0/donorline/internal/config"
	"golang.org/x/term"
)

// DefaultChatSender is the simulated phone number used by the chat command.
const DefaultChatSender = "+15555550100"

// ChatOptions contains all the configuration for the chat command.
type ChatOptions struct {
	ConfigPath string
	From       string
	Debug      bool
	// Plain disables the banner, markdown rendering and prompt. It is forced
	// when stdin is not a terminal.
	Plain bool
	// IdleTimeout overrides the configured inactivity window.
	IdleTimeout time.Duration

	In  io.Reader
	Out io.Writer
}

// Execute handles the 'chat' command logic.
func Execute(opts ChatOptions) error {
	if opts.From == "" {
		opts.From = DefaultChatSender
	}
	if opts.In == nil {
		opts.In = os.Stdin
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			opts.Plain = true
		}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.IdleTimeout < 0 {
		return errors.New("--idle must not be negative")
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	if opts.IdleTimeout > 0 {
		cfg.Session.IdleTimeout = opts.IdleTimeout
	}
	// The simulator never reaches a real provider or an external scheduler.
	cfg.Scheduler.Driver = config.DriverTimer
	cfg.Ledger.Driver = config.DriverMemory

	return RunChat(cfg, opts)
}
