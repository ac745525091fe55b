package donorline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Runner drives an Engine from a line-oriented reader, one line per SMS.
// It backs the local chat simulator and makes conversations easy to script in tests.
type Runner struct {
	Input  io.Reader
	Output io.Writer
	// From is the simulated sender phone number.
	From string
	// Echo prints the reply returned by the engine. Leave it off when the
	// engine's gateway already writes to Output.
	Echo     bool
	Renderer ContentRenderer
	// Prompt is printed before each read; empty disables it.
	Prompt string
}

// ContentRenderer is a function that transforms a reply before outputting it.
// This allows for TUI styling without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner for the given sender.
func NewRunner(in io.Reader, out io.Writer, from string) *Runner {
	return &Runner{
		Input:  in,
		Output: out,
		From:   from,
		Echo:   true,
		Prompt: "> ",
	}
}

// Run feeds every line to the engine until EOF, "exit" or "quit", or ctx is done.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}
	if r.From == "" {
		return errors.New("sender phone number must be set")
	}

	scanner := bufio.NewScanner(r.Input)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if r.Prompt != "" {
			fmt.Fprint(r.Output, r.Prompt)
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			// Graceful exit on EOF
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}

		reply, err := engine.HandleMessage(ctx, r.From, input)
		if err != nil {
			return fmt.Errorf("message failed: %w", err)
		}
		if !r.Echo {
			continue
		}
		if r.Renderer != nil {
			if rendered, err := r.Renderer(reply); err == nil {
				reply = rendered
			}
		}
		fmt.Fprintln(r.Output, strings.TrimSpace(reply))
	}
}
