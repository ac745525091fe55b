package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/donorline"
	"github.com/aretw0/donorline/internal/config"
	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/internal/presentation/tui"
)

// RunChat simulates an SMS conversation on the terminal. Each input line is
// one inbound message from opts.From; replies and idle reminders are printed
// as they are sent.
func RunChat(cfg config.Config, opts ChatOptions) error {
	var logger *slog.Logger
	if opts.Debug {
		logger = createLogger(cfg)
	} else {
		logger = logging.NewNop()
	}

	if !opts.Plain {
		tui.PrintBanner(opts.Out, donorline.Version)
	}

	out := &replyWriter{out: opts.Out}
	if !opts.Plain {
		out.render = tui.NewReplyRenderer()
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := NewApp(sigCtx, cfg, BuildOptions{
		Logger:       logger,
		Console:      out,
		ForceConsole: true,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	printSystemMessage(opts.Out, "Texting as %s. Reminders after %s of silence. Type 'quit' to leave.",
		opts.From, app.Engine.IdleTimeout())

	r := donorline.NewRunner(NewInterruptibleReader(opts.In, sigCtx.Done()), opts.Out, opts.From)
	r.Echo = false
	if opts.Plain {
		r.Prompt = ""
	}

	runErr := r.Run(sigCtx, app.Engine)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	logCompletion(opts.Out, sigCtx.Signal())
	if app.Ledger != nil {
		if n := len(app.Ledger.Donations()); n > 0 {
			printSystemMessage(opts.Out, "%d donation(s) recorded this session.", n)
		}
	}
	return handleExecutionError(runErr)
}

// replyWriter receives console gateway output and prints each message body,
// rendered when a renderer is set. The console gateway writes one message per call.
type replyWriter struct {
	mu     sync.Mutex
	out    io.Writer
	render func(string) (string, error)
}

func (w *replyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	body := string(p)
	if strings.HasPrefix(body, "[sms -> ") {
		if i := strings.IndexByte(body, '\n'); i >= 0 {
			body = body[i+1:]
		}
	}
	body = strings.TrimRight(body, "\n")

	if w.render != nil {
		if rendered, err := w.render(body); err == nil {
			body = strings.Trim(rendered, "\n")
		}
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, body)
	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
