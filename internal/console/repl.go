package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"voxsearch/internal/domain"
)

const helpText = `Type a query and press Enter to search.
  /mic    start or stop voice input
  /lang   switch search language
  /help   show this help
  /quit   exit
An empty line searches the current query (for example a voice transcript).
`

// Session is the search form driven by the console.
type Session interface {
	SetQuery(text string)
	Query() string
	Locale() domain.Locale
	Listening() domain.ListeningState
	ToggleMic(ctx context.Context) error
	ToggleLocale(ctx context.Context) (domain.Locale, error)
	Submit(ctx context.Context) domain.SubmissionResult
}

type REPL struct {
	session Session
	view    *View
	logger  *slog.Logger
	rl      *readline.Instance

	inflight sync.WaitGroup
}

func NewREPL(session Session, view *View, historyFile string, logger *slog.Logger) (*REPL, error) {
	if historyFile == "" {
		historyFile = defaultHistoryFile()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(session.Listening(), session.Locale()),
		HistoryFile:     historyFile,
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("creating readline: %w", err)
	}

	r := &REPL{session: session, view: view, logger: logger, rl: rl}
	view.SetOutput(rl.Stdout())
	view.onChange = func(state domain.ListeningState, locale domain.Locale) {
		rl.SetPrompt(prompt(state, locale))
		rl.Refresh()
	}
	return r, nil
}

// Run reads lines until EOF, /quit or ctx is cancelled. In-flight searches
// are awaited before returning.
func (r *REPL) Run(ctx context.Context) error {
	defer r.rl.Close()
	defer r.inflight.Wait()

	fmt.Fprint(r.rl.Stdout(), helpText)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.rl.Close()
		case <-done:
		}
	}()

	for {
		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		if r.handleLine(ctx, line) {
			return nil
		}
	}
}

// handleLine executes one input line and reports whether to quit.
func (r *REPL) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)

	switch line {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/h", "/?":
		r.view.print(helpText)
	case "/mic":
		if err := r.session.ToggleMic(ctx); err != nil {
			r.logger.Debug("toggle mic", "error", err)
		}
	case "/lang":
		locale, err := r.session.ToggleLocale(ctx)
		if err != nil {
			r.logger.Warn("switching locale", "error", err)
		}
		r.view.print(fmt.Sprintf("language: %s\n", locale.DisplayName()))
	case "":
		r.submit(ctx)
	default:
		if strings.HasPrefix(line, "/") {
			r.view.print(fmt.Sprintf("unknown command %s, try /help\n", line))
			return false
		}
		r.view.markTyped(line)
		r.session.SetQuery(line)
		r.submit(ctx)
	}
	return false
}

func (r *REPL) submit(ctx context.Context) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		r.session.Submit(ctx)
	}()
}

func defaultHistoryFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "voxsearch_history")
	}
	return filepath.Join(homeDir, ".voxsearch_history")
}
