package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"voxsearch/internal/domain"
)

// View renders session state as lines of text. It is both the Presenter
// and the console Notifier.
type View struct {
	mu       sync.Mutex
	out      io.Writer
	typed    string
	onChange func(state domain.ListeningState, locale domain.Locale)
}

func NewView(out io.Writer) *View {
	return &View{out: out}
}

func (v *View) SetOutput(out io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out = out
}

// markTyped suppresses the echo of a query the user just typed.
func (v *View) markTyped(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typed = text
}

func (v *View) QueryChanged(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text == v.typed {
		v.typed = ""
		return
	}
	fmt.Fprintf(v.out, "heard: %s\n(press Enter to search)\n", text)
}

func (v *View) ListeningChanged(state domain.ListeningState, locale domain.Locale) {
	v.mu.Lock()
	if state == domain.ListeningCapturing {
		fmt.Fprintf(v.out, "listening (%s)...\n", locale.DisplayName())
	}
	onChange := v.onChange
	v.mu.Unlock()

	if onChange != nil {
		onChange(state, locale)
	}
}

func (v *View) SubmissionChanged(result domain.SubmissionResult) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch result.Status {
	case domain.SubmissionPending:
		fmt.Fprintf(v.out, "searching: %s\n", result.Query)
	case domain.SubmissionSuccess:
		fmt.Fprintf(v.out, "\n%s\n\n", result.Text)
	case domain.SubmissionFailure:
		fmt.Fprintf(v.out, "search failed (%s)\n", result.Reason)
	}
}

func (v *View) Notify(_ context.Context, message string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := fmt.Fprintf(v.out, "! %s\n", message)
	return err
}

func (v *View) print(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprint(v.out, s)
}

// Placeholder is the input hint for a locale.
func Placeholder(locale domain.Locale) string {
	switch locale.Language() {
	case "en":
		return "Search in English"
	case "kn":
		return "ಕನ್ನಡದಲ್ಲಿ ಹುಡುಕು"
	default:
		return "Search in " + locale.DisplayName()
	}
}

func prompt(state domain.ListeningState, locale domain.Locale) string {
	mic := "mic off"
	if state == domain.ListeningCapturing {
		mic = "mic on"
	}
	return fmt.Sprintf("[%s] %s> ", mic, Placeholder(locale))
}
