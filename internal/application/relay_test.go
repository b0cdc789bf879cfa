package application_test

import (
	"context"
	"errors"
	"testing"

	"voxsearch/internal/application"
	"voxsearch/internal/domain"
)

func TestRelay_PrefixesPrompt(t *testing.T) {
	generator := &mockGenerator{reply: "Bengaluru"}
	relay := application.NewRelay(generator, "Answer briefly: ", discardLogger())

	got, err := relay.Process(context.Background(), "capital of Karnataka")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got != "Bengaluru" {
		t.Errorf("result = %q", got)
	}
	if len(generator.prompts) != 1 || generator.prompts[0] != "Answer briefly: capital of Karnataka" {
		t.Errorf("prompts = %q", generator.prompts)
	}
}

func TestRelay_RejectsBlank(t *testing.T) {
	generator := &mockGenerator{}
	relay := application.NewRelay(generator, "p", discardLogger())

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := relay.Process(context.Background(), text)
		if !errors.Is(err, domain.ErrEmptySubmission) {
			t.Errorf("Process(%q) error = %v, want ErrEmptySubmission", text, err)
		}
	}
	if len(generator.prompts) != 0 {
		t.Error("generator must not be called for blank input")
	}
}

func TestRelay_WrapsGeneratorError(t *testing.T) {
	relay := application.NewRelay(&mockGenerator{err: errBoom}, "", discardLogger())

	_, err := relay.Process(context.Background(), "hi")
	if !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want wrapped boom", err)
	}
}
