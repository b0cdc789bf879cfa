package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"voxsearch/internal/application"
	"voxsearch/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSession struct {
	events chan domain.RecognitionEvent

	mu      sync.Mutex
	stopped int
	aborted int
	closed  bool
}

func newMockSession() *mockSession {
	return &mockSession{events: make(chan domain.RecognitionEvent, 8)}
}

func (m *mockSession) Events() <-chan domain.RecognitionEvent { return m.events }

func (m *mockSession) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	return nil
}

func (m *mockSession) Abort() error {
	m.mu.Lock()
	m.aborted++
	m.mu.Unlock()
	m.end()
	return nil
}

func (m *mockSession) emit(event domain.RecognitionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.events <- event
}

func (m *mockSession) end() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
}

func (m *mockSession) counts() (stopped, aborted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped, m.aborted
}

type mockRecognizer struct {
	locale domain.Locale

	mu       sync.Mutex
	sessions []*mockSession
	closed   bool
	startErr error
}

func (m *mockRecognizer) Start(_ context.Context) (application.CaptureSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return nil, m.startErr
	}
	session := newMockSession()
	m.sessions = append(m.sessions, session)
	return session, nil
}

func (m *mockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockRecognizer) started() []*mockSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*mockSession(nil), m.sessions...)
}

func (m *mockRecognizer) last() *mockSession {
	sessions := m.started()
	if len(sessions) == 0 {
		return nil
	}
	return sessions[len(sessions)-1]
}

type mockCapability struct {
	unavailable bool

	mu          sync.Mutex
	recognizers []*mockRecognizer
}

func (m *mockCapability) Available() bool { return !m.unavailable }

func (m *mockCapability) Reason() string {
	if m.unavailable {
		return "no microphone"
	}
	return ""
}

func (m *mockCapability) NewRecognizer(locale domain.Locale) (application.Recognizer, error) {
	if m.unavailable {
		return nil, domain.ErrCapabilityUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	recognizer := &mockRecognizer{locale: locale}
	m.recognizers = append(m.recognizers, recognizer)
	return recognizer, nil
}

func (m *mockCapability) current() *mockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.recognizers) == 0 {
		return nil
	}
	return m.recognizers[len(m.recognizers)-1]
}

type mockSink struct {
	mu      sync.Mutex
	queries []string
}

func (m *mockSink) SetQuery(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, text)
}

func (m *mockSink) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

type mockObserver struct {
	mu     sync.Mutex
	states []domain.ListeningState
}

func (m *mockObserver) ListeningChanged(state domain.ListeningState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
}

func (m *mockObserver) snapshot() []domain.ListeningState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ListeningState(nil), m.states...)
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) Notify(_ context.Context, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockNotifier) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

type mockPresenter struct {
	mu          sync.Mutex
	queries     []string
	listening   []domain.ListeningState
	locales     []domain.Locale
	submissions []domain.SubmissionResult
}

func (m *mockPresenter) QueryChanged(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, text)
}

func (m *mockPresenter) ListeningChanged(state domain.ListeningState, locale domain.Locale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listening = append(m.listening, state)
	m.locales = append(m.locales, locale)
}

func (m *mockPresenter) SubmissionChanged(result domain.SubmissionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, result)
}

func (m *mockPresenter) results() []domain.SubmissionResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SubmissionResult(nil), m.submissions...)
}

type mockGateway struct {
	mu    sync.Mutex
	calls []string
	reply func(text string) (string, error)
}

func (m *mockGateway) Submit(_ context.Context, text string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	reply := m.reply
	m.mu.Unlock()
	return reply(text)
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGenerator) Name() string { return "mock" }

var errBoom = errors.New("boom")

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}
