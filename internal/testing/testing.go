// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// MockCompleter is a test double for [services.Completer] that replays scripted replies in order.
type MockCompleter struct {
	mu      sync.Mutex
	Replies []string
	Errs    []error
	Calls   []CompletionCall
}

// CompletionCall records the arguments of one Complete call.
type CompletionCall struct {
	System string
	User   string
}

func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := len(m.Calls)
	m.Calls = append(m.Calls, CompletionCall{System: system, User: user})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if i < len(m.Errs) && m.Errs[i] != nil {
		return "", m.Errs[i]
	}
	if i < len(m.Replies) {
		return m.Replies[i], nil
	}
	return "[]", nil
}

// MockMetadata is a test double for [services.MetadataProvider] backed by a map of entries.
type MockMetadata struct {
	mu      sync.Mutex
	Entries map[string]models.Entry
	Fail    map[string]error
	Results []models.Candidate
	Lookups []string
}

func (m *MockMetadata) Search(ctx context.Context, title string) ([]models.Candidate, error) {
	return m.Results, nil
}

func (m *MockMetadata) Lookup(ctx context.Context, id string) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Lookups = append(m.Lookups, id)
	if err, ok := m.Fail[id]; ok {
		return nil, err
	}
	e, ok := m.Entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	return &e, nil
}

func (m *MockMetadata) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
