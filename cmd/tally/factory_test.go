package main

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mpellerin/tally/internal/checkpoint"
	"github.com/mpellerin/tally/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Provider:   "anthropic",
		Anthropic:  config.AnthropicConfig{APIKey: "sk-test"},
		Checkpoint: config.CheckpointConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "threads.db")},
	}
}

func TestAppCloseReleasesCheckpointStore(t *testing.T) {
	a, err := buildAppFromConfig(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("buildAppFromConfig failed: %v", err)
	}

	cp := &checkpoint.Checkpoint{ThreadID: "thread-1", UpdatedAt: time.Now()}
	if err := a.store.Save(context.Background(), cp); err != nil {
		t.Fatalf("Save before close failed: %v", err)
	}

	a.close()
	if err := a.store.Save(context.Background(), cp); err == nil {
		t.Fatal("Save succeeded on a closed store")
	}
}

// logSink is a concurrency-safe capture target for the stdlib logger.
type logSink struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestStreamListenFailureIsLogged(t *testing.T) {
	sink := &logSink{}
	prev := log.Writer()
	log.SetOutput(sink)
	defer log.SetOutput(prev)

	cfg := testConfig(t)
	cfg.Stream.Addr = "256.256.256.256:0"

	a, err := buildAppFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildAppFromConfig failed: %v", err)
	}
	defer a.close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(sink.String(), "stream server on") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("listen failure never logged, captured: %q", sink.String())
}
