package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mpellerin/tally/internal/agent"
)

// DebugLogger provides debug logging for orchestrator operations.
// It wraps file-based logging with thread-safe access.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewDebugLogger creates a logger writing to the specified path.
// If the path is empty, returns a no-op logger.
// Creates parent directories if they don't exist.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{file: f}
	logger.Log("=== Tally Debug Log Started at %s ===", time.Now().Format(time.RFC3339))
	return logger, nil
}

// NopLogger returns a no-op logger for testing or when logging is disabled.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a timestamped message to the debug log.
// If the logger is nil or has no file, this is a no-op.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s\n", timestamp, msg)
	l.file.Sync()
}

// LogEvent writes one agent execution event.
func (l *DebugLogger) LogEvent(e agent.Event) {
	switch e.Type {
	case agent.EventCapabilityCall:
		l.Log("[%s] call %s %s", e.Agent, e.Capability, e.Content)
	case agent.EventCapabilityResult:
		l.Log("[%s] result %s: %s", e.Agent, e.Capability, truncate(e.Content, 200))
	case agent.EventDispatchStarted:
		l.Log("[%s] dispatch -> %s: %s", e.Agent, e.Content, e.Instruction)
	case agent.EventDispatchCompleted:
		l.Log("[%s] dispatch done: %s", e.Agent, truncate(e.Content, 200))
	case agent.EventValidationRejected:
		l.Log("[%s] batch rejected by review", e.Agent)
	case agent.EventInterruptRaised:
		l.Log("[%s] interrupt %s on %s", e.Agent, e.InterruptID, e.Capability)
	case agent.EventResumed:
		l.Log("[%s] interrupt %s resolved: %s", e.Agent, e.InterruptID, e.Content)
	case agent.EventAnswer:
		l.Log("[%s] answer: %s", e.Agent, truncate(e.Content, 200))
	default:
		l.Log("[%s] %s: %s", e.Agent, e.Type, truncate(e.Content, 200))
	}
}

// Close closes the log file.
// Safe to call on nil logger or logger without file.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
