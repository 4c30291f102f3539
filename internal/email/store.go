// Package email provides the mailbox repository the emailing agent works
// against, plus the capabilities bound to it. The in-memory implementation
// stands in for a real IMAP/SMTP backend.
package email

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates a message or draft that does not exist.
var ErrNotFound = errors.New("email: not found")

// Folder names understood by the store.
const (
	FolderInbox  = "inbox"
	FolderSent   = "sent"
	FolderDrafts = "drafts"
)

// Message is a single email.
type Message struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	CC        []string  `json:"cc,omitempty"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"is_read"`
}

// Store is the mailbox repository injected into the emailing capabilities.
type Store interface {
	// List returns messages from a folder, newest last.
	List(ctx context.Context, folder string, unreadOnly bool, limit int) ([]Message, error)
	// Get returns one message from a folder.
	Get(ctx context.Context, folder, id string) (*Message, error)
	// Put stores a message in a folder and returns its id.
	Put(ctx context.Context, folder string, msg Message) (string, error)
	// Remove deletes a message from a folder.
	Remove(ctx context.Context, folder, id string) error
	// MarkRead flags an inbox message as read.
	MarkRead(ctx context.Context, id string) error
}

// MemoryStore is an in-memory mailbox. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	folders map[string][]Message
}

// NewMemoryStore creates an empty in-memory mailbox.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{folders: map[string][]Message{
		FolderInbox:  nil,
		FolderSent:   nil,
		FolderDrafts: nil,
	}}
}

// NewSeededStore creates a mailbox preloaded with the demo inbox: a client
// invoice request and an unrelated management thread.
func NewSeededStore() *MemoryStore {
	s := NewMemoryStore()
	s.folders[FolderInbox] = []Message{
		{
			ID:      "email-001",
			Subject: "Invoice Request - Project Modernisation - September 2025",
			From:    "client@acme-industrie.fr",
			To:      []string{"billing@company.com"},
			Body: "Hello,\n\n" +
				"We would like to request an invoice for the following consultants who worked on our Project Modernisation in September 2025:\n\n" +
				"- Elodie LEGUAY: 22 days\n" +
				"- Didier GEIG: 12 days\n\n" +
				"Please process this invoice at your earliest convenience.\n\n" +
				"Best regards,\nClient Team",
			Timestamp: time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC),
			Read:      false,
		},
		{
			ID:        "email-002",
			Subject:   "RE: Monthly Report",
			From:      "manager@company.com",
			To:        []string{"team@company.com"},
			CC:        []string{"director@company.com"},
			Body:      "Thanks for the update. Please proceed with the next phase.",
			Timestamp: time.Date(2025, 10, 2, 14, 15, 0, 0, time.UTC),
			Read:      true,
		},
	}
	return s
}

func (s *MemoryStore) folder(name string) ([]Message, error) {
	msgs, ok := s.folders[name]
	if !ok {
		return nil, fmt.Errorf("unknown folder %q", name)
	}
	return msgs, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, folder string, unreadOnly bool, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, err := s.folder(folder)
	if err != nil {
		return nil, err
	}

	var out []Message
	for _, m := range msgs {
		if unreadOnly && m.Read {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, folder, id string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, err := s.folder(folder)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.ID == id {
			copied := m
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, folder, id)
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, folder string, msg Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.folder(folder); err != nil {
		return "", err
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()[:8]
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.folders[folder] = append(s.folders[folder], msg)
	return msg.ID, nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(ctx context.Context, folder, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, err := s.folder(folder)
	if err != nil {
		return err
	}
	for i, m := range msgs {
		if m.ID == id {
			s.folders[folder] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, folder, id)
}

// MarkRead implements Store.
func (s *MemoryStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.folders[FolderInbox] {
		if m.ID == id {
			s.folders[FolderInbox][i].Read = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, FolderInbox, id)
}

var _ Store = (*MemoryStore)(nil)
