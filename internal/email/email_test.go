package email

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSeededInbox(t *testing.T) {
	ctx := context.Background()
	store := NewSeededStore()

	all, err := store.List(ctx, FolderInbox, false, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 seeded emails, got %d", len(all))
	}

	unread, err := store.List(ctx, FolderInbox, true, 10)
	if err != nil {
		t.Fatalf("List unread failed: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != "email-001" {
		t.Errorf("expected only the invoice request unread, got %v", unread)
	}

	if err := store.MarkRead(ctx, "email-001"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	unread, _ = store.List(ctx, FolderInbox, true, 10)
	if len(unread) != 0 {
		t.Errorf("expected no unread after MarkRead, got %v", unread)
	}

	if _, err := store.List(ctx, "archive", false, 10); err == nil {
		t.Error("unknown folder should fail")
	}
}

func TestReadEmailsCapability(t *testing.T) {
	ctx := context.Background()
	cap := ReadEmailsCapability(NewSeededStore())

	out, err := cap.Invoke(ctx, json.RawMessage(`{"unread_only":true}`))
	if err != nil {
		t.Fatalf("read_emails failed: %v", err)
	}
	if !strings.Contains(out, "Invoice Request") || !strings.Contains(out, "Elodie LEGUAY: 22 days") {
		t.Errorf("expected invoice request email, got %s", out)
	}
	if strings.Contains(out, "Monthly Report") {
		t.Error("read email should be filtered out")
	}

	out, err = cap.Invoke(ctx, json.RawMessage(`{"folder":"sent"}`))
	if err != nil {
		t.Fatalf("read_emails sent failed: %v", err)
	}
	if out != "No emails found." {
		t.Errorf("expected empty sent folder, got %s", out)
	}
}

func TestDraftThenSend(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	draft := DraftEmailCapability(store)
	out, err := draft.Invoke(ctx, json.RawMessage(`{"to":["client@acme-industrie.fr"],"subject":"Invoice 2025-09","body":"Please find attached."}`))
	if err != nil {
		t.Fatalf("draft_email failed: %v", err)
	}
	drafts, _ := store.List(ctx, FolderDrafts, false, 10)
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if !strings.Contains(out, drafts[0].ID) {
		t.Errorf("confirmation should carry the draft id: %s", out)
	}

	send := SendEmailCapability(store)
	out, err = send.Invoke(ctx, json.RawMessage(`{"draft_id":"`+drafts[0].ID+`"}`))
	if err != nil {
		t.Fatalf("send_email failed: %v", err)
	}
	if !strings.Contains(out, "Email sent.") {
		t.Errorf("unexpected confirmation: %s", out)
	}

	if remaining, _ := store.List(ctx, FolderDrafts, false, 10); len(remaining) != 0 {
		t.Error("sent draft should leave the drafts folder")
	}
	sent, _ := store.List(ctx, FolderSent, false, 10)
	if len(sent) != 1 || sent[0].Subject != "Invoice 2025-09" {
		t.Errorf("expected sent message, got %v", sent)
	}
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	send := SendEmailCapability(NewMemoryStore())

	if _, err := send.Invoke(ctx, json.RawMessage(`{"subject":"missing fields"}`)); err == nil {
		t.Error("incomplete send should fail")
	}
	_, err := send.Invoke(ctx, json.RawMessage(`{"draft_id":"nope"}`))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown draft, got %v", err)
	}
}
