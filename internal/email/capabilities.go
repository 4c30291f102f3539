package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mpellerin/tally/internal/capability"
)

// systemSender is the address outgoing mail is sent from.
const systemSender = "billing@company.com"

// ReadEmailsCapability lists messages from a mailbox folder.
func ReadEmailsCapability(store Store) capability.Capability {
	return capability.New("read_emails",
		"Read emails from a folder ('inbox' or 'sent'). Returns id, subject, sender, recipients, body and read state.",
		capability.Schema{
			Properties: map[string]capability.Property{
				"folder":      {Type: "string", Description: "Folder to read", Enum: []string{FolderInbox, FolderSent}},
				"unread_only": {Type: "boolean", Description: "Only return unread emails"},
				"limit":       {Type: "integer", Description: "Maximum number of emails to return (default 10)"},
			},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Folder     string `json:"folder"`
				UnreadOnly bool   `json:"unread_only"`
				Limit      int    `json:"limit"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}
			if in.Folder == "" {
				in.Folder = FolderInbox
			}
			if in.Limit == 0 {
				in.Limit = 10
			}

			msgs, err := store.List(ctx, in.Folder, in.UnreadOnly, in.Limit)
			if err != nil {
				return "", err
			}
			if len(msgs) == 0 {
				return "No emails found.", nil
			}
			data, err := json.MarshalIndent(msgs, "", "  ")
			if err != nil {
				return "", fmt.Errorf("encode emails: %w", err)
			}
			return string(data), nil
		})
}

// DraftEmailCapability saves a draft for later sending.
func DraftEmailCapability(store Store) capability.Capability {
	return capability.New("draft_email",
		"Draft an email with recipients, subject and body. Returns the draft id.",
		capability.Schema{
			Properties: map[string]capability.Property{
				"to":      {Type: "array", Description: "Recipient email addresses", Items: &capability.Property{Type: "string"}},
				"subject": {Type: "string", Description: "Email subject line"},
				"body":    {Type: "string", Description: "Email body content"},
				"cc":      {Type: "array", Description: "Optional CC addresses", Items: &capability.Property{Type: "string"}},
			},
			Required: []string{"to", "subject", "body"},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				To      []string `json:"to"`
				Subject string   `json:"subject"`
				Body    string   `json:"body"`
				CC      []string `json:"cc"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}
			if len(in.To) == 0 {
				return "", fmt.Errorf("draft needs at least one recipient")
			}

			id, err := store.Put(ctx, FolderDrafts, Message{
				Subject: in.Subject,
				From:    systemSender,
				To:      in.To,
				CC:      in.CC,
				Body:    in.Body,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Draft %s created.\nTo: %s\nSubject: %s", id, strings.Join(in.To, ", "), in.Subject), nil
		})
}

// SendEmailCapability sends a new email or an existing draft. Wiring decides
// whether it runs gated behind human approval.
func SendEmailCapability(store Store) capability.Capability {
	return capability.New("send_email",
		"Send an email. Provide either draft_id, or to + subject + body for a new message.",
		capability.Schema{
			Properties: map[string]capability.Property{
				"to":       {Type: "array", Description: "Recipient email addresses", Items: &capability.Property{Type: "string"}},
				"subject":  {Type: "string", Description: "Email subject line"},
				"body":     {Type: "string", Description: "Email body content"},
				"cc":       {Type: "array", Description: "Optional CC addresses", Items: &capability.Property{Type: "string"}},
				"draft_id": {Type: "string", Description: "Draft to send instead of composing a new message"},
			},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				To      []string `json:"to"`
				Subject string   `json:"subject"`
				Body    string   `json:"body"`
				CC      []string `json:"cc"`
				DraftID string   `json:"draft_id"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}

			var msg Message
			if in.DraftID != "" {
				draft, err := store.Get(ctx, FolderDrafts, in.DraftID)
				if err != nil {
					return "", err
				}
				msg = *draft
				if err := store.Remove(ctx, FolderDrafts, in.DraftID); err != nil {
					return "", err
				}
			} else {
				if len(in.To) == 0 || in.Subject == "" || in.Body == "" {
					return "", fmt.Errorf("provide draft_id or to, subject and body")
				}
				msg = Message{
					Subject: in.Subject,
					From:    systemSender,
					To:      in.To,
					CC:      in.CC,
					Body:    in.Body,
				}
			}

			msg.ID = ""
			msg.Timestamp = time.Now()
			id, err := store.Put(ctx, FolderSent, msg)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Email sent.\nMessage ID: %s\nTo: %s\nSubject: %s", id, strings.Join(msg.To, ", "), msg.Subject), nil
		})
}

// Capabilities is the full emailing set bound to a store.
func Capabilities(store Store) []capability.Capability {
	return []capability.Capability{
		ReadEmailsCapability(store),
		DraftEmailCapability(store),
		SendEmailCapability(store),
	}
}
