package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mpellerin/tally/internal/interrupt"
	"github.com/mpellerin/tally/pkg/models"
)

func sampleCheckpoint(threadID string) *Checkpoint {
	return &Checkpoint{
		ThreadID: threadID,
		Frames: []Frame{
			{
				Agent: "orchestrator",
				Messages: []models.Message{
					models.SystemMessage("coordinate"),
					models.HumanMessage("reconcile July"),
				},
			},
			{
				Agent:        "emailing",
				ParentCallID: "call_7__0",
				Messages: []models.Message{
					models.HumanMessage("send the summary"),
				},
				Completed: map[string]Result{"call_9": {Content: "draft saved"}},
				Pending: []interrupt.Suspend{{
					ID:         "int-1",
					Capability: "send_email",
					Action:     json.RawMessage(`{"to":"client@acme.fr"}`),
					ToolCallID: "call_10",
				}},
			},
		},
		Todos: []models.Todo{{Content: "send summary", Status: models.TodoInProgress}},
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			cp := sampleCheckpoint("thread-1")
			if err := store.Save(ctx, cp); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := store.Load(ctx, "thread-1")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(loaded.Frames) != 2 {
				t.Fatalf("expected 2 frames, got %d", len(loaded.Frames))
			}
			inner := loaded.Frames[1]
			if inner.Agent != "emailing" || inner.ParentCallID != "call_7__0" {
				t.Errorf("unexpected inner frame: %+v", inner)
			}
			if len(inner.Pending) != 1 || inner.Pending[0].ID != "int-1" {
				t.Errorf("pending interrupt not preserved: %+v", inner.Pending)
			}
			if inner.Completed["call_9"].Content != "draft saved" {
				t.Errorf("completed results not preserved: %v", inner.Completed)
			}
			if len(loaded.Todos) != 1 || loaded.Todos[0].Status != models.TodoInProgress {
				t.Errorf("todos not preserved: %v", loaded.Todos)
			}

			// Overwrite replaces state for the same thread.
			cp2 := sampleCheckpoint("thread-1")
			cp2.Frames = cp2.Frames[:1]
			if err := store.Save(ctx, cp2); err != nil {
				t.Fatalf("second Save failed: %v", err)
			}
			loaded, err = store.Load(ctx, "thread-1")
			if err != nil {
				t.Fatalf("Load after overwrite failed: %v", err)
			}
			if len(loaded.Frames) != 1 {
				t.Errorf("expected overwritten checkpoint with 1 frame, got %d", len(loaded.Frames))
			}
		})
	}
}

func TestStoreMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Load(ctx, "absent"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if err := store.Delete(ctx, "absent"); err != nil {
				t.Errorf("deleting a missing thread should not fail: %v", err)
			}

			if err := store.Save(ctx, sampleCheckpoint("thread-2")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if err := store.Delete(ctx, "thread-2"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := store.Load(ctx, "thread-2"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"t1", "t2", "t3"} {
				if err := store.Save(ctx, sampleCheckpoint(id)); err != nil {
					t.Fatalf("Save %s failed: %v", id, err)
				}
			}
			ids, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(ids) != 3 {
				t.Fatalf("expected 3 threads, got %d", len(ids))
			}
			seen := map[string]bool{}
			for _, id := range ids {
				seen[id] = true
			}
			for _, id := range []string{"t1", "t2", "t3"} {
				if !seen[id] {
					t.Errorf("thread %s missing from list", id)
				}
			}
		})
	}
}

func TestCheckpointHelpers(t *testing.T) {
	cp := sampleCheckpoint("thread-3")

	stack := cp.DialogStack()
	if len(stack) != 2 || stack[0] != "orchestrator" || stack[1] != "emailing" {
		t.Errorf("unexpected dialog stack %v", stack)
	}

	suspends := cp.Suspends()
	if len(suspends) != 1 || suspends[0].Capability != "send_email" {
		t.Errorf("unexpected suspends %v", suspends)
	}
}

func TestOpenStore(t *testing.T) {
	if _, err := OpenStore("memory", ""); err != nil {
		t.Errorf("memory backend should open: %v", err)
	}
	if _, err := OpenStore("sqlite", ""); err == nil {
		t.Error("sqlite backend without path should fail")
	}
	if _, err := OpenStore("postgres", ""); err == nil {
		t.Error("unknown backend should fail")
	}
}
