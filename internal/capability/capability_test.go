package capability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func echoCapability(name string) Capability {
	return New(name, "echoes its input", Schema{
		Properties: map[string]Property{
			"text": {Type: "string", Description: "text to echo"},
		},
		Required: []string{"text"},
	}, func(ctx context.Context, args json.RawMessage) (string, error) {
		var in struct {
			Text string `json:"text"`
		}
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		return in.Text, nil
	})
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(echoCapability("echo"))

	c, err := reg.Get("echo")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	out, err := c.Invoke(context.Background(), json.RawMessage(`{"text":"hi"}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out != "hi" {
		t.Errorf("expected %q, got %q", "hi", out)
	}

	if _, err := reg.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry(echoCapability("zeta"), echoCapability("alpha"), echoCapability("mid"))
	names := reg.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], name)
		}
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("boom")
	err := WrapError("get_worker", base)

	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ce.Capability != "get_worker" {
		t.Errorf("expected capability %q, got %q", "get_worker", ce.Capability)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should match base via errors.Is")
	}

	// Double wrapping keeps the original capability name.
	again := WrapError("other", err)
	var ce2 *Error
	if !errors.As(again, &ce2) || ce2.Capability != "get_worker" {
		t.Errorf("double wrap should preserve original, got %+v", ce2)
	}
}

func TestDecodeArgsEmpty(t *testing.T) {
	var in struct {
		Text string `json:"text"`
	}
	if err := DecodeArgs(nil, &in); err != nil {
		t.Fatalf("empty args should decode to zero value: %v", err)
	}
	if in.Text != "" {
		t.Errorf("expected empty text, got %q", in.Text)
	}
}
