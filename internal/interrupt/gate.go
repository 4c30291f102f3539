package interrupt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mpellerin/tally/internal/capability"
)

// Gate wraps a capability so that invoking it raises a Suspend instead of
// executing. The wrapped capability runs only after an approve or edit
// decision, via Inner.
type Gate struct {
	inner capability.Capability
}

// NewGate wraps a capability behind human approval.
func NewGate(inner capability.Capability) *Gate {
	return &Gate{inner: inner}
}

// Name returns the wrapped capability's name.
func (g *Gate) Name() string { return g.inner.Name() }

// Description returns the wrapped capability's description.
func (g *Gate) Description() string { return g.inner.Description() }

// Schema returns the wrapped capability's schema.
func (g *Gate) Schema() capability.Schema { return g.inner.Schema() }

// Invoke raises a suspension signal carrying the proposed action. The
// underlying capability is never executed here.
func (g *Gate) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	return "", &SuspendError{Suspend: Suspend{
		ID:          uuid.New().String(),
		Capability:  g.inner.Name(),
		Description: fmt.Sprintf("%s requires approval before execution", g.inner.Name()),
		Action:      args,
	}}
}

// Unwrap returns the gated capability.
func (g *Gate) Unwrap() capability.Capability { return g.inner }

// Inner strips an approval gate from a capability, if present.
func Inner(c capability.Capability) capability.Capability {
	if g, ok := c.(*Gate); ok {
		return g.inner
	}
	return c
}

var _ capability.Capability = (*Gate)(nil)
