package checks

import (
	"context"

	"risk_guard/internal/core"
)

// Check is one independent safety strategy. Supports decides whether the
// check governs the order and may lazily populate the evaluation context;
// Check returns a structured verdict and never fails on a normal veto — only
// truly unexpected errors surface as an error.
type Check interface {
	Name() string
	Supports(ctx context.Context, order core.Order, ec *Context) (bool, error)
	Check(ctx context.Context, order core.Order, ec *Context) (Result, error)
}
