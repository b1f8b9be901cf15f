// Package observability builds the observability implementation used in
// tests: no metrics, log output through the test's own log.
package observability

import (
	"io"
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"

	"github.com/blackoreo/namwatch/observability"
)

// Default returns a test observability: metrics are no-op and log lines
// go through t.Log so they show up attached to the failing test.
func Default(t *testing.T) *observability.Observe {
	return observability.NOP(slogt.New(t))
}

// NOP returns an observability where everything is discarded. Use it for
// tests where even per-test log output is just noise.
func NOP() *observability.Observe {
	return observability.NOP(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
