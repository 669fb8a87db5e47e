package otel

import (
	"os"
	"sync/atomic"
)

var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("MARQUEE_TRACE") != "")
}

// TraceEnabled reports whether MARQUEE_TRACE is set. When it is, the UI
// emits one event per received message.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
