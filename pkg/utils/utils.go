package utils

import (
	"context"
	"log"

	"chart-annotator/pkg/logger"
)

// GoSafe runs the given function in a new goroutine and recovers from any panic.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Panic Recovered] %v", r)
			}
		}()
		fn()
	}()
}

// TruncateString shortens s to at most max runes, appending an ellipsis when
// anything was cut.
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// ShouldContinue reports whether the context is still live, logging the reason
// when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.WarnContext(ctx, "Context cancelled", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}
