package api

import (
	"context"
	"time"
)

// RequestContext derives the context for one backend request. A timeout of
// zero or less means the request runs until the backend answers or parent
// is cancelled.
func RequestContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
