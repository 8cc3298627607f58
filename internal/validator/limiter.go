package validator

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const maxLimitedHosts = 4096

// hostLimiter keeps one token bucket per host so a batch citing the same
// publisher many times does not hammer it.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newHostLimiter(rps float64, burst int) *hostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (h *hostLimiter) get(host string) *rate.Limiter {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))

	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.limiters[host]; ok {
		return l
	}
	if len(h.limiters) >= maxLimitedHosts {
		h.limiters = make(map[string]*rate.Limiter)
	}
	l := rate.NewLimiter(h.rps, h.burst)
	h.limiters[host] = l
	return l
}

func (h *hostLimiter) wait(ctx context.Context, host string) error {
	return h.get(host).Wait(ctx)
}
