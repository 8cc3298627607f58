package circuitbreaker

import (
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// maxTrackedHosts bounds the breaker map; past it the map is reset.
const maxTrackedHosts = 4096

// HostBreakers sends HTTP requests through one circuit breaker per target
// host. Only transport errors (timeouts, refused connections) count as
// failures. Any HTTP response, 5xx included, means the host answered, and a
// failing page says nothing about its sibling pages.
type HostBreakers struct {
	client  *http.Client
	config  Config
	service string
	logger  *zap.Logger

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewHostBreakers wraps client. A nil client uses http.DefaultClient.
func NewHostBreakers(client *http.Client, config HostConfig, service string, logger *zap.Logger) *HostBreakers {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostBreakers{
		client:   client,
		config:   config.ToConfig(),
		service:  service,
		logger:   logger,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Breaker returns the breaker for host, creating it on first use.
func (hb *HostBreakers) Breaker(host string) *CircuitBreaker {
	host = strings.ToLower(host)

	hb.mu.Lock()
	defer hb.mu.Unlock()

	if cb, ok := hb.breakers[host]; ok {
		return cb
	}
	if len(hb.breakers) >= maxTrackedHosts {
		hb.breakers = make(map[string]*CircuitBreaker)
	}
	cb := NewCircuitBreaker(host, hb.config, hb.logger)
	instrument(cb, hb.service)
	hb.breakers[host] = cb
	return cb
}

// Do executes req through the breaker for req.URL's host. When the breaker
// rejects the call the error wraps ErrCircuitBreakerOpen or ErrTooManyRequests.
func (hb *HostBreakers) Do(req *http.Request) (*http.Response, error) {
	cb := hb.Breaker(req.URL.Hostname())

	var resp *http.Response
	err := cb.Execute(func() error {
		var err error
		resp, err = hb.client.Do(req)
		return err
	})

	recordRequest(hb.service, cb.State(), err == nil)
	return resp, err
}
