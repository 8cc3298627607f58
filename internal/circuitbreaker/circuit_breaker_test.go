package circuitbreaker

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(t *testing.T, config Config) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := NewCircuitBreaker("publisher.example", config, zaptest.NewLogger(t))
	cb.now = clock.Now
	cb.toNewGeneration(clock.Now())
	return cb, clock
}

func testConfig() Config {
	return Config{
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
		SuccessThreshold: 2,
	}
}

func TestCircuitBreakerStates(t *testing.T) {
	cb, clock := newTestBreaker(t, testConfig())
	fail := errors.New("dial tcp: connection refused")

	if cb.State() != StateClosed {
		t.Fatalf("Expected initial state to be closed, got %s", cb.State())
	}

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Errorf("Expected success, got error: %v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state to remain closed, got %s", cb.State())
	}

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return fail }); err != fail {
			t.Errorf("Expected the call error, got %v", err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("Expected state to be open, got %s", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if err != ErrCircuitBreakerOpen {
		t.Errorf("Expected circuit breaker open error, got %v", err)
	}
	if called {
		t.Error("Open breaker must not run the call")
	}

	clock.Advance(31 * time.Second)
	if cb.State() != StateHalfOpen {
		t.Fatalf("Expected state to be half-open, got %s", cb.State())
	}

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Errorf("Expected success, got error: %v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state to be closed, got %s", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(t, testConfig())
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errors.New("timeout") })
	}
	clock.Advance(31 * time.Second)

	_ = cb.Execute(func() error { return errors.New("still down") })
	if cb.State() != StateOpen {
		t.Errorf("Expected half-open failure to reopen, got %s", cb.State())
	}
}

func TestCircuitBreakerMaxRequests(t *testing.T) {
	config := testConfig()
	config.SuccessThreshold = 5
	cb, _ := newTestBreaker(t, config)

	cb.mu.Lock()
	cb.state = StateHalfOpen
	cb.generation++
	cb.counts = Counts{}
	cb.mu.Unlock()

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Errorf("Expected success, got error: %v", err)
		}
	}
	if err := cb.Execute(func() error { return nil }); err != ErrTooManyRequests {
		t.Errorf("Expected too many requests error, got %v", err)
	}
}

func TestCircuitBreakerCounts(t *testing.T) {
	cb, _ := newTestBreaker(t, testConfig())

	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errors.New("error") })
	_ = cb.Execute(func() error { return nil })

	counts := cb.Counts()
	if counts.Requests != 3 {
		t.Errorf("Expected 3 requests, got %d", counts.Requests)
	}
	if counts.TotalSuccesses != 2 {
		t.Errorf("Expected 2 successes, got %d", counts.TotalSuccesses)
	}
	if counts.TotalFailures != 1 {
		t.Errorf("Expected 1 failure, got %d", counts.TotalFailures)
	}
}

func TestCircuitBreakerIntervalResetsCounts(t *testing.T) {
	cb, clock := newTestBreaker(t, testConfig())
	_ = cb.Execute(func() error { return errors.New("error") })
	_ = cb.Execute(func() error { return errors.New("error") })

	clock.Advance(2 * time.Minute)
	_ = cb.Execute(func() error { return errors.New("error") })

	if cb.State() != StateClosed {
		t.Errorf("Failures across intervals must not open the breaker, got %s", cb.State())
	}
}

func TestStateChangeCallback(t *testing.T) {
	config := testConfig()
	config.FailureThreshold = 2

	var callbackCalled bool
	var fromState, toState State
	config.OnStateChange = func(name string, from State, to State) {
		callbackCalled = true
		fromState = from
		toState = to
	}

	cb, _ := newTestBreaker(t, config)
	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return errors.New("error") })
	}

	if !callbackCalled {
		t.Error("Expected state change callback to be called")
	}
	if fromState != StateClosed || toState != StateOpen {
		t.Errorf("Expected transition from closed to open, got %s to %s", fromState, toState)
	}
}

func TestHostConfigToConfigFillsDefaults(t *testing.T) {
	cfg := HostConfig{FailureThreshold: 7}.ToConfig()
	def := DefaultHostConfig()
	if cfg.FailureThreshold != 7 {
		t.Errorf("Expected explicit threshold kept, got %d", cfg.FailureThreshold)
	}
	if cfg.Timeout != def.OpenTimeout || cfg.MaxRequests != def.MaxRequests || cfg.SuccessThreshold != def.SuccessThreshold {
		t.Errorf("Expected zero fields filled from defaults, got %+v", cfg)
	}
}

func TestHostBreakersTripOnTransportErrorsOnly(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	hb := NewHostBreakers(srv.Client(), HostConfig{FailureThreshold: 2, OpenTimeout: time.Minute}, "test", zaptest.NewLogger(t))

	// Any HTTP answer, 4xx or 5xx, means the host is up.
	for _, path := range []string{"/missing", "/broken", "/broken", "/broken", "/missing"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		resp, err := hb.Do(req)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", path, err)
		}
		resp.Body.Close()
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Fatalf("Expected every request to reach the host, got %d", got)
	}
	if state := hb.Breaker(mustHost(t, srv.URL)).State(); state != StateClosed {
		t.Fatalf("Expected closed breaker after HTTP errors, got %v", state)
	}

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, downURL+"/story", nil)
		if _, err := hb.Do(req); err == nil || errors.Is(err, ErrCircuitBreakerOpen) {
			t.Fatalf("Expected a transport error, got %v", err)
		}
	}
	req, _ := http.NewRequest(http.MethodGet, downURL+"/story", nil)
	if _, err := hb.Do(req); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Fatalf("Expected open breaker, got %v", err)
	}
}

func mustHost(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u.Hostname()
}

func TestHostBreakersAreIndependentPerHost(t *testing.T) {
	hb := NewHostBreakers(nil, DefaultHostConfig(), "test", zaptest.NewLogger(t))
	a := hb.Breaker("www.reuters.com")
	b := hb.Breaker("apnews.com")
	if a == b {
		t.Fatal("Expected distinct breakers per host")
	}
	if hb.Breaker("WWW.Reuters.com") != a {
		t.Error("Expected host lookup to be case-insensitive")
	}
}
