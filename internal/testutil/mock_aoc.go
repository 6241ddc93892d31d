// Package testutil provides testing utilities for the leaderboard fetcher.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// LeaderboardPath returns the request path for a year's private leaderboard.
func LeaderboardPath(year int, leaderboardID string) string {
	return fmt.Sprintf("/%d/leaderboard/private/view/%s.json", year, leaderboardID)
}

// MockResponse defines the behavior for a mock leaderboard response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAoC is a configurable fake Advent of Code server. Paths without a
// configured response get a 404, like unknown years on the real site.
type MockAoC struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	requestCount int
	paths        []string
	cookies      []string
	userAgents   []string
}

// NewMockAoC creates and starts a new mock server.
func NewMockAoC() *MockAoC {
	mock := &MockAoC{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.paths = append(mock.paths, r.URL.Path)
		mock.cookies = append(mock.cookies, r.Header.Get("Cookie"))
		mock.userAgents = append(mock.userAgents, r.Header.Get("User-Agent"))
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAoC) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAoC) Close() {
	m.server.Close()
}

// Reset clears all tracking state. Configured handlers are kept.
func (m *MockAoC) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.paths = nil
	m.cookies = nil
	m.userAgents = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAoC) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockAoC) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetYear configures the response for one year of a leaderboard.
func (m *MockAoC) SetYear(year int, leaderboardID string, resp MockResponse) {
	m.SetResponse(LeaderboardPath(year, leaderboardID), resp)
}

// RequireSession makes every configured year answer 400 unless the request
// carries the given session cookie. Call after the years are configured.
func (m *MockAoC) RequireSession(session string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, h := range m.handlers {
		next := h
		m.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie("session")
			if err != nil || c.Value != session {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Missing or invalid session cookie"))
				return
			}
			next(w, r)
		}
	}
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAoC) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// Paths returns the requested paths in order.
func (m *MockAoC) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.paths...)
}

// Cookies returns the Cookie header of each request in order.
func (m *MockAoC) Cookies() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.cookies...)
}

// UserAgents returns the User-Agent header of each request in order.
func (m *MockAoC) UserAgents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.userAgents...)
}

// NewLeaderboardResponse creates a 200 OK JSON response.
func NewLeaderboardResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       "404 Not Found",
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal Server Error",
	}
}

// SampleLeaderboard returns a minimal leaderboard document for year, shaped
// like the site's private leaderboard JSON.
func SampleLeaderboard(year int, ownerID string) string {
	return fmt.Sprintf(`{"event":"%d","owner_id":"%s","members":{"%s":{"id":"%s","name":"owner","stars":2,"local_score":10,"global_score":0,"last_star_ts":1700000000,"completion_day_level":{}}}}`,
		year, ownerID, ownerID, ownerID)
}
