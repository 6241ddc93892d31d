package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/aoc-leaderboard-fetch/internal/testutil"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := DefaultConfig("test-session", "3158126")
	cfg.BaseURL = baseURL
	cfg.UserAgent = "aoc-leaderboard-fetch/test"
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("abc123", "3158126"),
			expectError: false,
		},
		{
			name: "empty session",
			config: Config{
				BaseURL:       "https://adventofcode.com",
				LeaderboardID: "3158126",
				Timeout:       time.Second,
			},
			expectError: true,
			errorMsg:    "session is required",
		},
		{
			name: "empty leaderboard id",
			config: Config{
				BaseURL: "https://adventofcode.com",
				Session: "abc123",
				Timeout: time.Second,
			},
			expectError: true,
			errorMsg:    "leaderboard id is required",
		},
		{
			name: "empty base url",
			config: Config{
				LeaderboardID: "3158126",
				Session:       "abc123",
				Timeout:       time.Second,
			},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name: "zero timeout",
			config: Config{
				BaseURL:       "https://adventofcode.com",
				LeaderboardID: "3158126",
				Session:       "abc123",
			},
			expectError: true,
			errorMsg:    "timeout must be positive (got 0s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if client == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("abc123", "3158126")

	if cfg.Session != "abc123" {
		t.Errorf("Session = %q, want abc123", cfg.Session)
	}
	if cfg.BaseURL != "https://adventofcode.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %s, should be > 0", cfg.Timeout)
	}
}

func TestURL(t *testing.T) {
	c := newTestClient(t, "https://adventofcode.com/")

	got := c.URL(2021)
	want := "https://adventofcode.com/2021/leaderboard/private/view/3158126.json"
	if got != want {
		t.Errorf("URL(2021) = %q, want %q", got, want)
	}
}

func TestFetch_Success(t *testing.T) {
	mock := testutil.NewMockAoC()
	defer mock.Close()
	mock.SetYear(2021, "3158126", testutil.NewLeaderboardResponse(`{"x":1}`))

	c := newTestClient(t, mock.URL())

	body, err := c.Fetch(context.Background(), 2021)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if string(body) != `{"x":1}` {
		t.Errorf("body = %q, want %q", body, `{"x":1}`)
	}

	if got := mock.Paths(); len(got) != 1 || got[0] != "/2021/leaderboard/private/view/3158126.json" {
		t.Errorf("paths = %v", got)
	}
	if got := mock.Cookies(); len(got) != 1 || got[0] != "session=test-session" {
		t.Errorf("Cookie = %v, want session=test-session", got)
	}
	if got := mock.UserAgents(); len(got) != 1 || got[0] != "aoc-leaderboard-fetch/test" {
		t.Errorf("User-Agent = %v", got)
	}
}

func TestFetch_HTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantClass  ErrorClass
		wantReason string
	}{
		{name: "not found", status: http.StatusNotFound, wantClass: ErrorClassClient, wantReason: "Not Found"},
		{name: "bad request", status: http.StatusBadRequest, wantClass: ErrorClassClient, wantReason: "Bad Request"},
		{name: "server error", status: http.StatusInternalServerError, wantClass: ErrorClassServer, wantReason: "Internal Server Error"},
		{name: "no content", status: http.StatusNoContent, wantClass: ErrorClassUnexpected, wantReason: "No Content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAoC()
			defer mock.Close()
			mock.SetYear(2016, "3158126", testutil.MockResponse{StatusCode: tt.status, Body: "nope"})

			c := newTestClient(t, mock.URL())

			body, err := c.Fetch(context.Background(), 2016)
			if body != nil {
				t.Errorf("body = %q, want nil", body)
			}

			fe, ok := AsFetchError(err)
			if !ok {
				t.Fatalf("error = %v, want *FetchError", err)
			}
			if fe.Year != 2016 {
				t.Errorf("Year = %d, want 2016", fe.Year)
			}
			if fe.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.status)
			}
			if fe.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", fe.ErrorClass, tt.wantClass)
			}
			if fe.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", fe.Reason, tt.wantReason)
			}
			if fe.IsTransport() {
				t.Error("HTTP error reported as transport error")
			}
			if !strings.Contains(err.Error(), strconv.Itoa(tt.status)) {
				t.Errorf("Error() = %q should contain status", err.Error())
			}
		})
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(t, url)

	_, err := c.Fetch(context.Background(), 2015)
	fe, ok := AsFetchError(err)
	if !ok {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if !fe.IsTransport() {
		t.Errorf("ErrorClass = %q, want network", fe.ErrorClass)
	}
	if fe.Err == nil {
		t.Error("Err should carry the transport error")
	}
	if fe.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", fe.StatusCode)
	}
}

func TestFetch_Timeout(t *testing.T) {
	mock := testutil.NewMockAoC()
	defer mock.Close()
	mock.SetYear(2020, "3158126", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{}`,
		Delay:      2 * time.Second,
	})

	cfg := DefaultConfig("test-session", "3158126")
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 50 * time.Millisecond
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	start := time.Now()
	_, err = c.Fetch(context.Background(), 2020)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Fetch took %s, timeout not enforced", elapsed)
	}

	fe, ok := AsFetchError(err)
	if !ok || !fe.IsTransport() {
		t.Fatalf("error = %v, want network FetchError", err)
	}
}

func TestFetch_TruncatedBody(t *testing.T) {
	mock := testutil.NewMockAoC()
	defer mock.Close()
	mock.SetHandler(testutil.LeaderboardPath(2019, "3158126"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"partial":`))
	})

	c := newTestClient(t, mock.URL())

	body, err := c.Fetch(context.Background(), 2019)
	if body != nil {
		t.Errorf("body = %q, want nil for truncated response", body)
	}
	fe, ok := AsFetchError(err)
	if !ok || !fe.IsTransport() {
		t.Fatalf("error = %v, want network FetchError", err)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockAoC()
	defer mock.Close()
	mock.SetYear(2022, "3158126", testutil.NewLeaderboardResponse(`{}`))

	c := newTestClient(t, mock.URL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, 2022)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{302, ErrorClassUnexpected},
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassClient},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestReasonPhrase(t *testing.T) {
	tests := []struct {
		name   string
		resp   *http.Response
		expect string
	}{
		{
			name:   "from status line",
			resp:   &http.Response{StatusCode: 404, Status: "404 Not Found"},
			expect: "Not Found",
		},
		{
			name:   "custom phrase",
			resp:   &http.Response{StatusCode: 400, Status: "400 Session Expired"},
			expect: "Session Expired",
		},
		{
			name:   "missing status line",
			resp:   &http.Response{StatusCode: 503},
			expect: "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reasonPhrase(tt.resp); got != tt.expect {
				t.Errorf("reasonPhrase() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestSetHTTPClient_KeepsTimeout(t *testing.T) {
	c := newTestClient(t, "https://adventofcode.com")

	custom := &http.Client{}
	c.SetHTTPClient(custom)

	if custom.Timeout != c.config.Timeout {
		t.Errorf("Timeout = %s, want %s", custom.Timeout, c.config.Timeout)
	}
}
