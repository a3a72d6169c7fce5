package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(GetDeviceID(r)))
})

func TestRequireDevice(t *testing.T) {
	h := RequireDevice(WriteAPIError)(okHandler)

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/classes", nil)
		req.Header.Set("X-Request-ID", "req-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var body struct {
			Error struct {
				Code      string `json:"code"`
				Message   string `json:"message"`
				RequestID string `json:"request_id"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error.Message != "Device identification required" || body.Error.RequestID != "req-1" {
			t.Fatalf("unexpected body: %+v", body)
		}
	})

	t.Run("blank header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(DeviceHeader, "   ")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		for _, id := range []string{"ab]]cd", "[[AbC12", "Ab C12", strings.Repeat("x", 65)} {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/classes", nil)
			req.Header.Set(DeviceHeader, id)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("%q: expected 400, got %d", id, rec.Code)
			}
			if rec.Body.Len() == 0 || strings.Contains(rec.Body.String(), id) {
				t.Fatalf("%q: unexpected body %s", id, rec.Body.String())
			}
		}
	})

	t.Run("present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(DeviceHeader, " AbC12 ")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Body.String() != "AbC12" {
			t.Fatalf("expected device id in context, got %q", rec.Body.String())
		}
	})
}

func TestWriteFunctionError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFunctionError(rec, httptest.NewRequest(http.MethodPost, "/", nil), http.StatusTooManyRequests, "RATE_LIMITED", "slow down")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "slow down" || len(body) != 1 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/analyze-student", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight: expected 200, got %d", rec.Code)
	}
	if called {
		t.Fatal("preflight must not reach the handler")
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("preflight body should be empty, got %q", rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected origin header %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "authorization, x-client-info, apikey, content-type, x-device-id" {
		t.Fatalf("unexpected allow headers %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/functions/v1/analyze-student", nil))
	if !called || rec.Code != http.StatusCreated {
		t.Fatalf("expected request to pass through, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("CORS headers missing on normal response")
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected generated id echoed, request=%q response=%q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc" || rec.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("expected caller id kept, got %q", seen)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, WriteFunctionError)
	defer rl.Stop()
	h := rl.Middleware(okHandler)

	send := func(device, addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/functions/v1/analyze-etymology", nil)
		req.RemoteAddr = addr
		if device != "" {
			req.Header.Set(DeviceHeader, device)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("AbC12", "10.0.0.1:1000"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := send("AbC12", "10.0.0.2:1000"); code != http.StatusTooManyRequests {
		t.Fatalf("third request from the same device: expected 429, got %d", code)
	}
	if code := send("ZZz99", "10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("other device: expected 200, got %d", code)
	}

	// Without a device header the client address is the key, port ignored.
	send("", "10.0.0.9:1")
	send("", "10.0.0.9:2")
	if code := send("", "10.0.0.9:3"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 by address, got %d", code)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond, nil)
	defer rl.Stop()

	if !rl.allow("k") {
		t.Fatal("first request should pass")
	}
	if rl.allow("k") {
		t.Fatal("second request in window should be limited")
	}
	time.Sleep(30 * time.Millisecond)
	if !rl.allow("k") {
		t.Fatal("request after the window should pass")
	}
}

func TestRateLimiter_RetriesDoNotExtendWindow(t *testing.T) {
	rl := NewRateLimiter(2, 100*time.Millisecond, nil)
	rl.Stop() // no background cleanup while the clock is faked

	clock := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		rl.allow("k")
	}

	// Steady retries every 60ms, faster than the window, after the limit is hit.
	var allowed []int
	for step := 1; step <= 8; step++ {
		clock = clock.Add(60 * time.Millisecond)
		if rl.allow("k") {
			allowed = append(allowed, step*60)
		}
	}

	want := []int{120, 180, 240, 300, 360, 420, 480}
	if len(allowed) != len(want) {
		t.Fatalf("allowed at %v ms, want %v", allowed, want)
	}
	for i := range want {
		if allowed[i] != want[i] {
			t.Fatalf("allowed at %v ms, want %v", allowed, want)
		}
	}
}

func TestRateLimiter_RejectedRequestsAreNotCounted(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil)
	rl.Stop() // no background cleanup while the clock is faked

	clock := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	rl.allow("k")
	for i := 0; i < 5; i++ {
		clock = clock.Add(10 * time.Second)
		if rl.allow("k") {
			t.Fatalf("request %d inside the window passed", i)
		}
	}
	clock = clock.Add(10 * time.Second)
	if !rl.allow("k") {
		t.Fatal("request after the window should pass")
	}
}

func TestRateLimiter_PreflightNotCounted(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil)
	defer rl.Stop()
	h := rl.Middleware(okHandler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("preflight %d limited: %d", i, rec.Code)
		}
	}
}
