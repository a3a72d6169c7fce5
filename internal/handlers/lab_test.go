package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"psychinsights-backend/internal/labstate"
)

func TestLabHandler_PutThenGet(t *testing.T) {
	h := NewLabHandler(labstate.NewFileStore(t.TempDir()), nil)

	rr := httptest.NewRecorder()
	h.Put(rr, newRequest(http.MethodPut, "/api/v1/lab/state", `{"etymology":{"words":"telephone"}}`, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Get(rr, newRequest(http.MethodGet, "/api/v1/lab/state", "", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}

	var st labstate.State
	if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if st.Etymology.Words != "telephone" {
		t.Fatalf("expected saved words, got %q", st.Etymology.Words)
	}
	if st.InterferenceMap.TaskCategory != "grammar" {
		t.Fatalf("expected default task category, got %q", st.InterferenceMap.TaskCategory)
	}
}

func TestLabHandler_GetCorruptReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lab_state_AbC12.json"), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	h := NewLabHandler(labstate.NewFileStore(dir), nil)

	rr := httptest.NewRecorder()
	h.Get(rr, newRequest(http.MethodGet, "/api/v1/lab/state", "", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var st labstate.State
	json.NewDecoder(rr.Body).Decode(&st)
	if st != labstate.Default() {
		t.Fatalf("expected default state, got %+v", st)
	}
}

func TestLabHandler_PutInvalidBody(t *testing.T) {
	h := NewLabHandler(labstate.NewFileStore(t.TempDir()), nil)

	rr := httptest.NewRecorder()
	h.Put(rr, newRequest(http.MethodPut, "/api/v1/lab/state", `[`, ""))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLabHandler_PutBodyTooLarge(t *testing.T) {
	store := labstate.NewFileStore(t.TempDir())
	h := NewLabHandler(store, nil)

	big := `{"etymology":{"words":"` + strings.Repeat("a", maxRequestBody) + `"}}`
	rr := httptest.NewRecorder()
	h.Put(rr, newRequest(http.MethodPut, "/api/v1/lab/state", big, ""))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	st, err := store.Load(context.Background(), "AbC12")
	if err != nil {
		t.Fatal(err)
	}
	if st.Etymology.Words != "" {
		t.Fatal("oversized state should not be stored")
	}
}
