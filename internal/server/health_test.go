package server

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp HealthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Sqlite != "ok" {
		t.Errorf("sqlite = %q, want ok", resp.Sqlite)
	}
}
