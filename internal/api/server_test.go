package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"curlock/internal/config"
	"curlock/internal/protocol"
)

func newTestServer(token string) (*Server, *int) {
	unlocks := 0
	mgr := &config.Manager{}
	cfg := config.DefaultConfig()
	cfg.General.APIToken = token
	mgr.Set(cfg)

	s := NewServer(mgr,
		func() protocol.StatusPayload {
			return protocol.StatusPayload{Locked: true, Kind: "Normal", SequenceLength: 3}
		},
		func(origin string) { unlocks++ },
	)
	s.token = token
	return s, &unlocks
}

func TestHealthNeedsNoAuth(t *testing.T) {
	s, _ := newTestServer("secret")
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 for /health, got %d", resp.StatusCode)
	}
}

func TestStatusRequiresToken(t *testing.T) {
	s, _ := newTestServer("secret")
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest("GET", ts.URL+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Authorized GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 with token, got %d", resp.StatusCode)
	}

	var status protocol.StatusPayload
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("Decoding status failed: %v", err)
	}
	if !status.Locked || status.Kind != "Normal" || status.SequenceLength != 3 {
		t.Errorf("Unexpected status payload: %+v", status)
	}
}

func TestUnlockInvokesCallback(t *testing.T) {
	s, unlocks := newTestServer("")
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/unlock", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/unlock failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if *unlocks != 1 {
		t.Errorf("Expected exactly 1 unlock callback, got %d", *unlocks)
	}
}

func TestUnlockRejectsGet(t *testing.T) {
	s, unlocks := newTestServer("")
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/unlock")
	if err != nil {
		t.Fatalf("GET /api/unlock failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", resp.StatusCode)
	}
	if *unlocks != 0 {
		t.Errorf("GET must not trigger unlock, got %d callbacks", *unlocks)
	}
}
