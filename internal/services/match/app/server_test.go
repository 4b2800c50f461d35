package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

func TestServerServesAndShutsDown(t *testing.T) {
	t.Setenv("ARENAKIT_MATCH_DB_PATH", filepath.Join(t.TempDir(), "match.db"))

	srv, err := NewWithAddr("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx)
	}()

	baseURL := fmt.Sprintf("http://%s", srv.Addr())

	resp, err := http.Get(baseURL + "/healthz")
	if err != nil {
		t.Fatalf("healthz request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(baseURL+"/v1/matchmaking/join", "application/json", nil)
	if err != nil {
		t.Fatalf("join request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("join status = %d, want 201", resp.StatusCode)
	}
	var join struct {
		SessionID     string `json:"session_id"`
		ParticipantID string `json:"participant_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&join); err != nil {
		t.Fatalf("decode join response: %v", err)
	}
	if join.SessionID == "" || join.ParticipantID == "" {
		t.Fatalf("join returned empty ids: %+v", join)
	}

	cancel()
	select {
	case err := <-serveDone:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestLoadServerEnvDefaultsDBPath(t *testing.T) {
	t.Setenv("ARENAKIT_MATCH_DB_PATH", "")

	env, err := loadServerEnv()
	if err != nil {
		t.Fatalf("load server env: %v", err)
	}
	if env.DBPath != filepath.Join("data", "match.db") {
		t.Fatalf("db path = %q, want default data/match.db", env.DBPath)
	}
}
