package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTransport_LogsAndTagsRequests(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	restore := SetOutputForTests(&buf)
	defer restore()

	ctx := WithCorrelation(context.Background(), Correlation{RunID: "run-42"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/auth/oauth/token", strings.NewReader("a=b"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := NewClient("token", nil).Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if seen != "run-42" {
		t.Fatalf("X-Request-Id = %q, want run-42", seen)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "http_client" || entry["pkg"] != "token" || entry["run_id"] != "run-42" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["path"] != "/auth/oauth/token" {
		t.Fatalf("path = %v", entry["path"])
	}
	if status, _ := entry["status"].(float64); int(status) != http.StatusTeapot {
		t.Fatalf("status = %v", entry["status"])
	}
}

func TestTransport_KeepsExplicitRequestID(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
	}))
	defer srv.Close()

	restore := SetOutputForTests(&bytes.Buffer{})
	defer restore()

	ctx := WithCorrelation(context.Background(), Correlation{RunID: "run-42"})
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	req.Header.Set("X-Request-Id", "caller")
	resp, err := NewClient("token", nil).Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if seen != "caller" {
		t.Fatalf("X-Request-Id = %q, want caller", seen)
	}
}
