package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Do(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := New(Config{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	resp, err := c.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestClient_NilContext(t *testing.T) {
	c, _ := New(Config{})
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	//nolint:staticcheck // nil context is the case under test
	if _, err := c.Do(nil, req); err == nil {
		t.Error("expected error for nil context")
	}
}

func TestClient_MaxRedirects(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Endless redirect loop
		http.Redirect(w, r, ts.URL, http.StatusFound)
	}))
	defer ts.Close()

	c, _ := New(Config{Timeout: 5 * time.Second, MaxRedirects: 2})

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	if _, err := c.Do(context.Background(), req); err == nil {
		t.Error("expected redirect limit error")
	}
}

func TestClient_NoRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer ts.Close()

	c, _ := New(Config{Timeout: 5 * time.Second, MaxRedirects: -1})

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	resp, err := c.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected raw 302 response, got %d", resp.StatusCode)
	}
}
