package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{
		insecureBaseURL: baseURL,
		Credentials:     Credentials{APIKey: "test-key", AccountID: "acc-1"},
		Timeout:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Credentials: Credentials{APIKey: "k", AccountID: "a"}}); err == nil {
		t.Error("expected error for missing DSN")
	}
	if _, err := New(Config{DSN: "api.example.com", Credentials: Credentials{AccountID: "a"}}); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := New(Config{DSN: "api.example.com", Credentials: Credentials{APIKey: "k"}}); err == nil {
		t.Error("expected error for missing account id")
	}
}

func TestResolveProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "test-key" {
			t.Errorf("expected API key header, got %q", r.Header.Get("X-API-KEY"))
		}
		if !strings.HasPrefix(r.URL.Path, "/api/v1/users/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("account_id") != "acc-1" {
			t.Errorf("expected account_id param, got %q", r.URL.Query().Get("account_id"))
		}
		if r.URL.Query().Get("linkedin_sections") != "*" {
			t.Errorf("expected linkedin_sections=*, got %q", r.URL.Query().Get("linkedin_sections"))
		}
		fmt.Fprint(w, `{"provider_id":"p_42","headline":"Data Scientist at Acme"}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	id, err := c.ResolveProfile(context.Background(), "jane-doe-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "p_42" {
		t.Errorf("expected p_42, got %q", id)
	}
}

func TestResolveProfile_MissingProviderID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"headline":"Data Scientist"}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.ResolveProfile(context.Background(), "jane-doe-123")
	if err == nil {
		t.Fatal("expected resolution error")
	}

	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ResolutionError, got %T", err)
	}
	if !strings.Contains(rerr.Reason, "could not find provider_id") {
		t.Errorf("expected provider_id reason, got %q", rerr.Reason)
	}
}

func TestResolveProfile_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream unavailable")
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.ResolveProfile(context.Background(), "jane-doe-123")

	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ResolutionError, got %T", err)
	}
	if !strings.Contains(rerr.Reason, "upstream unavailable") {
		t.Errorf("expected response body captured in reason, got %q", rerr.Reason)
	}
}

func TestJobTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"experience title wins", `{"provider_id":"p","headline":"H","experience":[{"title":"Staff Engineer"}]}`, "Staff Engineer"},
		{"headline fallback", `{"provider_id":"p","headline":"Founder at Startup"}`, "Founder at Startup"},
		{"generic fallback", `{"provider_id":"p"}`, "Professional"},
		{"empty experience entry falls through", `{"provider_id":"p","headline":"H","experience":[{"title":""}]}`, "H"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			c := newTestClient(t, ts.URL)
			if got := c.JobTitle(context.Background(), "someone"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJobTitle_NeverFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	if got := c.JobTitle(context.Background(), "someone"); got != "Professional" {
		t.Errorf("expected generic label on failure, got %q", got)
	}
}

func TestSendMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chats" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if r.PostForm.Get("attendees_ids") != "p_88" {
			t.Errorf("expected attendees_ids p_88, got %q", r.PostForm.Get("attendees_ids"))
		}
		if r.PostForm.Get("text") != "hello" {
			t.Errorf("expected text hello, got %q", r.PostForm.Get("text"))
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	if err := c.SendMessage(context.Background(), "p_88", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSendMessage_NotConnected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"not connected to this user"}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	err := c.SendMessage(context.Background(), "p_88", "hello")

	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DeliveryError, got %T", err)
	}
	if derr.Op != "message" || derr.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected delivery error: %+v", derr)
	}
	if !strings.Contains(derr.Reason, "not connected") {
		t.Errorf("expected response body in reason, got %q", derr.Reason)
	}
}

func TestSendInvite(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/invite" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	if err := c.SendInvite(context.Background(), "p_88", "let's connect"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSendInvite_Failure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, "invite already pending")
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	err := c.SendInvite(context.Background(), "p_88", "let's connect")

	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DeliveryError, got %T", err)
	}
	if derr.Op != "invite" {
		t.Errorf("expected invite op, got %q", derr.Op)
	}
	if !strings.Contains(derr.Reason, "invite already pending") {
		t.Errorf("expected response body in reason, got %q", derr.Reason)
	}
}
