package campaign

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FranksOps/reachout/internal/directory"
	"github.com/FranksOps/reachout/internal/search"
	"github.com/FranksOps/reachout/internal/storage"
	"github.com/FranksOps/reachout/pkg/config"
)

// fakeProvider returns the same canned results for every query.
type fakeProvider struct {
	results []search.Result
}

func (f *fakeProvider) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return f.results, nil
}

// fakeDirectory resolves every username except "ghost" and accepts all sends.
type fakeDirectory struct {
	messages int
}

func (f *fakeDirectory) ResolveProfile(ctx context.Context, username string) (string, error) {
	if username == "ghost" {
		return "", &directory.ResolutionError{Username: username, Reason: "could not find provider_id in the response"}
	}
	return "p_" + username, nil
}

func (f *fakeDirectory) JobTitle(ctx context.Context, username string) string { return "Engineer" }

func (f *fakeDirectory) SendMessage(ctx context.Context, providerID, text string) error {
	f.messages++
	return nil
}

func (f *fakeDirectory) SendInvite(ctx context.Context, providerID, message string) error {
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Directory.DSN = "api.example.com"
	cfg.Directory.APIKey = "key"
	cfg.Directory.AccountID = "acct"
	cfg.Discovery.Keyword = "Engineer"
	cfg.Discovery.Description = "fintech"
	cfg.Discovery.MaxResults = 2
	cfg.Discovery.PaceMin = "1us"
	cfg.Discovery.PaceMax = "2us"
	cfg.Outreach.MessageTemplate = "Hi {name}"
	cfg.Outreach.ConnectionTemplate = "Hello {name}"
	cfg.Outreach.RequestsPerSecond = 0
	cfg.Storage.Path = filepath.Join(t.TempDir(), "results.csv")
	return cfg
}

func TestCampaign_Run(t *testing.T) {
	cfg := testConfig(t)

	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	dir := &fakeDirectory{}
	c.provider = &fakeProvider{results: []search.Result{
		{URL: "https://www.linkedin.com/in/bob"},
		{URL: "https://www.linkedin.com/in/ghost"},
	}}
	c.dir = dir

	results, summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Summary{Total: 2, SuccessCount: 1, FailedCount: 1, MessageCount: 1}
	if summary != want {
		t.Errorf("unexpected summary: got %+v, want %+v", summary, want)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Action != storage.ActionMessage || results[0].Status != storage.StatusSuccess {
		t.Errorf("bob: expected Message/Success, got %s/%s", results[0].Action, results[0].Status)
	}
	if dir.messages != 1 {
		t.Errorf("expected 1 message sent, got %d", dir.messages)
	}

	// Every result was persisted to the configured backend.
	data, err := os.ReadFile(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("failed to read result file: %v", err)
	}
	if !strings.Contains(string(data), "bob") {
		t.Errorf("expected persisted results to mention bob:\n%s", data)
	}
}

func TestCampaign_RunFile(t *testing.T) {
	cfg := testConfig(t)

	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()
	c.dir = &fakeDirectory{}

	targets := filepath.Join(t.TempDir(), "targets.txt")
	if err := os.WriteFile(targets, []byte("https://www.linkedin.com/in/alice\n"), 0o644); err != nil {
		t.Fatalf("failed to write target file: %v", err)
	}

	results, summary, err := c.RunFile(context.Background(), targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Total != 1 || summary.SuccessCount != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(results) != 1 || results[0].Username != "alice" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Discovery.Keyword = ""

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}
