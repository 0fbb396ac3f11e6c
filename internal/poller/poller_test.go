package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"onestopradio/internal/models"
)

func TestRunOnceClassifiesOnline(t *testing.T) {
	body := strings.Repeat("x", 150)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	p := New(models.PanelServices, []models.Target{
		{ID: "api", Name: "API", URL: server.URL},
	}, nil, nil)

	entry, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	check := entry.Checks[0]
	if check.Status != models.StatusOnline {
		t.Fatalf("status = %s, want online", check.Status)
	}
	if len([]rune(check.Response)) != 100 {
		t.Fatalf("excerpt length = %d, want 100", len([]rune(check.Response)))
	}
	if check.StatusCode == nil || *check.StatusCode != http.StatusOK {
		t.Fatalf("status code = %v, want 200", check.StatusCode)
	}
	if check.LatencyMS == nil {
		t.Fatal("latency not recorded")
	}
}

func TestRunOnceClassifiesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := New(models.PanelServices, []models.Target{
		{ID: "api", Name: "API", URL: server.URL},
	}, nil, nil)

	entry, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	check := entry.Checks[0]
	if check.Status != models.StatusError {
		t.Fatalf("status = %s, want error", check.Status)
	}
	if check.Error != "HTTP 503" {
		t.Fatalf("error = %q, want %q", check.Error, "HTTP 503")
	}
}

func TestRunOnceClassifiesTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	p := New(models.PanelServices, []models.Target{
		{ID: "api", Name: "API", URL: server.URL},
	}, nil, nil)
	p.defaultTimeout = 50 * time.Millisecond

	entry, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	check := entry.Checks[0]
	if check.Status != models.StatusOffline {
		t.Fatalf("status = %s, want offline", check.Status)
	}
	if check.Error != "Timeout" {
		t.Fatalf("error = %q, want %q", check.Error, "Timeout")
	}
}

func TestRunOnceClassifiesNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	p := New(models.PanelServices, []models.Target{
		{ID: "api", Name: "API", URL: url},
	}, nil, nil)

	entry, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	check := entry.Checks[0]
	if check.Status != models.StatusOffline {
		t.Fatalf("status = %s, want offline", check.Status)
	}
	if check.Error == "" || check.Error == "Timeout" {
		t.Fatalf("error = %q, want underlying network message", check.Error)
	}
}

func TestRunOncePublishesAfterEachCheck(t *testing.T) {
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer fast.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte("ok"))
	}))
	defer slow.Close()

	p := New(models.PanelServices, []models.Target{
		{ID: "fast", Name: "Fast", URL: fast.URL},
		{ID: "slow", Name: "Slow", URL: slow.URL},
	}, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.RunOnce(context.Background()); err != nil {
			t.Errorf("RunOnce: %v", err)
		}
	}()

	<-entered
	records := p.Records()
	if records[0].Status != models.StatusOnline {
		t.Fatalf("first record mid-pass = %s, want online", records[0].Status)
	}
	if records[1].Status != models.StatusChecking {
		t.Fatalf("second record mid-pass = %s, want checking", records[1].Status)
	}
	if !p.Running() {
		t.Fatal("poller should report running mid-pass")
	}

	close(release)
	<-done

	records = p.Records()
	if records[1].Status != models.StatusOnline {
		t.Fatalf("second record after pass = %s, want online", records[1].Status)
	}
	if p.Running() {
		t.Fatal("poller should be idle after the pass")
	}
}

func TestRunOnceRejectsOverlappingPass(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
	}))
	defer server.Close()

	p := New(models.PanelServices, []models.Target{
		{ID: "api", Name: "API", URL: server.URL},
	}, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.RunOnce(context.Background())
	}()

	<-entered
	if _, err := p.RunOnce(context.Background()); err != ErrPassInProgress {
		t.Fatalf("overlapping pass error = %v, want ErrPassInProgress", err)
	}
	close(release)
	<-done
}

type captureRecorder struct {
	entries []models.StatusEntry
}

func (c *captureRecorder) Append(entry models.StatusEntry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func TestRunOnceRecordsPass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	recorder := &captureRecorder{}
	p := New(models.PanelEncoding, []models.Target{
		{ID: "audio", Name: "Audio", URL: server.URL},
	}, recorder, nil)

	if _, err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(recorder.entries) != 1 {
		t.Fatalf("recorded entries = %d, want 1", len(recorder.entries))
	}
	if recorder.entries[0].Panel != models.PanelEncoding {
		t.Fatalf("recorded panel = %s, want encoding", recorder.entries[0].Panel)
	}
}

func TestSummarize(t *testing.T) {
	online := models.CheckResult{Status: models.StatusOnline}
	offline := models.CheckResult{Status: models.StatusOffline}
	errored := models.CheckResult{Status: models.StatusError}
	checking := models.CheckResult{Status: models.StatusChecking}

	cases := []struct {
		name    string
		records []models.CheckResult
		state   string
		label   string
	}{
		{"all online", []models.CheckResult{online, online}, models.SummaryOK, "2/2 online"},
		{"some offline", []models.CheckResult{online, online, online, offline}, models.SummaryDegraded, "3/4 online"},
		{"all down", []models.CheckResult{offline, errored}, models.SummaryDown, "0/2 online"},
		{"mid pass", []models.CheckResult{online, checking}, models.SummaryChecking, "1/2 online"},
		{"empty", nil, models.SummaryDown, "0/0 online"},
	}
	for _, tc := range cases {
		summary := Summarize(models.PanelServices, tc.records)
		if summary.State != tc.state {
			t.Errorf("%s: state = %s, want %s", tc.name, summary.State, tc.state)
		}
		if summary.Label != tc.label {
			t.Errorf("%s: label = %q, want %q", tc.name, summary.Label, tc.label)
		}
	}
}
