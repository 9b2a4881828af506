package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/config"
)

func newServer(t *testing.T, status int, got *[]SlackMessage) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg SlackMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		*got = append(*got, msg)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDisabledNotifierSendsNothing(t *testing.T) {
	var got []SlackMessage
	srv := newServer(t, http.StatusOK, &got)

	n := New(&config.SlackConfig{Enabled: false, WebhookURL: srv.URL})
	if err := n.MigrationStarted("r1", "up", "inventory", 3); err != nil {
		t.Fatalf("MigrationStarted: %v", err)
	}
	if err := New(nil).MigrationFailed("r1", 1, errors.New("x"), time.Second); err != nil {
		t.Fatalf("MigrationFailed on nil config: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("sent %d messages, want 0", len(got))
	}
}

func TestMessages(t *testing.T) {
	var got []SlackMessage
	srv := newServer(t, http.StatusOK, &got)
	n := New(&config.SlackConfig{Enabled: true, WebhookURL: srv.URL, Channel: "#deploys"})

	if err := n.MigrationStarted("r1", "up", "inventory", 2); err != nil {
		t.Fatalf("MigrationStarted: %v", err)
	}
	if err := n.MigrationCompleted("r1", "up", time.Now(), 90*time.Second, []string{"1 create users", "2 add email"}); err != nil {
		t.Fatalf("MigrationCompleted: %v", err)
	}
	if err := n.MigrationFailed("r1", 3, errors.New(strings.Repeat("e", 600)), time.Second); err != nil {
		t.Fatalf("MigrationFailed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("sent %d messages, want 3", len(got))
	}
	for _, msg := range got {
		if msg.Channel != "#deploys" || msg.Username != "mariadb-migrate" {
			t.Errorf("channel/username = %q/%q", msg.Channel, msg.Username)
		}
		if msg.Attachments[0].Footer != "mariadb-migrate" {
			t.Errorf("footer = %q", msg.Attachments[0].Footer)
		}
	}
	if got[1].Text != "Migrated up: 2 migrations in 1m 30s." {
		t.Errorf("completed text = %q", got[1].Text)
	}
	errField := got[2].Attachments[0].Fields[3].Value
	if len(errField) != 503 || !strings.HasSuffix(errField, "...") {
		t.Errorf("error field not truncated: len %d", len(errField))
	}
}

func TestSendReportsHTTPStatus(t *testing.T) {
	var got []SlackMessage
	srv := newServer(t, http.StatusInternalServerError, &got)
	n := New(&config.SlackConfig{Enabled: true, WebhookURL: srv.URL})
	if err := n.MigrationStarted("r1", "down", "db", 1); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{nil, "none"},
		{[]string{"a", "b"}, "a\nb"},
		{[]string{"a", "b", "c", "d", "e", "f", "g"}, "a\nb\nc\nd\ne\n... and 2 more"},
	}
	for _, tt := range tests {
		if got := summarize(tt.names); got != tt.want {
			t.Errorf("summarize(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{45 * time.Second, "45s"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
		{time.Hour + time.Minute, "1h 1m 0s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
