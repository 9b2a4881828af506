package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/config"
)

const (
	footer          = "mariadb-migrate"
	maxErrorLength  = 500
	maxListedSteps  = 5
	colorSuccess    = "#36a64f"
	colorFailure    = "#dc3545"
	timestampLayout = "2006-01-02 15:04:05 UTC"
)

// Notifier sends notifications to Slack
type Notifier struct {
	config     *config.SlackConfig
	httpClient *http.Client
}

// SlackMessage represents a Slack webhook message
type SlackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment represents a Slack message attachment
type SlackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title,omitempty"`
	Text      string       `json:"text,omitempty"`
	Fields    []SlackField `json:"fields,omitempty"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
}

// SlackField represents a field in a Slack attachment
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// New creates a new Slack notifier
func New(cfg *config.SlackConfig) *Notifier {
	if cfg == nil {
		cfg = &config.SlackConfig{Enabled: false}
	}
	return &Notifier{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IsEnabled returns true if notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.config != nil && n.config.Enabled && n.config.WebhookURL != ""
}

// MigrationStarted sends notification when a run starts
func (n *Notifier) MigrationStarted(runID, direction, database string, pending int) error {
	if !n.IsEnabled() {
		return nil
	}

	return n.send(SlackMessage{
		IconEmoji: ":rocket:",
		Attachments: []SlackAttachment{
			{
				Color: colorSuccess,
				Title: fmt.Sprintf("Migrating %s", direction),
				Fields: []SlackField{
					{Title: "Run ID", Value: runID, Short: true},
					{Title: "Database", Value: database, Short: true},
					{Title: "Pending", Value: fmt.Sprintf("%d migrations", pending), Short: true},
				},
			},
		},
	})
}

// MigrationCompleted sends notification when a run completes successfully
func (n *Notifier) MigrationCompleted(runID, direction string, startTime time.Time, duration time.Duration, applied []string) error {
	if !n.IsEnabled() {
		return nil
	}

	header := fmt.Sprintf("Migrated %s: %d migrations in %s.", direction, len(applied), formatDuration(duration))
	if len(applied) == 0 {
		header = "Database is up to date; nothing to migrate."
	}

	return n.send(SlackMessage{
		IconEmoji: ":white_check_mark:",
		Text:      header,
		Attachments: []SlackAttachment{
			{
				Color: colorSuccess,
				Fields: []SlackField{
					{Title: "Run ID", Value: runID, Short: true},
					{Title: "Started", Value: startTime.UTC().Format(timestampLayout), Short: true},
					{Title: "Duration", Value: formatDuration(duration), Short: true},
					{Title: "Migrations", Value: summarize(applied), Short: false},
				},
			},
		},
	})
}

// MigrationFailed sends notification when a migration fails
func (n *Notifier) MigrationFailed(runID string, version int64, err error, duration time.Duration) error {
	if !n.IsEnabled() {
		return nil
	}

	errMsg := "Unknown error"
	if err != nil {
		errMsg = err.Error()
		if len(errMsg) > maxErrorLength {
			errMsg = errMsg[:maxErrorLength] + "..."
		}
	}

	return n.send(SlackMessage{
		IconEmoji: ":x:",
		Attachments: []SlackAttachment{
			{
				Color: colorFailure,
				Title: "Migration Failed",
				Fields: []SlackField{
					{Title: "Run ID", Value: runID, Short: true},
					{Title: "Version", Value: fmt.Sprintf("%d", version), Short: true},
					{Title: "Duration", Value: formatDuration(duration), Short: true},
					{Title: "Error", Value: errMsg, Short: false},
				},
			},
		},
	})
}

func (n *Notifier) send(msg SlackMessage) error {
	msg.Channel = n.config.Channel
	msg.Username = n.getUsername()
	for i := range msg.Attachments {
		msg.Attachments[i].Footer = footer
		msg.Attachments[i].Timestamp = time.Now().Unix()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	resp, err := n.httpClient.Post(n.config.WebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sending to Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack returned status %d", resp.StatusCode)
	}

	return nil
}

func (n *Notifier) getUsername() string {
	if n.config.Username != "" {
		return n.config.Username
	}
	return footer
}

// summarize lists the first few migrations and counts the rest.
func summarize(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	if len(names) <= maxListedSteps {
		return strings.Join(names, "\n")
	}
	return fmt.Sprintf("%s\n... and %d more", strings.Join(names[:maxListedSteps], "\n"), len(names)-maxListedSteps)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
