package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/itsjashshah/flowtag/internal/report"
)

const topTags = 5

type SlackNotifier struct {
	WebhookURL string
	Channel    string
	HTTPClient *http.Client
}

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// RunSummary is what gets reported for one finished run.
type RunSummary struct {
	Report  *report.Report
	Output  string
	Skipped int
}

func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Channel:    channel,
		HTTPClient: http.DefaultClient,
	}
}

func (s *SlackNotifier) SendSummary(run RunSummary) error {
	sum := run.Report.Summary

	tags := sum.DistinctTags
	if sum.Untagged > 0 {
		tags--
	}
	text := fmt.Sprintf("*flowtag run complete*\nTagged *%d* of *%d* flow records into *%d* tags",
		sum.Tagged, sum.Records, tags)

	color := "good"
	if sum.Untagged > 0 || run.Skipped > 0 {
		color = "warning"
	}

	attachments := []slackAttachment{
		{
			Color: color,
			Title: "Summary",
			Fields: []slackField{
				{Title: "Records", Value: fmt.Sprintf("%d", sum.Records), Short: true},
				{Title: "Untagged", Value: fmt.Sprintf("%d", sum.Untagged), Short: true},
				{Title: "Port/Protocol pairs", Value: fmt.Sprintf("%d", sum.DistinctPortProtos), Short: true},
				{Title: "Skipped lines", Value: fmt.Sprintf("%d", run.Skipped), Short: true},
			},
			Footer: fmt.Sprintf("Report: %s", run.Output),
		},
	}

	rows := run.Report.TagRows(report.SortByCount)
	if len(rows) > 0 {
		tagText := ""
		for i, row := range rows {
			if i >= topTags {
				tagText += fmt.Sprintf("\n_...and %d more_", len(rows)-topTags)
				break
			}
			tagText += fmt.Sprintf("• *%s*: %d\n", row.Tag, row.Count)
		}

		attachments = append(attachments, slackAttachment{
			Color: "#439FE0",
			Title: "Top Tags",
			Text:  tagText,
		})
	}

	msg := slackMessage{
		Channel:     s.Channel,
		Username:    "flowtag",
		IconEmoji:   ":bar_chart:",
		Text:        text,
		Attachments: attachments,
	}

	return s.sendMessage(msg)
}

func (s *SlackNotifier) sendMessage(msg slackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Post(s.WebhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned non-200 status: %d", resp.StatusCode)
	}

	return nil
}
