package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yapay-ai/aws-budget-guardian/pkg/model"
)

// SlackNotifier sends run summaries to a Slack webhook.
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, result model.RunResult) error {
	color := "#36a64f" // green
	switch {
	case result.Failed():
		color = "#ff0000" // red
	case result.Failures > 0:
		color = "#ff9900" // orange
	}

	fields := []slackField{
		{Title: "Job", Value: result.Job, Short: true},
		{Title: "Status", Value: result.Status, Short: true},
	}
	if result.Workloads > 0 {
		fields = append(fields, slackField{Title: "Workloads", Value: fmt.Sprintf("%d", result.Workloads), Short: true})
	}
	if result.Budgets > 0 {
		fields = append(fields, slackField{Title: "Budgets", Value: fmt.Sprintf("%d", result.Budgets), Short: true})
	}
	if result.Records > 0 {
		fields = append(fields, slackField{Title: "Records", Value: fmt.Sprintf("%d", result.Records), Short: true})
	}
	if result.Failures > 0 {
		fields = append(fields, slackField{Title: "Failures", Value: fmt.Sprintf("%d", result.Failures), Short: true})
	}
	if result.TotalCostUSD > 0 {
		fields = append(fields, slackField{Title: "Prior Month Spend", Value: fmt.Sprintf("$%.2f", result.TotalCostUSD), Short: true})
	}
	if result.Message != "" {
		fields = append(fields, slackField{Title: "Message", Value: result.Message, Short: false})
	}

	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{
			{
				Color:  color,
				Title:  fmt.Sprintf("AWS Budget Guardian: %s %s", result.Job, result.Status),
				Fields: fields,
				Footer: "AWS Budget Guardian",
				Ts:     time.Now().Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
