package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/titan3755/photobytes-blog/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue   = 3447003  // #3498DB - New order
	ColorPurple = 10181046 // #9B59B6 - Contact message

	WebhookUsername = "PhotoBytes Blog"
)

// NotifyNewOrder pushes a heads-up to the staff Discord/Slack channels when
// a custom order lands. Both destinations are optional, env-configured.
func NotifyNewOrder(order models.Order, author models.User) error {
	if url := os.Getenv("DISCORD_WEBHOOK_URL"); url != "" {
		payload := DiscordWebhookRequest{
			Username: WebhookUsername,
			Embeds: []DiscordEmbed{
				{
					Title:       "New custom order",
					Description: fmt.Sprintf("**%s** submitted a new order.", author.Username),
					Color:       ColorBlue,
					Fields: []DiscordWebhookField{
						{Name: "Title", Value: order.Title, Inline: false},
						{Name: "Budget", Value: orPlaceholder(order.Budget), Inline: true},
						{Name: "Status", Value: order.Status, Inline: true},
					},
					Timestamp: time.Now().Format(time.RFC3339),
				},
			},
		}

		if err := sendDiscordWebhook(url, payload); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if url := os.Getenv("SLACK_WEBHOOK_URL"); url != "" {
		payload := SlackWebhookRequest{
			Username: WebhookUsername,
			Text:     fmt.Sprintf("New custom order from *%s*", author.Username),
			Attachments: []SlackAttachment{
				{
					Color: "#3498DB",
					Title: order.Title,
					Text:  order.Description,
					Fields: []SlackField{
						{Title: "Budget", Value: orPlaceholder(order.Budget), Short: true},
						{Title: "Status", Value: order.Status, Short: true},
					},
					Timestamp: time.Now().Unix(),
				},
			},
		}

		if err := sendSlackWebhook(url, payload); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

// NotifyContactMessage mirrors NotifyNewOrder for contact-form submissions.
func NotifyContactMessage(message models.ContactMessage) error {
	if url := os.Getenv("DISCORD_WEBHOOK_URL"); url != "" {
		payload := DiscordWebhookRequest{
			Username: WebhookUsername,
			Embeds: []DiscordEmbed{
				{
					Title:       "New contact message",
					Description: message.Subject,
					Color:       ColorPurple,
					Fields: []DiscordWebhookField{
						{Name: "From", Value: fmt.Sprintf("%s <%s>", message.Name, message.Email), Inline: false},
						{Name: "Message", Value: message.Content, Inline: false},
					},
					Timestamp: time.Now().Format(time.RFC3339),
				},
			},
		}

		if err := sendDiscordWebhook(url, payload); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if url := os.Getenv("SLACK_WEBHOOK_URL"); url != "" {
		payload := SlackWebhookRequest{
			Username: WebhookUsername,
			Text:     fmt.Sprintf("New contact message from *%s*", message.Name),
			Attachments: []SlackAttachment{
				{
					Color: "#9B59B6",
					Title: message.Subject,
					Text:  message.Content,
					Fields: []SlackField{
						{Title: "Email", Value: message.Email, Short: true},
					},
					Timestamp: time.Now().Unix(),
				},
			},
		}

		if err := sendSlackWebhook(url, payload); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func orPlaceholder(value string) string {
	if value == "" {
		return "Not specified"
	}
	return value
}

func sendDiscordWebhook(webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackWebhook(webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
