package alerts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"flashpeg-keeper/internal/config"
)

// Discord posts to a channel webhook.
type Discord struct {
	enabled    bool
	webhookURL string
	client     *http.Client
}

func NewDiscord(cfg config.DiscordConfig) *Discord {
	return newDiscord(cfg, nil)
}

func newDiscord(cfg config.DiscordConfig, client *http.Client) *Discord {
	return &Discord{
		enabled:    cfg.Enabled,
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		client:     defaultClient(client),
	}
}

func (d *Discord) Send(ctx context.Context, message string) error {
	if !d.enabled {
		return nil
	}
	if d.webhookURL == "" {
		return errors.New("discord webhook_url is required")
	}
	if strings.TrimSpace(message) == "" {
		return errors.New("discord message is empty")
	}
	// Discord answers 204 No Content on success.
	_, err := postJSON(ctx, d.client, "discord", d.webhookURL, map[string]string{"content": message})
	return err
}
