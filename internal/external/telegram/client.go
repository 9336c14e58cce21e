package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/pkg/httputil"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Source name used in upstream errors
const Source = "telegram"

// DefaultMaxChunk stays below the 4096 character message limit
const DefaultMaxChunk = 4000

// Client sends messages through the Telegram Bot API
// ⭐ SSOT: notification delivery happens in this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
	chatID     string
	maxChunk   int
}

// NewClient creates a new Telegram client. Empty token or chat id disables sending.
func NewClient(httpClient *httputil.Client, baseURL, token, chatID string, maxChunk int, log *logger.Logger) *Client {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chatID:     chatID,
		maxChunk:   maxChunk,
	}
}

// Enabled reports whether credentials are configured
func (c *Client) Enabled() bool {
	return c.token != "" && c.chatID != ""
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Send delivers an HTML message, split into chunks
// A chunk Telegram cannot parse as HTML is resent as plain text.
func (c *Client) Send(ctx context.Context, text string) error {
	if !c.Enabled() {
		c.logger.Debug("Telegram disabled, message dropped")
		return nil
	}

	chunks := Split(text, c.maxChunk)
	for i, chunk := range chunks {
		err := c.sendChunk(ctx, chunk, "HTML")
		if isEntityParseError(err) {
			c.logger.WithField("chunk", i).Warn("Telegram rejected HTML, resending as plain text")
			err = c.sendChunk(ctx, PlainText(chunk), "")
		}
		if err != nil {
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	c.logger.WithField("chunks", len(chunks)).Info("Telegram message sent")
	return nil
}

func (c *Client) sendChunk(ctx context.Context, text, parseMode string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	resp, err := c.httpClient.PostJSON(ctx, url, sendMessageRequest{
		ChatID:                c.chatID,
		Text:                  text,
		ParseMode:             parseMode,
		DisableWebPagePreview: true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return contracts.NewUpstreamError(Source, 0, contracts.KindUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	desc := gjson.GetBytes(body, "description").String()
	if desc == "" {
		desc = http.StatusText(resp.StatusCode)
	}
	return contracts.NewUpstreamError(Source, resp.StatusCode, contracts.KindFromStatus(resp.StatusCode), errors.New(desc))
}

// isEntityParseError matches "Bad Request: can't parse entities"
func isEntityParseError(err error) bool {
	var upstream *contracts.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusBadRequest {
		return false
	}
	return upstream.Err != nil && strings.Contains(strings.ToLower(upstream.Err.Error()), "parse entities")
}

var _ contracts.Notifier = (*Client)(nil)
