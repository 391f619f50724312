package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tiffinflow/relay/internal/upstream"
)

const DefaultAPIURL = "https://graph.facebook.com/v21.0"

// List message limits enforced by the Cloud API.
const (
	MaxListRows       = 10
	MaxRowTitle       = 23
	MaxRowDescription = 72
)

type Client struct {
	apiURL        string
	phoneNumberID string
	accessToken   string
	http          *http.Client
}

func NewClient(apiURL, phoneNumberID, accessToken string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:        strings.TrimSuffix(apiURL, "/"),
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	msg := SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &SendText{Body: body},
	}
	return c.send(ctx, msg)
}

func (c *Client) SendList(ctx context.Context, to string, list ListMessage) error {
	if err := validateList(list); err != nil {
		return err
	}

	interactive := &Interactive{
		Type: "list",
		Body: InteractiveBody{Text: list.Body},
		Action: InteractiveAction{
			Button:   list.Button,
			Sections: list.Sections,
		},
	}
	if list.Header != "" {
		interactive.Header = &InteractiveHeader{Type: "text", Text: list.Header}
	}
	if list.Footer != "" {
		interactive.Footer = &InteractiveFooter{Text: list.Footer}
	}

	msg := SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive:      interactive,
	}
	return c.send(ctx, msg)
}

func validateList(list ListMessage) error {
	total := 0
	for _, s := range list.Sections {
		total += len(s.Rows)
		for _, r := range s.Rows {
			if n := len([]rune(r.Title)); n > MaxRowTitle {
				return fmt.Errorf("list row %q title has %d chars, max %d", r.ID, n, MaxRowTitle)
			}
			if n := len([]rune(r.Description)); n > MaxRowDescription {
				return fmt.Errorf("list row %q description has %d chars, max %d", r.ID, n, MaxRowDescription)
			}
		}
	}
	if total == 0 {
		return fmt.Errorf("list message has no rows")
	}
	if total > MaxListRows {
		return fmt.Errorf("list message has %d rows, max %d", total, MaxListRows)
	}
	return nil
}

func (c *Client) send(ctx context.Context, msg SendMessageRequest) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.apiURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return upstream.FromResponse("whatsapp", resp)
	}
	return nil
}

// Truncate cuts s to at most max characters without splitting a rune.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
