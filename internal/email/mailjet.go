package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/zingerhq/zinger/internal/reconcile"
)

const defaultAPIURL = "https://api.mailjet.com/v3.1/send"

// Client sends transactional email through the Mailjet v3.1 API.
type Client struct {
	apiKey     string
	apiSecret  string
	fromEmail  string
	fromName   string
	apiURL     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the Mailjet endpoint, used in tests.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(apiKey, apiSecret, fromEmail, fromName string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		fromEmail:  fromEmail,
		fromName:   fromName,
		apiURL:     defaultAPIURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if API credentials are set.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

type mailjetAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mailjetMessage struct {
	From     mailjetAddress   `json:"From"`
	To       []mailjetAddress `json:"To"`
	Subject  string           `json:"Subject"`
	TextPart string           `json:"TextPart"`
	HTMLPart string           `json:"HTMLPart"`
}

type mailjetPayload struct {
	Messages []mailjetMessage `json:"Messages"`
}

// SendDailySummary emails the user their tasks due today. Implements
// reconcile.SummaryDispatcher.
func (c *Client) SendDailySummary(ctx context.Context, toEmail, toName string, tasks []reconcile.DueTask) error {
	subject := fmt.Sprintf("Your study plan for today (%d task(s))", len(tasks))

	var text, htmlBody strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nHere's what's on your plate today:\n\n", toName)
	fmt.Fprintf(&htmlBody, "<p>Hi %s,</p><p>Here's what's on your plate today:</p><ul>", html.EscapeString(toName))
	for _, task := range tasks {
		fmt.Fprintf(&text, "- %s: %s\n", task.Topic, task.Tasks)
		fmt.Fprintf(&htmlBody, "<li><strong>%s</strong>: %s</li>", html.EscapeString(task.Topic), html.EscapeString(task.Tasks))
	}
	text.WriteString("\nYou've got this!\n")
	htmlBody.WriteString("</ul><p>You've got this!</p>")

	return c.send(ctx, toEmail, toName, subject, text.String(), htmlBody.String())
}

// SendSignInCode emails a 6-digit sign-in code.
func (c *Client) SendSignInCode(ctx context.Context, toEmail, code string) error {
	subject := "Your Zinger sign-in code"
	text := fmt.Sprintf("Your sign-in code is: %s\n\nIt expires in 15 minutes. If you didn't request this, you can ignore this email.\n", code)
	htmlBody := fmt.Sprintf("<p>Your sign-in code is:</p><p style=\"font-size:24px;letter-spacing:4px\"><strong>%s</strong></p><p>It expires in 15 minutes. If you didn't request this, you can ignore this email.</p>", code)
	return c.send(ctx, toEmail, "", subject, text, htmlBody)
}

func (c *Client) send(ctx context.Context, toEmail, toName, subject, text, htmlBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing API credentials")
	}

	payload := mailjetPayload{
		Messages: []mailjetMessage{{
			From:     mailjetAddress{Email: c.fromEmail, Name: c.fromName},
			To:       []mailjetAddress{{Email: toEmail, Name: toName}},
			Subject:  subject,
			TextPart: text,
			HTMLPart: htmlBody,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mailjet API error: status %d", resp.StatusCode)
	}

	return nil
}
