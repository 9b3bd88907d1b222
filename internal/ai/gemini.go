package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zingerhq/zinger/internal/model"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
)

// Client calls the Gemini generateContent API with JSON-constrained output.
// All schedule reasoning, note writing, and resource curation happens in the
// hosted model; this client only shapes prompts and decodes responses.
type Client struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		modelName:  defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ScheduleRequest describes the plan the user wants generated.
type ScheduleRequest struct {
	Topic          string `json:"topic"`
	Duration       string `json:"duration"`
	StartDate      string `json:"start_date"`
	DailyStudyTime string `json:"daily_study_time"`
	SkillLevel     string `json:"skill_level"`
	Language       string `json:"language"`
}

// ScheduleResult is the generated schedule plus accompanying study notes.
type ScheduleResult struct {
	Schedule []model.ScheduleItem `json:"schedule"`
	Notes    string               `json:"notes"`
}

// GenerateSchedule asks the model for a dated study schedule. Items come
// back without IDs or statuses; the plan store assigns those on save.
func (c *Client) GenerateSchedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	prompt := fmt.Sprintf(`You are an expert study schedule generator. Generate a personalized study schedule.

Topic: %s
Duration: %s
Start date: %s
Daily study time: %s
Skill level: %s
Language: %s

Respond with JSON: {"schedule": [{"day": "Day 1", "date": "YYYY-MM-DD", "topic": "...", "tasks": "..."}], "notes": "markdown study notes for the topic"}.
Dates start at the start date and advance one calendar day per item.`,
		req.Topic, req.Duration, req.StartDate, req.DailyStudyTime, req.SkillLevel, req.Language)

	var result ScheduleResult
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return nil, fmt.Errorf("generate schedule: %w", err)
	}
	if len(result.Schedule) == 0 {
		return nil, fmt.Errorf("generate schedule: model returned no items")
	}
	return &result, nil
}

// CurateResources asks the model for external learning resources on a subtopic.
func (c *Client) CurateResources(ctx context.Context, subtopic string) ([]model.Resource, error) {
	prompt := fmt.Sprintf(`Curate a list of external learning resources (videos, articles, reference pages) for the subtopic below.

Subtopic: %s

Respond with JSON: {"resources": [{"title": "...", "url": "https://...", "description": "..."}]}.`, subtopic)

	var result struct {
		Resources []model.Resource `json:"resources"`
	}
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return nil, fmt.Errorf("curate resources: %w", err)
	}
	return result.Resources, nil
}

// StudyTips asks the model for personalized study tips.
func (c *Client) StudyTips(ctx context.Context, topic, struggle string) (string, error) {
	prompt := fmt.Sprintf(`Provide personalized, actionable study tips.

Topic: %s
What the student is struggling with: %s

Respond with JSON: {"tips": "markdown-formatted tips"}.`, topic, struggle)

	var result struct {
		Tips string `json:"tips"`
	}
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return "", fmt.Errorf("study tips: %w", err)
	}
	return result.Tips, nil
}

// Chat answers a free-form study question from the assistant persona.
func (c *Client) Chat(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(`You are a helpful AI assistant named zinger. Provide detailed, well-explained answers: break down complex topics, give examples, and keep explanations easy to follow.

Question: %s

Respond with JSON: {"answer": "markdown-formatted answer"}.`, question)

	var result struct {
		Answer string `json:"answer"`
	}
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return result.Answer, nil
}

// Quote is a short motivational quote with attribution.
type Quote struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// MotivationalQuote asks the model for a short motivational quote about learning.
func (c *Client) MotivationalQuote(ctx context.Context) (*Quote, error) {
	prompt := `Provide one short motivational quote about learning or perseverance.

Respond with JSON: {"quote": "...", "author": "..."}.`

	var result Quote
	if err := c.generateJSON(ctx, prompt, &result); err != nil {
		return nil, fmt.Errorf("motivational quote: %w", err)
	}
	return &result, nil
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// generateJSON sends a prompt with JSON output enforced and decodes the
// model's reply into out.
func (c *Client) generateJSON(ctx context.Context, prompt string, out any) error {
	if !c.Configured() {
		return fmt.Errorf("ai client not configured: missing API key")
	}

	reqBody := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.modelName, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("model API error: status %d", resp.StatusCode)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("model returned no candidates")
	}

	text := gen.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}
