package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// modelServer returns an httptest server that replies with the given JSON
// text wrapped in a generateContent response envelope.
func modelServer(t *testing.T, jsonText string, capture *generateRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Fatalf("decode request: %v", err)
			}
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": jsonText}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerateSchedule(t *testing.T) {
	var captured generateRequest
	server := modelServer(t, `{
		"schedule": [
			{"day": "Day 1", "date": "2024-01-15", "topic": "Basics", "tasks": "Read intro"},
			{"day": "Day 2", "date": "2024-01-16", "topic": "Practice", "tasks": "Exercises"}
		],
		"notes": "# Notes"
	}`, &captured)
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	result, err := client.GenerateSchedule(context.Background(), ScheduleRequest{
		Topic:          "Go programming",
		Duration:       "2 weeks",
		StartDate:      "2024-01-15",
		DailyStudyTime: "1 hour",
		SkillLevel:     "Beginner",
		Language:       "English",
	})
	if err != nil {
		t.Fatalf("generate schedule: %v", err)
	}
	if len(result.Schedule) != 2 {
		t.Fatalf("schedule items = %d, want 2", len(result.Schedule))
	}
	if result.Schedule[0].Date != "2024-01-15" {
		t.Errorf("first item date = %q, want 2024-01-15", result.Schedule[0].Date)
	}
	if result.Notes != "# Notes" {
		t.Errorf("notes = %q, want # Notes", result.Notes)
	}

	prompt := captured.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Go programming") || !strings.Contains(prompt, "Beginner") {
		t.Error("prompt missing request fields")
	}
	if captured.GenerationConfig == nil || captured.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Error("expected JSON response mime type")
	}
}

func TestGenerateScheduleEmpty(t *testing.T) {
	server := modelServer(t, `{"schedule": [], "notes": ""}`, nil)
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.GenerateSchedule(context.Background(), ScheduleRequest{Topic: "X"})
	if err == nil {
		t.Fatal("expected error for empty schedule")
	}
}

func TestCurateResources(t *testing.T) {
	server := modelServer(t, `{
		"resources": [
			{"title": "Intro video", "url": "https://example.com/v", "description": "A video"}
		]
	}`, nil)
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	resources, err := client.CurateResources(context.Background(), "photosynthesis")
	if err != nil {
		t.Fatalf("curate resources: %v", err)
	}
	if len(resources) != 1 || resources[0].URL != "https://example.com/v" {
		t.Errorf("resources = %+v", resources)
	}
}

func TestStudyTips(t *testing.T) {
	server := modelServer(t, `{"tips": "Use spaced repetition."}`, nil)
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	tips, err := client.StudyTips(context.Background(), "calculus", "integration by parts")
	if err != nil {
		t.Fatalf("study tips: %v", err)
	}
	if tips != "Use spaced repetition." {
		t.Errorf("tips = %q", tips)
	}
}

func TestChat(t *testing.T) {
	var captured generateRequest
	server := modelServer(t, `{"answer": "Start with the basics."}`, &captured)
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	answer, err := client.Chat(context.Background(), "How do I learn Go?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if answer != "Start with the basics." {
		t.Errorf("answer = %q", answer)
	}

	prompt := captured.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "How do I learn Go?") {
		t.Error("prompt missing question")
	}
}

func TestMotivationalQuote(t *testing.T) {
	server := modelServer(t, `{"quote": "Keep going.", "author": "Anonymous"}`, nil)
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	quote, err := client.MotivationalQuote(context.Background())
	if err != nil {
		t.Fatalf("motivational quote: %v", err)
	}
	if quote.Quote != "Keep going." || quote.Author != "Anonymous" {
		t.Errorf("quote = %+v", quote)
	}
}

func TestNotConfigured(t *testing.T) {
	client := NewClient("")

	_, err := client.MotivationalQuote(context.Background())
	if err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.MotivationalQuote(context.Background())
	if err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestMalformedModelOutput(t *testing.T) {
	server := modelServer(t, `not json at all`, nil)
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.MotivationalQuote(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed model output")
	}
}
