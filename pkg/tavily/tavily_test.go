package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearchFlattensAnswerAndResults(t *testing.T) {
	t.Parallel()

	var gotReq searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.URL.Path != "/search" {
			t.Fatalf("path = %s, want /search", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"answer": "Labor rates for brake jobs run $110-150/hr.",
			"results": []map[string]string{
				{"title": "RepairPal", "content": "Civic brake pad replacement $150-200", "url": "https://example.com/a"},
				{"title": "Empty", "content": "   ", "url": "https://example.com/b"},
			},
		})
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "key"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	payload, err := client.Search(context.Background(), "labor rate brake job 2019 civic")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotReq.Query != "labor rate brake job 2019 civic" || gotReq.APIKey != "key" {
		t.Fatalf("request = %+v", gotReq)
	}

	lines := strings.Split(payload, "\n")
	if len(lines) != 2 {
		t.Fatalf("payload has %d lines, want 2: %q", len(lines), payload)
	}
	if !strings.HasPrefix(lines[0], "Labor rates") {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "RepairPal") {
		t.Fatalf("second line = %q", lines[1])
	}
}

func TestSearchErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "key"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Search(context.Background(), "anything"); err == nil {
		t.Fatal("Search() should fail on non-2xx status")
	}
}

func TestSearchEmptyResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"answer": "", "results": []any{}})
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "key"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Search(context.Background(), "anything"); err == nil {
		t.Fatal("Search() should fail on empty response")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "https://api.tavily.com"}); err == nil {
		t.Fatal("NewClient() should require an api key")
	}
	if _, err := NewClient(Config{APIKey: "key", BaseURL: "   "}); err == nil {
		t.Fatal("NewClient() should require a base url")
	}
}
