package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func startSearchServer(t *testing.T, status int, response any) *httptest.Server {
	t.Helper()
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode search request failed: %v", err)
		}
		if req.APIKey == "" {
			t.Error("expect api key in request payload")
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(response)
	}
	return httptest.NewServer(http.HandlerFunc(handler))
}

func TestNewMissingAPIKey(t *testing.T) {
	if _, err := New(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Expect ErrMissingAPIKey, but got %v", err)
	}
}

func TestSearchCapsResults(t *testing.T) {
	mock := map[string]any{
		"answer": "synthesized answer",
		"results": []map[string]string{
			{"title": "First", "url": "https://example.com/1", "content": "one"},
			{"title": "Second", "url": "https://example.com/2", "content": "two"},
			{"title": "Third", "url": "https://example.com/3", "content": "three"},
		},
	}
	srv := startSearchServer(t, http.StatusOK, &mock)
	defer srv.Close()
	tool, err := New(WithAPIKey("test-key"), WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("Error creating tool: %v", err)
	}
	out, err := tool.Run(context.Background(), NewInput("battery recycling", 2))
	if err != nil {
		t.Fatalf("Error running search: %v", err)
	}
	if out.Answer != "synthesized answer" {
		t.Errorf("Expect synthesized answer, but got %s", out.Answer)
	}
	if len(out.Results) != 2 {
		t.Fatalf("Expect results capped at 2, but got %d", len(out.Results))
	}
	if out.Results[0].Title != "First" || out.Results[1].Title != "Second" {
		t.Errorf("Expect result order preserved, got %+v", out.Results)
	}
	if out.Query != "battery recycling" {
		t.Errorf("Expect query echoed, but got %s", out.Query)
	}
}

func TestSearchTransportError(t *testing.T) {
	srv := startSearchServer(t, http.StatusBadGateway, map[string]any{})
	defer srv.Close()
	tool, err := New(WithAPIKey("test-key"), WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("Error creating tool: %v", err)
	}
	if _, err := tool.Run(context.Background(), NewInput("anything", 5)); err == nil {
		t.Fatal("Expect transport error to propagate")
	}
}
