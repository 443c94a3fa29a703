package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

// setupCoachTest starts a mock chat completions server. The returned pointer
// receives the last decoded request body.
func setupCoachTest(t *testing.T, status int, body interface{}) (*openRouterCoach, *chatCompletionRequest) {
	t.Helper()
	var lastReq chatCompletionRequest

	mock := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&lastReq)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(mock.Close)

	c := newOpenRouterCoach(coachConfig{
		BaseURL:     mock.URL,
		APIKey:      "test-key",
		Model:       "mistralai/mistral-7b-instruct",
		Temperature: 0.5,
		Timeout:     5 * time.Second,
	})
	return c, &lastReq
}

// chatCompletionResponse wraps a content string in the chat completions
// response shape (choices[0].message.content).
func chatCompletionResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message": map[string]interface{}{
					"content": content,
				},
			},
		},
	}
}

func TestCoach_RespondWithoutProfile(t *testing.T) {
	c, lastReq := setupCoachTest(t, http.StatusOK, chatCompletionResponse("Do three full-body sessions a week."))

	reply, err := c.respond(context.Background(), "How often should I train?", nil)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply != "Do three full-body sessions a week." {
		t.Errorf("reply = %q", reply)
	}
	if len(lastReq.Messages) != 2 {
		t.Fatalf("got %d messages, want system + user", len(lastReq.Messages))
	}
	if lastReq.Messages[0].Role != "system" || lastReq.Messages[1].Role != "user" {
		t.Errorf("roles = %s, %s", lastReq.Messages[0].Role, lastReq.Messages[1].Role)
	}
	if lastReq.Model != "mistralai/mistral-7b-instruct" || lastReq.Temperature != 0.5 {
		t.Errorf("model/temperature = %s/%v", lastReq.Model, lastReq.Temperature)
	}
}

// TestCoach_RespondWithProfile verifies the user's targets reach the model as
// an extra system message.
func TestCoach_RespondWithProfile(t *testing.T) {
	c, lastReq := setupCoachTest(t, http.StatusOK, chatCompletionResponse("ok"))

	in := makeInput()
	goals, _ := computeGoals(in)
	if _, err := c.respond(context.Background(), "What should I eat?", &coachProfile{Input: in, Goals: goals}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(lastReq.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(lastReq.Messages))
	}
	profileMsg := lastReq.Messages[1].Content
	for _, want := range []string{"2778 kcal", "156 g protein", "BMI: 27.8", "Height: 1.75 m"} {
		if !strings.Contains(profileMsg, want) {
			t.Errorf("profile message missing %q:\n%s", want, profileMsg)
		}
	}
}

func TestCoach_ErrorStatus(t *testing.T) {
	c, _ := setupCoachTest(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	if _, err := c.respond(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestCoach_NoChoices(t *testing.T) {
	c, _ := setupCoachTest(t, http.StatusOK, map[string]interface{}{"choices": []interface{}{}})

	if _, err := c.respond(context.Background(), "hi", nil); err != errNoChoices {
		t.Fatalf("err = %v, want errNoChoices", err)
	}
}

func TestCoach_MissingAPIKey(t *testing.T) {
	c := newOpenRouterCoach(coachConfig{BaseURL: "http://127.0.0.1:0", Timeout: time.Second})
	if _, err := c.respond(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected error without api key")
	}
}
