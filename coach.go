package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// coach answers free-text coaching questions. profile is nil until the user
// has submitted the form.
type coach interface {
	respond(ctx context.Context, prompt string, profile *coachProfile) (string, error)
}

// coachProfile is the personal context handed to the coach with each question.
type coachProfile struct {
	Input biometricInput
	Goals goalResult
}

/* ─── Prompt constants ───────────────────────────────────────────────── */

const coachSystemPrompt = `You are a precise, friendly fitness and nutrition expert.
Address the user directly, be motivating, and answer in the user's language.
Give concrete recommendations on training, nutrition and progress.
Where possible, roughly calculate calories, protein or training volume.
Never be vague or long-winded - clarity over style!`

// coachProfileTemplate summarises the user's submitted data and targets so the
// model can personalise its answer.
const coachProfileTemplate = `The user's profile:
- Gender: %s
- Age: %d years
- Height: %s m
- Weight: %s kg, goal weight: %s kg (%s %s kg/week)
- Strength training: %d sessions/week, about %d steps/day
- BMI: %.1f, BMR: %d kcal, TDEE: %d kcal
- Daily targets: %d kcal, %d g protein`

func (p *coachProfile) prompt() string {
	in, g := p.Input, p.Goals
	return fmt.Sprintf(coachProfileTemplate,
		in.Gender, in.Age, formatNumber(in.HeightM),
		formatNumber(in.WeightKG), formatNumber(in.GoalWeightKG), in.GoalType, formatNumber(in.GoalChangePerWeek),
		in.WorkoutsPerWeek, in.DailySteps,
		g.BMI, g.BMR, g.TDEE,
		g.CalorieTarget, g.ProteinTargetG)
}

/* ─── Chat completions HTTP client ───────────────────────────────────── */

// chatCompletionMessage is a single message in a chat completions request.
type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the request body shared by OpenAI-compatible APIs
// (OpenRouter included).
type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
}

var errNoChoices = errors.New("no choices in response")

// callChatCompletion posts a chat completions request to baseURL and returns
// the content of the first choice.
func callChatCompletion(ctx context.Context, client *http.Client, baseURL, apiKey string, reqBody chatCompletionRequest) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("coach api key not set")
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errNoChoices
	}

	return result.Choices[0].Message.Content, nil
}

/* ─── OpenRouter coach ───────────────────────────────────────────────── */

// openRouterCoach implements coach against an OpenAI-compatible endpoint.
type openRouterCoach struct {
	client      *http.Client
	baseURL     string // e.g. https://openrouter.ai/api (overridable for tests)
	apiKey      string
	model       string
	temperature float64
}

func newOpenRouterCoach(cfg coachConfig) *openRouterCoach {
	return &openRouterCoach{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (c *openRouterCoach) respond(ctx context.Context, prompt string, profile *coachProfile) (string, error) {
	messages := []chatCompletionMessage{{Role: "system", Content: coachSystemPrompt}}
	if profile != nil {
		messages = append(messages, chatCompletionMessage{Role: "system", Content: profile.prompt()})
	}
	messages = append(messages, chatCompletionMessage{Role: "user", Content: prompt})

	return callChatCompletion(ctx, c.client, c.baseURL, c.apiKey, chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
}
